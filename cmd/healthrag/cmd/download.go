package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// corpusFile is one source document of the aged care corpus.
type corpusFile struct {
	Filename string
	URL      string
}

// defaultCorpus lists the published aged care quality standards documents.
var defaultCorpus = []corpusFile{
	{
		Filename: "strengthened-aged-care-quality-standards-august-2025.pdf",
		URL:      "https://www.health.gov.au/sites/default/files/2025-08/strengthened-aged-care-quality-standards-august-2025.pdf",
	},
	{
		Filename: "guidance-material-intro.pdf",
		URL:      "https://www.agedcarequality.gov.au/sites/default/files/media/guidance-material-for-the-strengthened-aged-care-quality-standards-intro.pdf",
	},
	{
		Filename: "guidance-material-standard-1.pdf",
		URL:      "https://www.agedcarequality.gov.au/sites/default/files/media/guidance-material-for-the-strengthened-aged-care-quality-standards-standard-1.pdf",
	},
	{
		Filename: "quick-reference-guide.pdf",
		URL:      "https://www.agedcarequality.gov.au/sites/default/files/media/strengthened-quality-standards-quick-reference-guide.pdf",
	},
	{
		Filename: "provider-checklist.pdf",
		URL:      "https://www.agedcarequality.gov.au/sites/default/files/media/strengthened_standards_provider_checklist_10_feb_2025.pdf",
	},
}

const downloadTimeout = 60 * time.Second

func newDownloadCmd(_ *globalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the aged care standards corpus",
		Long: `Download the aged care quality standards PDFs into --dir.
Files that already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: downloadTimeout}
			return downloadCorpus(cmd.Context(), client, dir, defaultCorpus, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "data/raw", "Destination directory")

	return cmd
}

// downloadCorpus fetches every file not already present in dir. A failed
// download is reported and the rest continue; the returned error counts the
// failures.
func downloadCorpus(ctx context.Context, client *http.Client, dir string, files []corpusFile, out io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	var failed int
	for _, f := range files {
		dest := filepath.Join(dir, f.Filename)
		if _, err := os.Stat(dest); err == nil {
			fmt.Fprintf(out, "skip %s (exists)\n", f.Filename)
			continue
		}
		n, err := fetchFile(ctx, client, f.URL, dest)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", f.Filename, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d KB)\n", f.Filename, n/1024)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(files))
	}
	return nil
}

// fetchFile writes url to dest through a temp file so an interrupted
// download never leaves a partial file behind.
func fetchFile(ctx context.Context, client *http.Client, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "healthrag/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, err
	}
	return n, nil
}
