package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
)

const previewLen = 200

type searchOptions struct {
	topK   int
	format string
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <question>",
		Short: "Show the stored chunks nearest to a question",
		Long: `Embed the question and print the nearest chunks with their citations,
without generating an answer.

Examples:
  healthrag search "falls prevention"
  healthrag search "restrictive practices" --top-k 3 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", opts.format)
			}

			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			chunks, err := a.Retriever.Retrieve(cmd.Context(), strings.Join(args, " "), opts.topK)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				return writeChunksJSON(out, chunks)
			}
			if len(chunks) == 0 {
				fmt.Fprintln(out, "insufficient evidence: no matching chunks")
				return nil
			}
			writeChunks(out, chunks)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 5, "Number of chunks to return")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func writeChunks(w io.Writer, chunks []document.RetrievedChunk) {
	for i, c := range chunks {
		fmt.Fprintf(w, "%d. %s (distance %.3f)\n", i+1, c.Citation(), c.Score)
		fmt.Fprintf(w, "   %s\n", preview(c.Text))
	}
}

type chunkJSON struct {
	ID          string   `json:"id"`
	Citation    string   `json:"citation"`
	Title       string   `json:"document_title"`
	Filename    string   `json:"document_filename"`
	PageNumbers []int    `json:"page_numbers"`
	Sections    []string `json:"sections"`
	Score       float64  `json:"score"`
	Text        string   `json:"text"`
}

func writeChunksJSON(w io.Writer, chunks []document.RetrievedChunk) error {
	out := make([]chunkJSON, len(chunks))
	for i, c := range chunks {
		out[i] = chunkJSON{
			ID:          c.ID,
			Citation:    c.Citation(),
			Title:       c.DocumentTitle,
			Filename:    c.DocumentFilename,
			PageNumbers: c.PageNumbers,
			Sections:    c.Sections,
			Score:       c.Score,
			Text:        c.Text,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// preview flattens whitespace and cuts text to previewLen runes.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= previewLen {
		return text
	}
	return string(r[:previewLen]) + "..."
}
