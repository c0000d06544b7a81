package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newIngestCmd(g *globalOptions) *cobra.Command {
	var (
		dir   string
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Parse, chunk, embed and store every document in a directory",
		Long: `Parse every supported document in --dir, split it into overlapping chunks
with page and section provenance, and store the chunks that are not already
in the vector store. Re-running over unchanged files stores nothing new.

Examples:
  healthrag ingest
  healthrag ingest --dir ./docs --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("directory %s does not exist. Run 'healthrag download' first", dir)
			}

			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.IngestDir(cmd.Context(), dir, reset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %d documents: %d chunks (%d new, %d already stored)\n",
				res.Documents, res.Total, res.New, res.Skipped)
			fmt.Fprintf(out, "Collection %s holds %d chunks\n", a.Store.Name(), a.Store.Count())
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "data/raw", "Directory of source documents")
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the existing collection before ingesting")

	return cmd
}
