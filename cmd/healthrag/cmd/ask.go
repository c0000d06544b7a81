package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(g *globalOptions) *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question with citations",
		Long: `Retrieve the chunks nearest to the question and ask Claude to answer
from them alone, citing document, section and pages.

Requires ANTHROPIC_API_KEY.

Example:
  healthrag ask "How must providers support consumer choice?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Generator == nil {
				return errors.New("ANTHROPIC_API_KEY is required for ask")
			}

			question := strings.Join(args, " ")
			chunks, err := a.Retriever.Retrieve(cmd.Context(), question, topK)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(chunks) == 0 {
				fmt.Fprintln(out, "insufficient evidence: no relevant documents found")
				return nil
			}

			resp, err := a.Generator.Generate(cmd.Context(), question, chunks)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s\n\nSources:\n", resp.Answer)
			for i, c := range resp.Chunks {
				fmt.Fprintf(out, "  %d. %s\n", i+1, c.Citation())
			}
			fmt.Fprintf(out, "\n%s | %d in / %d out tokens | $%.4f | %dms\n",
				resp.Model, resp.InputTokens, resp.OutputTokens, resp.CostUSD(), resp.Latency.Milliseconds())
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of chunks to ground the answer on")

	return cmd
}
