package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCmd(g *globalFlags) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "suggest <prefix...>",
		Short: "Complete a partial query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, cleanup, err := g.engine()
			if err != nil {
				return err
			}
			defer cleanup()

			if limit <= 0 {
				limit = cfg.DefaultSuggestLimit
			}
			out, err := engine.Suggest(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if out == nil {
					out = []string{}
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for _, s := range out {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "max suggestions (default: DEFAULT_SUGGEST_LIMIT)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	return cmd
}
