package main

import (
	"github.com/spf13/cobra"
)

func newViewCmd(g *globalFlags) *cobra.Command {
	var (
		asJSON bool
		dark   bool
	)

	cmd := &cobra.Command{
		Use:   "view <url>",
		Short: "Fetch a page with scripts removed",
		Long:  "Fetch a page with scripts, frames, event handlers and javascript: links removed. Provider redirect links (/url?q=...) are unwrapped first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, cleanup, err := g.engine()
			if err != nil {
				return err
			}
			defer cleanup()

			doc, err := engine.View(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			if !cmd.Flags().Changed("dark") {
				dark = cfg.Dark
			}
			md, err := pageMarkdown(doc)
			if err != nil {
				return err
			}
			return writeMarkdown(cmd.OutOrStdout(), md, dark)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the sanitized document as JSON")
	cmd.Flags().BoolVar(&dark, "dark", false, "render for a dark terminal")
	return cmd
}
