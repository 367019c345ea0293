package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/usestring/quietsearch/internal/config"
	"github.com/usestring/quietsearch/pkg/types"
	"github.com/usestring/quietsearch/pkg/upstream"
)

type searchFlags struct {
	region    string
	language  string
	timeRange string
	noJS      bool
	dark      bool
	safe      bool
	alts      bool
	start     int
	vertical  string
	near      string
	asJSON    bool
}

func newSearchCmd(g *globalFlags) *cobra.Command {
	f := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search once and print the organic results",
		Example: `  quietsearch search golang generics
  quietsearch search "coronavirus updates :past hour" --region DE
  quietsearch search rust --time-range month --json
  quietsearch search "reddit golang" --alts --safe`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := f.selection(cmd)
			if err != nil {
				return err
			}

			cfg, engine, cleanup, err := g.engine()
			if err != nil {
				return err
			}
			defer cleanup()

			page := upstream.Page{Start: f.start, Vertical: f.vertical, Near: f.near}
			if page.Near == "" {
				page.Near = cfg.Near
			}

			res, err := engine.Search(cmd.Context(), strings.Join(args, " "), sel, page)
			if err != nil {
				return err
			}
			if f.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeMarkdown(cmd.OutOrStdout(), searchMarkdown(res), res.Filters.DarkMode)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.region, "region", "", "country code, e.g. DE or countryDE")
	flags.StringVar(&f.language, "language", "", "result language, e.g. en or lang_en")
	flags.StringVar(&f.timeRange, "time-range", "", "`hour/day/month/year`")
	flags.BoolVar(&f.noJS, "no-js", false, "add script-free viewer links")
	flags.BoolVar(&f.dark, "dark", false, "render for a dark terminal")
	flags.BoolVar(&f.safe, "safe", false, "ask the provider to hide explicit results")
	flags.BoolVar(&f.alts, "alts", false, "point links to known sites at privacy-friendly front ends")
	flags.IntVar(&f.start, "start", 0, "result offset (10 per page)")
	flags.StringVar(&f.vertical, "vertical", "", "provider vertical, e.g. nws")
	flags.StringVar(&f.near, "near", "", "city to localize results to")
	flags.BoolVar(&f.asJSON, "json", false, "print JSON instead of rendered markdown")
	return cmd
}

// selection maps the flags the user actually set onto a filter selection.
func (f *searchFlags) selection(cmd *cobra.Command) (types.FilterSelection, error) {
	var sel types.FilterSelection
	flags := cmd.Flags()

	if flags.Changed("region") {
		region, err := config.CanonicalRegion(f.region)
		if err != nil {
			return sel, err
		}
		sel.Region = &region
	}
	if flags.Changed("language") {
		lang, err := config.CanonicalLanguage(f.language)
		if err != nil {
			return sel, err
		}
		sel.Language = &lang
	}
	if flags.Changed("time-range") {
		tr, err := types.ParseTimeRange(f.timeRange)
		if err != nil {
			return sel, err
		}
		sel.TimeRange = &tr
	}
	if flags.Changed("no-js") {
		sel.NoJS = &f.noJS
	}
	if flags.Changed("dark") {
		sel.DarkMode = &f.dark
	}
	if flags.Changed("safe") {
		sel.SafeSearch = &f.safe
	}
	if flags.Changed("alts") {
		sel.SiteAlternatives = &f.alts
	}
	return sel, nil
}
