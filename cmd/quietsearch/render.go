package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/glamour"

	"github.com/usestring/quietsearch/internal/pipeline"
	"github.com/usestring/quietsearch/pkg/types"
)

const wordWrap = 100

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeMarkdown renders markdown for the terminal. The dark flag selects the
// glamour style the same way dark_mode selects a theme in other renderers.
func writeMarkdown(w io.Writer, md string, dark bool) error {
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("rendering output: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func searchMarkdown(res *pipeline.SearchResult) string {
	var sb strings.Builder

	if res.Redirect != "" {
		fmt.Fprintf(&sb, "Bang shortcut: <%s>\n", res.Redirect)
		return sb.String()
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(res.Query))
	if f := describeFilters(res.Filters); f != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", f)
	}
	if len(res.Results) == 0 {
		sb.WriteString("No results.\n")
		return sb.String()
	}

	for _, rec := range res.Results {
		fmt.Fprintf(&sb, "%d. **[%s](%s)**  \n", res.Page.Start+rec.Rank+1, escapeMarkdown(rec.Title), rec.TargetURL)
		if rec.DisplayURL != "" {
			fmt.Fprintf(&sb, "   `%s`  \n", rec.DisplayURL)
		}
		if rec.Snippet != "" {
			fmt.Fprintf(&sb, "   %s  \n", escapeMarkdown(rec.Snippet))
		}
		if rec.ScriptFreeURL != "" {
			fmt.Fprintf(&sb, "   [script-free](%s)\n", rec.ScriptFreeURL)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func describeFilters(f types.FilterSet) string {
	var parts []string
	if f.TimeRange != types.TimeRangeNone {
		parts = append(parts, "past "+string(f.TimeRange))
	}
	if f.Region != "" {
		parts = append(parts, "region "+f.Region)
	}
	if f.Language != "" {
		parts = append(parts, "language "+f.Language)
	}
	return strings.Join(parts, ", ")
}

// pageMarkdown turns a sanitized page into readable markdown: headings,
// paragraphs and list items, in document order.
func pageMarkdown(doc *types.SanitizedDocument) (string, error) {
	page, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Body))
	if err != nil {
		return "", fmt.Errorf("parsing sanitized page: %w", err)
	}

	var sb strings.Builder
	title := doc.Title
	if title == "" {
		title = doc.FinalURL
	}
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))
	if doc.SiteName != "" {
		fmt.Fprintf(&sb, "_%s_ · <%s>\n\n", escapeMarkdown(doc.SiteName), doc.FinalURL)
	} else {
		fmt.Fprintf(&sb, "<%s>\n\n", doc.FinalURL)
	}
	if doc.Description != "" {
		fmt.Fprintf(&sb, "> %s\n\n", escapeMarkdown(doc.Description))
	}

	page.Find("body").Find("h1, h2, h3, h4, p, li, pre").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" || (goquery.NodeName(s) == "h1" && text == doc.Title) {
			return
		}
		switch goquery.NodeName(s) {
		case "h1", "h2":
			fmt.Fprintf(&sb, "## %s\n\n", escapeMarkdown(text))
		case "h3", "h4":
			fmt.Fprintf(&sb, "### %s\n\n", escapeMarkdown(text))
		case "li":
			fmt.Fprintf(&sb, "- %s\n", escapeMarkdown(text))
		case "pre":
			fmt.Fprintf(&sb, "```\n%s\n```\n\n", s.Text())
		default:
			fmt.Fprintf(&sb, "%s\n\n", escapeMarkdown(text))
		}
	})

	r := doc.Removed
	fmt.Fprintf(&sb, "\n---\nRemoved %d scripts, %d frames, %d event handlers, %d script links.\n",
		r.Scripts, r.Frames, r.EventHandlers, r.ScriptLinks)
	return sb.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
	"<", `\<`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
