package cli

import (
	"fmt"
	"io"

	"checkdocs/pkg/models"
	"checkdocs/pkg/services"

	"github.com/spf13/cobra"
)

func NewListCommand(root *RootOptions) *cobra.Command {
	var query services.Query

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List check pages with their manifest state",
		Long: `List every check page and every manifest row.

Pages without a manifest row are reported as orphans, rows whose page is
gone as missing. --query matches id, titles, script and file name, ignoring
case and accents; every term must match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(root, cmd, query)
		},
	}

	cmd.Flags().StringVarP(&query.Text, "query", "q", "", "search terms")
	cmd.Flags().StringSliceVar(&query.Levels, "level", nil, "level families to keep (fatal, error, warning, info)")
	return cmd
}

func runList(root *RootOptions, cmd *cobra.Command, query services.Query) error {
	f := root.formatter(cmd)
	cat, err := openCatalog(root.cfg, root.log)
	if err != nil {
		return f.Fail(err)
	}
	items, err := cat.index.Items()
	if err != nil {
		return f.Fail(err)
	}
	items = services.Filter(items, query)
	if items == nil {
		items = []models.IndexItem{}
	}

	return f.Success(items, func(w io.Writer) {
		for _, item := range items {
			id, level, title := "", "", ""
			if item.Entry != nil {
				id, level, title = item.Entry.ID, item.Entry.Level, item.Entry.TitleFr
			}
			dirty := " "
			if item.IsDirty {
				dirty = "*"
			}
			fmt.Fprintf(w, "%-7s %s %-32s %-14s %-12s %s\n", itemState(item), dirty, item.File, id, level, title)
		}
		fmt.Fprintf(w, "%d check(s)\n", len(items))
	})
}

func itemState(item models.IndexItem) string {
	switch {
	case item.Missing():
		return "missing"
	case item.Orphan():
		return "orphan"
	}
	return "ok"
}

func NewShowCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Show the manifest row and page fields of a check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(root, cmd, args[0])
		},
	}
}

func runShow(root *RootOptions, cmd *cobra.Command, file string) error {
	f := root.formatter(cmd)
	cat, err := openCatalog(root.cfg, root.log)
	if err != nil {
		return f.Fail(err)
	}
	form, err := cat.engine.Load(file)
	if err != nil {
		return f.Fail(err)
	}

	return f.Success(form, func(w io.Writer) {
		fields := form.Fields
		rows := [][2]string{
			{"file", form.File},
			{"id", fields.ID},
			{"level", fields.Level},
			{"script", fields.Script},
			{"title_fr", fields.TitleFr},
			{"title_en", fields.TitleEn},
			{"explanation_fr", fields.ExplanationFr},
			{"explanation_en", fields.ExplanationEn},
			{"resolution_fr", fields.ResolutionFr},
			{"resolution_en", fields.ResolutionEn},
		}
		for _, row := range rows {
			fmt.Fprintf(w, "%-15s %s\n", row[0]+":", row[1])
		}
		switch {
		case !form.Exists:
			fmt.Fprintln(w, "page missing from the checks directory")
		case !form.HasEntry:
			fmt.Fprintln(w, "page has no manifest row (run adopt)")
		}
	})
}
