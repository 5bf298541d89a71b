package cli

import (
	"bytes"
	"fmt"
	"io"

	"checkdocs/pkg/services"

	"github.com/spf13/cobra"
)

func NewExportCommand(root *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the manifest as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(root, cmd, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func runExport(root *RootOptions, cmd *cobra.Command, out string) error {
	f := root.formatter(cmd)
	store := services.NewManifestStore(root.cfg.ManifestFile(), root.log)
	entries := store.Load().Entries

	if out == "" || out == "-" {
		if err := services.ExportCSV(cmd.OutOrStdout(), entries); err != nil {
			return f.Fail(err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := services.ExportCSV(&buf, entries); err != nil {
		return f.Fail(err)
	}
	if err := services.WriteFileAtomic(out, buf.Bytes()); err != nil {
		return f.Fail(err)
	}
	f.VerboseLog("exported %d row(s)", len(entries))
	return f.Success(map[string]any{"file": out, "rows": len(entries)}, func(w io.Writer) {
		fmt.Fprintf(w, "exported %d row(s) to %s\n", len(entries), out)
	})
}
