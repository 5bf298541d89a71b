package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func NewDeleteCommand(root *RootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "delete <file>",
		Short: "Delete a check page and its manifest row",
		Long: `Delete a check page, then its manifest row. When the page cannot be
removed the manifest is left untouched. Requires --yes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(root, cmd, args[0], confirmed)
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm the deletion")
	return cmd
}

func runDelete(root *RootOptions, cmd *cobra.Command, file string, confirmed bool) error {
	f := root.formatter(cmd)
	cat, err := openCatalog(root.cfg, root.log)
	if err != nil {
		return f.Fail(err)
	}
	// An unconfirmed delete is rejected by the engine before any grant is needed.
	if confirmed {
		if err := cat.grant(); err != nil {
			return f.Fail(err)
		}
	}
	if err := cat.engine.Delete(file, confirmed); err != nil {
		return f.Fail(err)
	}

	return f.Success(map[string]string{"file": file, "status": "deleted"}, func(w io.Writer) {
		fmt.Fprintf(w, "deleted %s\n", file)
	})
}

func NewAdoptCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "adopt <file>",
		Short: "Record a manifest row for an orphan check page",
		Long: `Build a manifest row from the fields embedded in a check page that has
none. A page that already has a row is left as it is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdopt(root, cmd, args[0])
		},
	}
}

func runAdopt(root *RootOptions, cmd *cobra.Command, file string) error {
	f := root.formatter(cmd)
	cat, err := openForWrite(root.cfg, root.log)
	if err != nil {
		return f.Fail(err)
	}
	entry, err := cat.engine.Adopt(file)
	if err != nil {
		return f.Fail(err)
	}

	return f.Success(entry, func(w io.Writer) {
		fmt.Fprintf(w, "adopted %s as %q (%s)\n", entry.File, entry.ID, entry.Level)
	})
}
