package cli

import (
	"fmt"
	"io"
	"os"

	"checkdocs/pkg/services"

	"github.com/spf13/cobra"
)

type saveOptions struct {
	req         services.SaveRequest
	contentFile string
	dryRun      bool
}

func NewSaveCommand(root *RootOptions) *cobra.Command {
	opts := &saveOptions{}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a check page and its manifest row",
		Long: `Merge the given fields into an HTML page, write it to the checks directory
and record its manifest row.

With --original the command edits an existing check: fields and content not
given on the command line are taken from it, and a different --file renames
it. The old page is removed only after the manifest is saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(root, cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.req.File, "file", "", "target file name (sanitized, .html appended when missing)")
	f.StringVar(&opts.req.OriginalFile, "original", "", "file being edited")
	f.StringVar(&opts.req.ID, "id", "", "check identifier")
	f.StringVar(&opts.req.Level, "level", "", "level (default from settings)")
	f.StringVar(&opts.req.Script, "script", "", "associated script")
	f.StringVar(&opts.req.TitleFr, "title-fr", "", "French title")
	f.StringVar(&opts.req.TitleEn, "title-en", "", "English title")
	f.StringVar(&opts.req.ExplanationFr, "explanation-fr", "", "French explanation")
	f.StringVar(&opts.req.ExplanationEn, "explanation-en", "", "English explanation")
	f.StringVar(&opts.req.ResolutionFr, "resolution-fr", "", "French resolution")
	f.StringVar(&opts.req.ResolutionEn, "resolution-en", "", "English resolution")
	f.StringVar(&opts.contentFile, "content-file", "", "HTML content to save, - for stdin (default: the page being edited)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the diff of the merged page without writing anything")

	return cmd
}

func runSave(root *RootOptions, cmd *cobra.Command, opts *saveOptions) error {
	f := root.formatter(cmd)

	var (
		cat *catalog
		err error
	)
	if opts.dryRun {
		cat, err = openCatalog(root.cfg, root.log)
	} else {
		cat, err = openForWrite(root.cfg, root.log)
	}
	if err != nil {
		return f.Fail(err)
	}

	req := opts.req
	if req.OriginalFile != "" {
		form, err := cat.engine.Load(req.OriginalFile)
		if err != nil {
			return f.Fail(err)
		}
		fillUnchanged(cmd, &req, form.Fields)
	}
	if opts.contentFile != "" {
		content, err := readContent(cmd, opts.contentFile)
		if err != nil {
			return f.Fail(err)
		}
		req.Content = content
	}

	if opts.dryRun {
		preview, err := cat.engine.Preview(req)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(preview, func(w io.Writer) {
			if preview.Diff == "" {
				fmt.Fprintf(w, "%s: no changes\n", preview.File)
				return
			}
			fmt.Fprint(w, preview.Diff)
		})
	}

	result, err := cat.engine.Save(req)
	if err != nil {
		return f.Fail(err)
	}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "saved %s\n", result.Entry.File)
		if result.Normalized {
			fmt.Fprintf(w, "file name normalized to %s\n", result.File)
		}
		if result.Renamed {
			fmt.Fprintf(w, "renamed from %s\n", req.OriginalFile)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
	})
}

// fillUnchanged copies the current values of an edited check into every
// field whose flag was not given.
func fillUnchanged(cmd *cobra.Command, req *services.SaveRequest, current services.SaveRequest) {
	fields := []struct {
		flag string
		dst  *string
		val  string
	}{
		{"file", &req.File, current.File},
		{"id", &req.ID, current.ID},
		{"level", &req.Level, current.Level},
		{"script", &req.Script, current.Script},
		{"title-fr", &req.TitleFr, current.TitleFr},
		{"title-en", &req.TitleEn, current.TitleEn},
		{"explanation-fr", &req.ExplanationFr, current.ExplanationFr},
		{"explanation-en", &req.ExplanationEn, current.ExplanationEn},
		{"resolution-fr", &req.ResolutionFr, current.ResolutionFr},
		{"resolution-en", &req.ResolutionEn, current.ResolutionEn},
	}
	for _, field := range fields {
		if !cmd.Flags().Changed(field.flag) {
			*field.dst = field.val
		}
	}
	req.Content = current.Content
}

func readContent(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", WrapExitError(ExitCommandError, "cannot read content", err)
	}
	return string(data), nil
}
