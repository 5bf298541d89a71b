package cli

import (
	"fmt"

	"checkdocs/pkg/config"
	"checkdocs/pkg/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands, and the configuration
// and logger built from them before a command runs.
type RootOptions struct {
	Root    string
	Verbose bool
	Format  string

	cfg *config.Config
	log *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "checkdocs",
		Short: "Keep a check-doc catalog and its manifest in sync",
		Long: `checkdocs maintains a catalog of bilingual check pages: a directory of
HTML pages and the manifest.json that indexes them. Every change goes through
the same pipeline, so pages and manifest rows are created, renamed and deleted
together.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "catalog root (default $CHECKDOCS_ROOT or the working directory)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewAdoptCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

func (o *RootOptions) setup() error {
	if o.log == nil {
		log, err := logging.New(o.Verbose)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot build logger", err)
		}
		o.log = log
	}
	cfg, err := config.Load(o.Root, o.log)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot load configuration", err)
	}
	o.cfg = cfg
	o.log.Debug("configuration loaded",
		zap.String("root", cfg.Root),
		zap.String("checks_dir", cfg.ChecksPath()),
		zap.String("manifest", cfg.ManifestFile()),
		zap.String("settings", cfg.SettingsFile))
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
