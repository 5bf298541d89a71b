package cli

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkdocs/pkg/handlers"
	"checkdocs/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewServeCommand(root *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API for the catalog",
		Long: `Serve the admin API and the read-only manifest.json.

Each browser session must request the workspace grant (POST /api/grant)
before it can read or change checks. Edits made on disk while the server runs
are picked up by a file watcher.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(root, cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

func runServe(root *RootOptions, cmd *cobra.Command, addr string) error {
	f := root.formatter(cmd)
	cfg, log := root.cfg, root.log
	if addr == "" {
		addr = cfg.Addr
	}

	cat, err := openCatalog(cfg, log)
	if err != nil {
		return f.Fail(err)
	}
	secret, err := sessionSecret(cfg.SessionSecret, log)
	if err != nil {
		return f.Fail(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := services.NewWatcher(cfg.ChecksPath(), cfg.ManifestFile(), cat.index.Invalidate, log)
	if err != nil {
		log.Warn("file watcher disabled", zap.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		log.Warn("file watcher disabled", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	if !root.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	api := handlers.NewAPI(cat.engine, cat.index, cfg.Settings(), log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.NewRouter(api, secret, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("admin server listening",
		zap.String("addr", addr),
		zap.String("checks_dir", cfg.ChecksPath()),
		zap.String("manifest", cfg.ManifestFile()))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server stopped", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sessionSecret returns the configured cookie key, or a random one that
// lasts as long as the process.
func sessionSecret(configured string, log *zap.Logger) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	log.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	return secret, nil
}
