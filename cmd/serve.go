package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Bitlatte/postbook/internal/watch"
)

var (
	serverPort int
	debounce   time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the site locally and watches for changes",
	Long: `The serve command performs an initial build of your site, then starts a local
web server to serve your output directory. It also watches your content, layouts,
and static directories and the about document for changes and automatically
rebuilds the site.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := newIndex(appConfig, logger)
		if err != nil {
			return err
		}

		logger.Info("Performing initial build")
		if _, err := runBuildProcess(appConfig, idx, siteData); err != nil {
			return fmt.Errorf("initial build failed, fix the issues and try again: %w", err)
		}

		paths := []string{appConfig.ContentDir, appConfig.LayoutsDir, appConfig.StaticDir}
		if appConfig.AboutFile != "" {
			paths = append(paths, appConfig.AboutFile)
		}
		w, err := watch.New(watch.Options{Paths: paths, Debounce: debounce, Logger: logger}, func() error {
			idx.Invalidate()
			_, err := runBuildProcess(appConfig, idx, siteData)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watchErr := make(chan error, 1)
		go func() { watchErr <- w.Run(ctx) }()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", serverPort),
			Handler:           previewHandler(appConfig.OutputDir),
			ReadHeaderTimeout: 10 * time.Second,
		}
		serveErr := make(chan error, 1)
		go func() {
			logger.Info("Serving site",
				zap.String("outputDir", appConfig.OutputDir),
				zap.String("url", fmt.Sprintf("http://localhost:%d", serverPort)))
			serveErr <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
		case err := <-serveErr:
			stop()
			<-watchErr
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
		if werr := <-watchErr; werr != nil {
			logger.Warn("Closing watcher failed", zap.Error(werr))
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// previewHandler serves dir without directory listings and with caching
// disabled, so a reload always shows the latest build.
func previewHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") && r.URL.Path != "/" {
			clean := filepath.FromSlash(path.Clean(r.URL.Path))
			if _, err := os.Stat(filepath.Join(dir, clean, "index.html")); err != nil {
				http.NotFound(w, r)
				return
			}
		}
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		files.ServeHTTP(w, r)
	})
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 1313, "Port to serve the site on")
	serveCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period after a change before rebuilding")
	rootCmd.AddCommand(serveCmd)
}
