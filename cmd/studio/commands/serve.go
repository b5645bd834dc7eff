package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/livetemplate/studio/internal/logging"
	"github.com/livetemplate/studio/internal/publish"
	"github.com/livetemplate/studio/internal/server"
)

const shutdownTimeout = 10 * time.Second

// ServeCommand implements the serve command.
func ServeCommand(args []string) error {
	f := parseCommon(args)

	var port, host, watchDir string
	var debug bool
	for i := 0; i < len(f.rest); i++ {
		arg := f.rest[i]
		switch {
		case arg == "--port" || arg == "-p":
			if i+1 < len(f.rest) {
				port = f.rest[i+1]
				i++
			}
		case arg == "--host":
			if i+1 < len(f.rest) {
				host = f.rest[i+1]
				i++
			}
		case arg == "--watch" || arg == "-w":
			if i+1 < len(f.rest) {
				watchDir = f.rest[i+1]
				i++
			}
		case arg == "--debug":
			debug = true
		case !strings.HasPrefix(arg, "-"):
			return fmt.Errorf("directory does not exist: %s", arg)
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	cfg, absDir, err := loadConfig(f)
	if err != nil {
		return err
	}

	// CLI flags override config
	if port != "" {
		portInt, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port: %s", port)
		}
		cfg.Server.Port = portInt
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if watchDir != "" {
		cfg.Import.WatchDir = resolve(absDir, watchDir)
	}
	if debug {
		cfg.Server.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Debug:      cfg.Server.Debug,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws, st, err := openWorkspace(ctx, cfg, f.memory)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(cfg, ws, publish.New(st, cfg.Publish.BaseURL), server.WithLogger(logger))
	defer srv.Close()

	title := color.New(color.FgMagenta, color.Bold)
	title.Printf("🎨 Studio\n\n")
	fmt.Printf("Serving: %s\n", absDir)
	fmt.Printf("Project: %s\n", cfg.Storage.Project)
	if f.memory {
		color.Yellow("Storage: in-memory (changes are not saved)")
	} else {
		fmt.Printf("Storage: %s\n", cfg.Storage.Driver)
	}

	if cfg.Import.WatchDir != "" {
		if err := srv.EnableWatch(cfg.Import.WatchDir); err != nil {
			return fmt.Errorf("failed to enable watch mode: %w", err)
		}
		fmt.Printf("\n👀 Importing files dropped into %s\n", cfg.Import.WatchDir)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	fmt.Printf("\n🌐 Server running at %s\n", color.CyanString("http://%s", cfg.Server.Addr()))
	fmt.Printf("Press Ctrl+C to stop\n\n")
	logger.Info("server started", zap.String("addr", cfg.Server.Addr()), zap.String("project", cfg.Storage.Project))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
