package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/livetemplate/studio/internal/config"
	"github.com/livetemplate/studio/internal/store"
	"github.com/livetemplate/studio/internal/workspace"
)

// defaultTimeout bounds one-shot CLI operations.
const defaultTimeout = 30 * time.Second

// stdout receives command output. Tests replace it.
var stdout io.Writer = os.Stdout

// commonFlags are accepted by every project command.
type commonFlags struct {
	dir        string
	configPath string
	project    string
	memory     bool
	rest       []string
}

// parseCommon consumes the shared flags and the optional directory
// argument. Unrecognized arguments are returned in rest.
func parseCommon(args []string) commonFlags {
	f := commonFlags{dir: "."}
	dirSet := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				f.configPath = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			f.configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--project":
			if i+1 < len(args) {
				f.project = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--project="):
			f.project = strings.TrimPrefix(arg, "--project=")
		case arg == "--memory":
			f.memory = true
		case !strings.HasPrefix(arg, "-") && !dirSet && isDir(arg):
			f.dir = arg
			dirSet = true
		default:
			f.rest = append(f.rest, arg)
		}
	}
	return f
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// loadConfig resolves configuration for the project in f.dir. Relative
// sqlite and inbox paths are anchored at that directory.
func loadConfig(f commonFlags) (*config.Config, string, error) {
	absDir, err := filepath.Abs(f.dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cfg *config.Config
	if f.configPath != "" {
		if err := config.LoadEnvFile(filepath.Join(absDir, ".env")); err != nil {
			return nil, "", err
		}
		if cfg, err = config.Load(f.configPath); err == nil {
			err = cfg.ApplyEnv()
		}
	} else {
		cfg, err = config.LoadFromDir(absDir)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	if f.project != "" {
		cfg.Storage.Project = f.project
	}
	if cfg.Storage.Driver == store.DriverSQLite {
		cfg.Storage.DSN = resolve(absDir, cfg.Storage.DSN)
	}
	if cfg.Import.WatchDir != "" {
		cfg.Import.WatchDir = resolve(absDir, cfg.Import.WatchDir)
	}
	return cfg, absDir, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// openWorkspace opens the configured store and loads the project.
func openWorkspace(ctx context.Context, cfg *config.Config, memory bool) (*workspace.Workspace, store.Store, error) {
	var st store.Store
	if memory {
		st = store.NewMemory()
	} else {
		sqlStore, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		st = sqlStore
	}

	ws, err := workspace.Load(ctx, st, cfg.Storage.Project, cfg.Defaults.Starter())
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return ws, st, nil
}
