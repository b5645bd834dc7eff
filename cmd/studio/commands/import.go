package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/livetemplate/studio/internal/importer"
	"github.com/livetemplate/studio/internal/workspace"
)

// ImportCommand replaces one workspace buffer with the content of a file.
func ImportCommand(args []string) error {
	f := parseCommon(args)

	var path, targetName string
	for i := 0; i < len(f.rest); i++ {
		arg := f.rest[i]
		switch {
		case arg == "--target" || arg == "-t":
			if i+1 < len(f.rest) {
				targetName = f.rest[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--target="):
			targetName = strings.TrimPrefix(arg, "--target=")
		case !strings.HasPrefix(arg, "-") && path == "":
			path = arg
		default:
			return fmt.Errorf("usage: studio import <file> [directory] [--target=html|css|js|favicon]")
		}
	}
	if path == "" {
		return fmt.Errorf("usage: studio import <file> [directory] [--target=html|css|js|favicon]")
	}

	var target workspace.Key
	var ok bool
	if targetName == "" {
		target, ok = importer.TargetForFile(path)
		if !ok {
			return fmt.Errorf("cannot infer import target for %s; pass --target", filepath.Base(path))
		}
	} else if target, ok = importer.ParseTarget(targetName); !ok {
		return fmt.Errorf("%w: %q", importer.ErrUnknownTarget, targetName)
	}

	cfg, _, err := loadConfig(f)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	ws, st, err := openWorkspace(ctx, cfg, f.memory)
	if err != nil {
		return err
	}
	defer st.Close()

	im := importer.New().WithMaxSize(cfg.Import.GetMaxSize())
	if err := im.Import(ctx, ws, target, filepath.Base(path), file); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "✅ Imported %s into %s\n", filepath.Base(path), target)
	return nil
}
