package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/livetemplate/studio/internal/export"
)

// ExportCommand writes the project as a zip archive.
func ExportCommand(args []string) error {
	f := parseCommon(args)

	var output string
	for i := 0; i < len(f.rest); i++ {
		arg := f.rest[i]
		switch {
		case arg == "--output" || arg == "-o":
			if i+1 < len(f.rest) {
				output = f.rest[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--output="):
			output = strings.TrimPrefix(arg, "--output=")
		default:
			return fmt.Errorf("usage: studio export [directory] [-o FILE]")
		}
	}

	cfg, absDir, err := loadConfig(f)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	ws, st, err := openWorkspace(ctx, cfg, f.memory)
	if err != nil {
		return err
	}
	defer st.Close()

	if output == "" {
		output = filepath.Join(absDir, export.Filename(cfg.Storage.Project))
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := export.WriteZip(file, ws.Snapshot()); err != nil {
		file.Close()
		os.Remove(output)
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "📦 Exported %s to %s\n", cfg.Storage.Project, output)
	return nil
}
