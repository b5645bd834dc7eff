package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/livetemplate/studio/internal/publish"
)

// PublishCommand publishes the project, or lists earlier publications
// with --list.
func PublishCommand(args []string) error {
	f := parseCommon(args)

	var list bool
	for _, arg := range f.rest {
		switch arg {
		case "--list", "-l":
			list = true
		default:
			return fmt.Errorf("usage: studio publish [directory] [--list]")
		}
	}

	cfg, _, err := loadConfig(f)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, st, err := openWorkspace(ctx, cfg, f.memory)
	if err != nil {
		return err
	}
	defer st.Close()

	pub := publish.New(st, cfg.Publish.BaseURL)

	if list {
		pubs, err := pub.List(ctx, cfg.Storage.Project)
		if err != nil {
			return err
		}
		if len(pubs) == 0 {
			fmt.Fprintf(stdout, "No publications for %s\n", cfg.Storage.Project)
			return nil
		}
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPUBLISHED\tURL")
		for _, p := range pubs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"), p.URL)
		}
		return tw.Flush()
	}

	p, err := pub.Publish(ctx, cfg.Storage.Project)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "🚀 Published %s\n", cfg.Storage.Project)
	fmt.Fprintln(stdout, color.CyanString("%s", p.URL))
	return nil
}
