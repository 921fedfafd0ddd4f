package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"DoodleBoard/internal/config"
	"DoodleBoard/internal/export"
	"DoodleBoard/internal/logging"
	"DoodleBoard/internal/session"
	"DoodleBoard/internal/storage"
	"DoodleBoard/internal/ui"
)

var log = logging.For("main")

const usage = `usage: doodleboard [flags] [command]

commands:
  (none)                 open the drawing window
  play <name>            replay a saved drawing
  export <name> <file>   write a saved drawing as .pdf or .png
  list                   list saved drawings
  delete <name>          remove a saved drawing
  watch [addr]           view a board shared on the network

flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "doodleboard:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, rest, err := config.Load(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(stderr, usage)
		}
		return err
	}

	logger, err := logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	logging.SetLogger(logger)

	cmd := ""
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	if cmd == "watch" {
		addr := ""
		if len(rest) > 0 {
			addr = rest[0]
		}
		return ui.RunWatch(cfg, addr)
	}

	store, err := storage.Open(cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing store failed", "err", err)
		}
	}()
	log.Info("storage opened", "type", cfg.Storage.Type, "path", cfg.Storage.Path)

	switch cmd {
	case "":
		return ui.Run(cfg, store)
	case "play":
		if len(rest) != 1 {
			return fmt.Errorf("play: expected a drawing name")
		}
		return ui.RunPlayback(cfg, store, rest[0])
	case "export":
		if len(rest) != 2 {
			return fmt.Errorf("export: expected a drawing name and an output file")
		}
		return exportSession(store, rest[0], rest[1])
	case "list":
		return list(store, stdout)
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("delete: expected a drawing name")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return store.Delete(ctx, rest[0])
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func exportSession(store storage.Store, name, out string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := storage.Sessions{Store: store}.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", name, session.Classify(err), err)
	}
	if err := export.File(out, s); err != nil {
		return err
	}
	log.Info("exported", "name", name, "file", out, "steps", len(s.Forward))
	return nil
}

func list(store storage.Store, stdout io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	entries, err := store.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Name, e.Size, e.Updated.Format(time.DateTime))
	}
	return tw.Flush()
}
