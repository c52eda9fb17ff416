// Command rewind is an interactive shell around a rewind store: write
// namespaced values, travel the timeline with undo/redo, and watch change
// notifications arrive, all against an in-memory engine.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"

	"github.com/rewindkv/rewind/layer"
	"github.com/rewindkv/rewind/observability"
	"github.com/rewindkv/rewind/store"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to store config YAML file (optional)")
		observer   = flag.String("observer", "noop", "Engine event sink: noop, slog, or metrics")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg := store.DefaultConfig()
	if *configFile != "" {
		loaded, err := store.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	obs, err := observability.GetObserver(*observer)
	if err != nil {
		log.Fatalf("Failed to resolve observer: %v", err)
	}

	s, err := store.New(cfg, store.WithObserver(obs))
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}

	if err := repl(s); err != nil {
		log.Fatalf("REPL failed: %v", err)
	}
}

var (
	promptColor = color.New(color.FgGreen, color.Bold)
	timeColor   = color.New(color.FgCyan)
	errColor    = color.New(color.FgRed)
)

func repl(s *store.Store) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd())

	changed := false
	unsubscribe := s.Subscribe(func() { changed = true })
	defer unsubscribe()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			promptColor.Printf("rewind")
			timeColor.Printf("[%d/%d]", s.CurrentTime(), s.MaxTime())
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		changed = false
		if quit := run(s, fields[0], fields[1:]); quit {
			return nil
		}
		if changed && interactive {
			timeColor.Println("* state changed")
		}
	}
}

func run(s *store.Store, cmd string, args []string) (quit bool) {
	switch cmd {
	case "set":
		if len(args) < 3 {
			usage("set <namespace> <key> <value>")
			return
		}
		var value any
		raw := strings.Join(args[2:], " ")
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			errColor.Printf("bad value %q: %v\n", raw, err)
			return
		}
		s.Set(map[string]map[string]any{args[0]: {args[1]: value}})

	case "del":
		if len(args) != 2 {
			usage("del <namespace> <key>")
			return
		}
		s.Set(map[string]map[string]any{args[0]: {args[1]: layer.Tombstone}})

	case "get":
		printSnapshot(s.Get(args...))

	case "undo":
		printSnapshot(s.Undo())

	case "redo":
		printSnapshot(s.Redo())

	case "remove":
		if len(args) != 1 {
			usage("remove <namespace>")
			return
		}
		s.Remove(args[0])

	case "flush":
		s.Flush()

	case "prune":
		if len(args) != 1 {
			usage("prune <min-time>")
			return
		}
		minTime, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			errColor.Printf("bad time %q\n", args[0])
			return
		}
		s.Prune(minTime)

	case "time":
		fmt.Printf("current=%d max=%d\n", s.CurrentTime(), s.MaxTime())

	case "help":
		fmt.Println("commands: set del get undo redo remove flush prune time help quit")

	case "quit", "exit":
		return true

	default:
		errColor.Printf("unknown command %q (try help)\n", cmd)
	}
	return false
}

func printSnapshot(snap map[string]map[string]any) {
	if len(snap) == 0 {
		fmt.Println("{}")
		return
	}
	out, err := yaml.Marshal(snap)
	if err != nil {
		errColor.Printf("render failed: %v\n", err)
		return
	}
	fmt.Print(string(out))
}

func usage(form string) {
	errColor.Printf("usage: %s\n", form)
}
