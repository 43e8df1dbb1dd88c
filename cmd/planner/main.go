// planner evaluates character builds and logs their resolved stats.
//
// Usage:
//
//	go run ./cmd/planner builds/marauder.yaml
//	go run ./cmd/planner -stat Life,Str -breakdown builds/marauder.yaml
//	go run ./cmd/planner -save builds/marauder.yaml
//	go run ./cmd/planner -stored
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/buildplanner/internal/build"
	"github.com/udisondev/buildplanner/internal/config"
	"github.com/udisondev/buildplanner/internal/data"
	"github.com/udisondev/buildplanner/internal/db"
	"github.com/udisondev/buildplanner/internal/env"
	"github.com/udisondev/buildplanner/internal/planner"
	"github.com/udisondev/buildplanner/internal/processor"
)

type options struct {
	stats     []string
	breakdown bool
	stored    bool
	save      bool
	files     []string
}

func main() {
	stats := flag.String("stat", strings.Join(planner.DefaultStats, ","), "comma-separated stats to report")
	breakdown := flag.Bool("breakdown", false, "list the mods behind every reported stat")
	stored := flag.Bool("stored", false, "evaluate every build in the database")
	save := flag.Bool("save", false, "store the given build files in the database")
	flag.Parse()

	opts := options{
		stats:     splitList(*stats),
		breakdown: *breakdown,
		stored:    *stored,
		save:      *save,
		files:     flag.Args(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("config loaded", "path", cfgPath, "accelerated", cfg.Accelerated, "workers", cfg.Workers, "storage", cfg.Database.Enabled())

	if len(opts.files) == 0 && !opts.stored {
		return fmt.Errorf("no build files given and -stored not set")
	}

	tree, err := data.LoadTree(cfg.TreePath)
	if err != nil {
		return fmt.Errorf("loading tree: %w", err)
	}

	var store planner.BuildStore
	if cfg.Database.Enabled() {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if _, err := database.Migrate(ctx); err != nil {
			return err
		}
		store = database.Builds()
	} else if opts.save || opts.stored {
		return fmt.Errorf("-save and -stored need database.host in %s", cfgPath)
	}

	orch := env.NewOrchestrator(processor.NewLineParserProvider(), processor.NewReference(), tree)
	svc := planner.NewService(orch, store, cfg)

	builds, err := readBuildFiles(opts.files)
	if err != nil {
		return err
	}

	envs, err := svc.EvaluateAll(ctx, builds)
	if err != nil {
		return err
	}
	if opts.stored {
		storedEnvs, err := svc.LoadAll(ctx)
		if err != nil {
			return err
		}
		maps.Copy(envs, storedEnvs)
	}

	if opts.save {
		for _, id := range slices.Sorted(maps.Keys(builds)) {
			if err := svc.Save(ctx, id); err != nil {
				return err
			}
			slog.Info("build saved", "build", id)
		}
	}

	for _, id := range slices.Sorted(maps.Keys(envs)) {
		report(id, envs[id], opts)
	}
	return nil
}

// readBuildFiles decodes YAML build files keyed by file name without
// extension.
func readBuildFiles(paths []string) (map[string]*build.Build, error) {
	builds := make(map[string]*build.Build, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading build %s: %w", path, err)
		}
		var b build.Build
		if err := yaml.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("parsing build %s: %w", path, err)
		}
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, dup := builds[id]; dup {
			return nil, fmt.Errorf("duplicate build id %q (%s)", id, path)
		}
		builds[id] = &b
	}
	return builds, nil
}

func report(id string, e *env.Environment, opts options) {
	attrs := e.Attributes()
	slog.Info("build",
		"build", id,
		"class", e.Build().Class,
		"version", e.Version(),
		"str", attrs.Str,
		"dex", attrs.Dex,
		"int", attrs.Int,
		"mods", e.PlayerDB().Count(),
	)
	for _, line := range planner.Stats(e, opts.stats...) {
		slog.Info("stat",
			"build", id,
			"name", line.Name,
			"value", line.Result.Value,
			"base", line.Result.Base,
			"inc", line.Result.Inc,
			"more", line.Result.More,
			"override", line.Result.HasOverride,
		)
		if !opts.breakdown {
			continue
		}
		for _, row := range planner.Breakdown(e, line.Name) {
			slog.Info("mod",
				"build", id,
				"stat", line.Name,
				"type", row.Mod.Type(),
				"value", row.Value,
				"source", row.Mod.Source(),
				"sourceID", row.Mod.SourceID(),
			)
		}
	}
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
