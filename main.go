package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/engine"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation steps per render frame")
	workers := flag.Int("workers", 0, "Worker goroutines for pass execution (0 = GOMAXPROCS)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	eng, err := engine.New(cfg, engine.Options{
		Workers:   *workers,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Seed:      *seed,
	})
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	eng.SpawnCells(cfg.Capacity.DefaultCellCount)

	if *headless {
		slog.Info("starting headless simulation",
			"seed", *seed,
			"max_frames", *maxFrames,
			"cells", cfg.Capacity.DefaultCellCount,
		)

		for {
			eng.Step(nil, mgl32.Vec3{})

			if *maxFrames > 0 && int(eng.Frame()) >= *maxFrames {
				slog.Info("max frames reached", "frame", eng.Frame())
				return
			}
		}
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Protocell")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	app := newApp(cfg, eng, *stepsPerUpdate)

	for !rl.WindowShouldClose() {
		app.update()
		app.draw()

		if *maxFrames > 0 && int(eng.Frame()) >= *maxFrames {
			break
		}
	}
}
