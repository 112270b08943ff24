package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Carmen-Shannon/oxy-harness/engine"
	"github.com/Carmen-Shannon/oxy-harness/engine/config"
	"github.com/Carmen-Shannon/oxy-harness/engine/logging"
	"github.com/Carmen-Shannon/oxy-harness/engine/shutdown"
)

// Version is set at build time via ldflags.
var Version = "dev"

// flags holds the command-line values; only flags the user set override the config file.
type flags struct {
	configPath    string
	width         int
	height        int
	title         string
	level         string
	mode          string
	backend       string
	texture       string
	fitTexture    bool
	frameBudget   time.Duration
	vsync         bool
	forceFallback bool
	profile       bool
}

// execute runs cmd with a debug logger on stderr until RunE installs the configured one,
// so flag, config and validation failures are still reported.
//
// Parameters:
//   - cmd: the root command
//   - stderr: destination for log output
//
// Returns:
//   - int: the process exit code
func execute(cmd *cobra.Command, stderr io.Writer) int {
	logging.SetLogger(logging.New(stderr, slog.LevelDebug))
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		logging.Fatal("harness failed", "error", err)
		return 1
	}
	return 0
}

// newRootCmd builds the root command. run receives the merged, validated configuration.
func newRootCmd(run func(cfg *config.Config) error) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "oxy-harness",
		Short: "Minimal WebGPU rendering harness",
		Long: `oxy-harness opens a window, creates a WebGPU device on a dedicated render
thread and draws a triangle or a textured quad every frame until the window
is closed or the process receives SIGINT/SIGTERM.

Example:
  oxy-harness --mode quad --texture ./logo.png
  oxy-harness --config harness.yaml --level info`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := config.Validate(cfg); err != nil {
				return err
			}

			level, _ := logging.ParseLevel(cfg.Level)
			logging.SetLogger(logging.New(cmd.ErrOrStderr(), level))

			return run(cfg)
		},
	}
	cmd.Version = Version
	cmd.SetVersionTemplate("oxy-harness version {{.Version}}\n")

	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "YAML or TOML configuration file")
	fs.IntVar(&f.width, "width", config.DefaultWidth, "Window width in pixels")
	fs.IntVar(&f.height, "height", config.DefaultHeight, "Window height in pixels")
	fs.StringVar(&f.title, "title", config.DefaultTitle, "Window title")
	fs.StringVar(&f.level, "level", config.DefaultLevel, "Log level: debug, info, warn, error, fatal")
	fs.StringVar(&f.mode, "mode", config.DefaultMode, "Scene: triangle or quad")
	fs.StringVar(&f.backend, "backend", config.DefaultBackend, "Renderer backend: wgpu or headless")
	fs.StringVar(&f.texture, "texture", "", "Image file or http(s) URL drawn by the quad scene")
	fs.BoolVar(&f.fitTexture, "fit", false, "Keep the texture aspect ratio when sizing the quad")
	fs.DurationVar(&f.frameBudget, "frame-budget", config.DefaultFrameBudget, "Target interval between frames")
	fs.BoolVar(&f.vsync, "vsync", false, "Present with vertical sync")
	fs.BoolVar(&f.forceFallback, "force-fallback", false, "Request a software adapter")
	fs.BoolVar(&f.profile, "profile", false, "Log FPS and memory statistics every second")

	return cmd
}

// apply copies every flag the user set onto cfg.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("width") {
		cfg.Width = f.width
	}
	if changed("height") {
		cfg.Height = f.height
	}
	if changed("title") {
		cfg.Title = f.title
	}
	if changed("level") {
		cfg.Level = f.level
	}
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("backend") {
		cfg.Backend = f.backend
	}
	if changed("texture") {
		cfg.Texture = f.texture
	}
	if changed("fit") {
		cfg.FitTexture = f.fitTexture
	}
	if changed("frame-budget") {
		cfg.FrameBudget = config.Duration(f.frameBudget)
	}
	if changed("vsync") {
		cfg.VSync = f.vsync
	}
	if changed("force-fallback") {
		cfg.ForceFallbackAdapter = f.forceFallback
	}
	if changed("profile") {
		cfg.Profile = f.profile
	}
}

// runHarness wires OS signals to a coordinator and runs the engine on the calling (main) thread.
func runHarness(cfg *config.Config) error {
	coordinator := shutdown.NewCoordinator()
	stop := shutdown.ListenForSignals(coordinator)
	defer stop()

	logging.Logger().Debug("starting harness",
		"mode", cfg.Mode,
		"backend", cfg.Backend,
		"width", cfg.Width,
		"height", cfg.Height,
		"pid", os.Getpid(),
	)

	e := engine.NewEngine(
		engine.WithConfig(cfg),
		engine.WithCoordinator(coordinator),
	)
	return e.Run()
}
