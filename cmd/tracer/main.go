// Command tracer is the CLI entry point for the light transport engine,
// grounded on the teacher's main.go (flag parsing, scene selection, render
// loop, PNG output) but rebuilt on cobra/pflag per SPEC_FULL.md's ambient
// CLI stack, with engineconfig carrying every flag instead of the
// teacher's bare Config struct.
package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lumenray/tracer/pkg/device"
	"github.com/lumenray/tracer/pkg/engineconfig"
	"github.com/lumenray/tracer/pkg/integrator"
	"github.com/lumenray/tracer/pkg/renderer"
	"github.com/lumenray/tracer/pkg/rlog"
)

// SceneProvider builds the capability collaborators a render needs from
// the resolved config. Scene I/O, the BVH, and concrete BSDF models live
// outside this module (see pkg/capability's package doc); a build that
// links in a scene loader replaces this with one that does. The default
// here only reports that no scene is wired in, so the CLI stays runnable
// end-to-end (flags, validation, device listing) without one.
var SceneProvider = func(cfg engineconfig.EngineConfig) (integrator.Collaborators, error) {
	return integrator.Collaborators{}, errors.New("tracer: no scene provider registered; link one against pkg/capability")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := engineconfig.Default()
	var verbose bool
	var configFile string
	var mode string

	root := &cobra.Command{
		Use:           "tracer",
		Short:         "Unbiased physically-based Monte-Carlo renderer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&cfg.NoWindow, "nowindow", cfg.NoWindow, "disable the interactive preview window")
	flags.BoolVar(&cfg.CPUFrameBuffer, "cpu-fb", cfg.CPUFrameBuffer, "accumulate the frame buffer on the CPU")
	flags.BoolVar(&cfg.EnableMLT, "enable-mlt", cfg.EnableMLT, "enable multiplexed Metropolis light transport")
	flags.BoolVar(&cfg.EvalGBuffer, "evalgbuffer", cfg.EvalGBuffer, "evaluate the G-buffer pass")
	flags.BoolVar(&cfg.BoxMode, "boxmode", cfg.BoxMode, "run in headless batch (box) mode")
	flags.IntVar(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flags.IntVar(&cfg.CLDeviceID, "cl-device-id", cfg.CLDeviceID, "device index (shim: informational only)")
	flags.Float64Var(&cfg.SaveInterval, "save-interval", cfg.SaveInterval, "seconds between periodic saves (0 disables)")
	flags.IntVar(&cfg.Width, "width", cfg.Width, "image width")
	flags.IntVar(&cfg.Height, "height", cfg.Height, "image height")
	flags.IntVar(&cfg.MaxSamples, "max-samples", cfg.MaxSamples, "maximum samples per pixel")
	flags.IntVar(&cfg.ContribSamples, "contrib-samples", cfg.ContribSamples, "samples per pixel before enabling MLT")
	flags.StringVar(&cfg.InputLib, "input-lib", cfg.InputLib, "scene library path")
	flags.StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "render-state checkpoint path")
	flags.StringVar(&cfg.Out, "out", cfg.Out, "output image path")
	flags.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "directory for the log file (stderr if empty)")
	flags.BoolVar(&verbose, "verbose", false, "enable debug-level logging")
	flags.StringVar(&configFile, "config", "", "TOML config file (flags override it)")
	flags.StringVar(&mode, "mode", "pt", "transport mode: pt, lt, ibpt, or mmlt")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			// Fields not already set by an explicit flag fall back to the file;
			// flags parse before this hook runs, so the explicitly set ones are
			// recorded and re-applied after Load overwrites cfg.
			changed := map[string]string{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = f.Value.String() })
			if err := engineconfig.Load(configFile, &cfg); err != nil {
				return err
			}
			for name, val := range changed {
				if err := cmd.Flags().Set(name, val); err != nil {
					return err
				}
			}
		}
		return applyMode(&cfg, mode)
	}

	root.AddCommand(newRenderCmd(&cfg, &verbose))
	root.AddCommand(newListDevicesCmd(&cfg))
	root.AddCommand(newGBufferDumpCmd(&cfg, &verbose))

	return root
}

func newLogger(cfg engineconfig.EngineConfig, verbose bool) (*rlog.Logger, error) {
	if cfg.LogDir == "" {
		return rlog.New(os.Stderr, verbose), nil
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "tracer: create log dir")
	}
	return rlog.NewFile(filepath.Join(cfg.LogDir, "tracer.log"), verbose)
}

func newRenderCmd(cfg *engineconfig.EngineConfig, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render the configured scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(*cfg, *verbose)
			if err != nil {
				return err
			}
			log := logger.Zerolog()

			collaborators, err := SceneProvider(*cfg)
			if err != nil {
				return err
			}

			log.Info().
				Str("mode", modeName(cfg.Mode())).
				Int("width", cfg.Width).
				Int("height", cfg.Height).
				Int("maxSamples", cfg.MaxSamples).
				Msg("starting render")

			driver := integrator.NewDriver(collaborators, *cfg)
			progCfg := renderer.DefaultProgressiveConfig()
			progCfg.MaxSamplesPerPixel = cfg.MaxSamples
			pr := integrator.NewProgressiveRaytracer(driver, progCfg, logger)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			passChan, _, errChan := pr.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: false})
			var lastResult renderer.PassResult
			for pass := range passChan {
				lastResult = pass
				log.Info().
					Int("pass", pass.PassNumber).
					Float64("avgSamples", pass.Stats.AverageSamples).
					Msg("pass complete")
			}
			if err := <-errChan; err != nil {
				return errors.Wrap(err, "tracer: render")
			}

			if cfg.Out != "" && lastResult.Image != nil {
				if err := savePNG(cfg.Out, lastResult.Image); err != nil {
					return err
				}
				log.Info().Str("path", cfg.Out).Msg("saved render")
			}
			return nil
		},
	}
}

func newListDevicesCmd(cfg *engineconfig.EngineConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List the devices the render can dispatch to",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("device 0: cpu-shim (%d workers, dispatch block %d)\n",
				runtime.NumCPU(), device.DispatchBlockSize)
			return nil
		},
	}
}

func newGBufferDumpCmd(cfg *engineconfig.EngineConfig, verbose *bool) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "gbuffer-dump",
		Short: "Validate the config for a G-buffer pass; renders nothing and writes no images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.EvalGBuffer = true
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(*cfg, *verbose)
			if err != nil {
				return err
			}
			logger.Printf("gbuffer-dump: scene provider + evaluate-and-dump wiring is left to the caller that links a concrete scene\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "gbuffer_debug", "directory to write debug PNGs into")
	return cmd
}

// applyMode sets the mutually-exclusive integrator-selection fields
// Validate enforces, mirroring the teacher's --integrator flag (main.go's
// IntegratorType) but extended to the full PT/LT/IBPT/MMLT set.
func applyMode(cfg *engineconfig.EngineConfig, mode string) error {
	cfg.PathTracingEnabled = false
	cfg.LightTracingEnabled = false
	cfg.IBPTEnabled = false
	switch mode {
	case "pt":
		cfg.PathTracingEnabled = true
	case "lt":
		cfg.LightTracingEnabled = true
	case "ibpt":
		cfg.IBPTEnabled = true
	case "mmlt":
		cfg.EnableMLT = true
	default:
		return errors.Errorf("tracer: unknown --mode %q (want pt, lt, ibpt, or mmlt)", mode)
	}
	return nil
}

func modeName(m engineconfig.IntegratorMode) string {
	switch m {
	case engineconfig.ModePathTracing:
		return "pt"
	case engineconfig.ModeLightTracing:
		return "lt"
	case engineconfig.ModeIBPT:
		return "ibpt"
	case engineconfig.ModeMMLT:
		return "mmlt"
	default:
		return "unset"
	}
}

func savePNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "tracer: create %s", path)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return errors.Wrapf(err, "tracer: encode %s", path)
	}
	return nil
}
