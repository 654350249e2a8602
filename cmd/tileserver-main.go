// Command tileserver-main is the ambient entrypoint wiring config,
// logging, style registration, and the HTTP surface together — the
// counterpart to the teacher's own cmd/ownmap-app-main.go, restructured
// around this server's Style Binding lifecycle instead of a single
// database connection set (spec.md §3).
package main

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"

	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ownmap/tileserver/config"
	"github.com/ownmap/tileserver/fontassembler"
	"github.com/ownmap/tileserver/mbglrender"
	"github.com/ownmap/tileserver/overlay"
	"github.com/ownmap/tileserver/render"
	"github.com/ownmap/tileserver/resolver"
	"github.com/ownmap/tileserver/styles"
	"github.com/ownmap/tileserver/webservices"
)

var logger *logpkg.Logger

func main() {
	setupServe()
	setupRegisterStyle()

	kingpin.Parse()
}

// noopFontAssembler is the fontassembler.Assembler this CLI wires by
// default: the .pbf font-range concatenator is an external collaborator
// out of scope for this module (spec.md §1), so a deployment without one
// configured gets an empty glyph range rather than a renderer crash.
type noopFontAssembler struct{}

func (noopFontAssembler) Assemble(ctx context.Context, fontstack, codepointRange string, allowedFonts []string) ([]byte, error) {
	return nil, nil
}

func setupServe() {
	cmd := kingpin.Command("serve", "serve the tile and static-map HTTP surface")
	cfgFile := cmd.Flag("config", "path to a TOML config file (all settings also available as TILESERVER_* env vars)").String()
	useFakeRenderer := cmd.Flag("fake-renderer", "use the deterministic flat-fill renderer instead of a real one, for local development").Default("true").Bool()
	shouldProfile := cmd.Flag("profile", "profile the server process").Bool()

	cmd.Action(func(ctx *kingpin.ParseContext) error {
		if *shouldProfile {
			defer profile.Start(profile.CPUProfile).Stop()
		}

		cfg, err := config.Load(*cfgFile)
		if err != nil {
			return err
		}

		logLevel := logpkg.LogLevelInfo
		if cfg.Verbose {
			logLevel = logpkg.LogLevelDebug
		}
		logger = logpkg.NewLogger(os.Stderr, logLevel)

		tracer, traceErr := buildTracer(cfg)
		if traceErr != nil {
			return traceErr
		}

		registry := styles.NewRegistry()
		defer registry.Close(context.Background())

		fontAssembler := fontassembler.Assembler(noopFontAssembler{})
		res := resolver.New(cfg.SpritesDir, fontAssembler, logger)

		var tileFactory, staticFactory mbglrender.Factory
		if *useFakeRenderer {
			tileFactory = mbglrender.NewFakeRendererFactory(color.RGBA{R: 220, G: 220, B: 220, A: 255})
			staticFactory = mbglrender.NewFakeRendererFactory(color.RGBA{R: 220, G: 220, B: 220, A: 255})
		} else {
			return errorsx.Errorf("a real renderer.Factory must be linked in by the deployment; --fake-renderer=false has no default (spec.md §1)")
		}

		regErr := registerStylesFromDir(context.Background(), cfg.StylesDir, registry, res, cfg.PublicURL, cfg.MaxScaleFactor, tileFactory, staticFactory)
		if regErr != nil {
			return errorsx.Wrap(regErr, "stylesDir", cfg.StylesDir)
		}
		logger.Info("registered %d style(s) from %q", len(registry.IDs()), cfg.StylesDir)

		pipeline := render.NewPipeline(render.Options{
			MaxSize: cfg.MaxSizePx,
			FormatQuality: render.FormatQuality{
				JPEG: cfg.FormatQualityJPEG,
				WebP: cfg.FormatQualityWebP,
			},
			IconOptions: overlay.IconOptions{
				AllowInlineMarkerImages: true,
				AllowRemoteMarkerIcons:  false,
				IconsDir:                cfg.SpritesDir,
			},
		})

		router := webservices.NewRouter(logger, tracer, registry, pipeline)

		server := httpextra.NewServerWithTimeouts()
		server.Addr = cfg.ListenAddr
		server.Handler = router

		logger.Info("about to start serving on %q", cfg.ListenAddr)
		return errorsx.Wrap(server.ListenAndServe())
	})
}

// buildTracer always returns a usable *tracing.Tracer: the render
// pipeline calls tracing.StartSpan unconditionally and that call panics
// without one (see webservices.NewRouter), so "tracing disabled" means
// "traces go to io.Discard", never "no tracer at all".
func buildTracer(cfg *config.ServerConfig) (*tracing.Tracer, errorsx.Error) {
	if !cfg.EnableTracing {
		return tracing.NewTracer(io.Discard), nil
	}

	if err := os.MkdirAll(cfg.TraceDir, 0o755); err != nil {
		return nil, errorsx.Wrap(err, "traceDir", cfg.TraceDir)
	}

	traceFile, err := os.OpenFile(fmt.Sprintf("%s/traces.pb", cfg.TraceDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errorsx.Wrap(err, "traceDir", cfg.TraceDir)
	}

	return tracing.NewTracer(traceFile), nil
}

// setupRegisterStyle registers "register-style", a one-shot operational
// check: runs the Style Loader against a style document and its sources
// sidecar exactly as `serve` would, reports success or the precise
// FatalConfig failure, then exits — useful in CI or before a deploy,
// without needing a running server process (styles.Registry state is
// in-process only, spec.md §3).
func setupRegisterStyle() {
	cmd := kingpin.Command("register-style", "validate that a style document and its sources register cleanly, then exit")
	styleJSONPath := cmd.Arg("style-file", "path to the style.json document").Required().String()
	spritesDir := cmd.Flag("sprites-dir", "sprites directory").Default("sprites").String()

	cmd.Action(func(ctx *kingpin.ParseContext) error {
		logger = logpkg.NewLogger(os.Stderr, logpkg.LogLevelDebug)

		doc, dataResolver, loadErr := loadStyleFile(*styleJSONPath)
		if loadErr != nil {
			return loadErr
		}

		res := resolver.New(*spritesDir, fontassembler.Assembler(noopFontAssembler{}), logger)
		fakeFactory := mbglrender.NewFakeRendererFactory(color.RGBA{A: 255})

		binding, regErr := styles.Register(context.Background(), styles.RegisterParams{
			ID:                    "register-style-check",
			Document:              doc,
			MaxScaleFactor:        1,
			DataResolver:          dataResolver,
			ArchiveOpener:         defaultArchiveOpener{},
			BuildFetch:            res.Bind,
			TileRendererFactory:   fakeFactory,
			StaticRendererFactory: fakeFactory,
		})
		if regErr != nil {
			return regErr
		}
		defer binding.Close(context.Background())

		logger.Info("style %q registered cleanly: %d source(s), zoom [%d,%d]",
			*styleJSONPath, len(binding.Sources), binding.TileJSON.MinZoom, binding.TileJSON.MaxZoom)
		return nil
	})
}
