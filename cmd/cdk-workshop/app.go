package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/internal/api"
	"github.com/dineshpithiya/cdk-workshop/internal/asset"
	"github.com/dineshpithiya/cdk-workshop/internal/config"
	"github.com/dineshpithiya/cdk-workshop/internal/stack"
	"github.com/dineshpithiya/cdk-workshop/internal/template"
)

// app is the loaded configuration every command starts from.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	api *api.Definition
}

// synthesis is one stack build.
type synthesis struct {
	stack    *stack.Stack
	template *workshop.Template
	assets   map[string]asset.Asset
}

func (o *globalOptions) load(cmd *cobra.Command) (*app, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.LoadWithFallback(o.configPath, explicit)
	if err != nil {
		return nil, err
	}

	def, err := api.New(api.WorkshopConfig())
	if err != nil {
		return nil, fmt.Errorf("api definition: %w", err)
	}

	return &app{
		cfg: cfg,
		log: newLogger(cfg.Logging, o.logLevel, cmd.ErrOrStderr()),
		api: def,
	}, nil
}

// newLogger builds the root logger. Console format writes human-readable
// lines; json format writes one object per line.
func newLogger(lc config.LoggingConfig, override string, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(lc.Level)
	if override != "" {
		if l, perr := zerolog.ParseLevel(override); perr == nil {
			level, err = l, nil
		}
	}
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if lc.Format == "json" {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

// synthesize stages the assets and builds the template.
func (a *app) synthesize() (*synthesis, error) {
	assets, err := stack.PrepareAssets(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("preparing assets: %w", err)
	}

	st, err := stack.NewWorkshop(stack.Props{Config: a.cfg, API: a.api, Assets: assets})
	if err != nil {
		return nil, err
	}

	tmpl, err := st.Synthesize()
	if err != nil {
		return nil, err
	}

	return &synthesis{stack: st, template: tmpl, assets: assets}, nil
}

// templatePath is where synth writes the template of the configured stack.
func (a *app) templatePath(format string) string {
	return filepath.Join(a.cfg.OutDir, a.cfg.StackName+".template."+format)
}

func encodeTemplate(t *workshop.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(t)
	case "yaml":
		return template.ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// writeTemplate encodes t and writes it into the output directory.
func (a *app) writeTemplate(t *workshop.Template, format string) (string, []byte, error) {
	data, err := encodeTemplate(t, format)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(a.cfg.OutDir, 0o755); err != nil {
		return "", nil, err
	}
	path := a.templatePath(format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", nil, err
	}
	return path, data, nil
}
