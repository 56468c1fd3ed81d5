package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dineshpithiya/cdk-workshop/internal/config"
	"github.com/dineshpithiya/cdk-workshop/internal/stack"
)

// newWatchCmd creates the "watch" subcommand for re-synthesizing on changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		debounce     time.Duration
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesize on config or asset changes",
		Long: `Watch monitors the config file and every asset directory and
re-synthesizes the template when they change.

Rapid changes are debounced to avoid excessive rebuilds.

Examples:
    cdk-workshop watch
    cdk-workshop watch --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if outputFormat == "" {
				outputFormat = a.cfg.Format
			}
			return runWatch(a, watchOptions{
				configPath:   opts.configPath,
				debounce:     debounce,
				outputFormat: outputFormat,
			}, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json or yaml (default from config)")

	return cmd
}

type watchOptions struct {
	configPath   string
	debounce     time.Duration
	outputFormat string
}

// watchPlan is the set of locations whose changes trigger a rebuild.
type watchPlan struct {
	// configFile is empty when the configuration came from the environment.
	configFile string
	configDir  string
	assetDirs  []string
	outDir     string
}

// runWatch monitors the inputs of the stack and re-synthesizes on changes.
func runWatch(a *app, opts watchOptions, stderr io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	plan, err := newWatchPlan(a, opts.configPath)
	if err != nil {
		return err
	}
	if err := plan.add(watcher, a); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	a = rebuild(a, opts, false, stderr)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)
	configChanged := false

	a.log.Info().Msg("watching for changes (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			trigger, isConfig := plan.classify(event)
			if !trigger {
				continue
			}
			configChanged = configChanged || isConfig

			// Debounce: reset timer on each change
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			a.log.Info().Bool("config", configChanged).Msg("change detected, re-synthesizing")
			a = rebuild(a, opts, configChanged, stderr)
			if configChanged {
				if next, err := newWatchPlan(a, opts.configPath); err == nil {
					plan = next
					if err := plan.add(watcher, a); err != nil {
						a.log.Warn().Err(err).Msg("watch error")
					}
				}
			}
			configChanged = false

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Warn().Err(err).Msg("watch error")

		case <-sigChan:
			a.log.Info().Msg("stopping watch")
			return nil
		}
	}
}

// newWatchPlan resolves the config file and every existing asset directory
// to absolute paths.
func newWatchPlan(a *app, configPath string) (watchPlan, error) {
	var plan watchPlan

	outDir, err := filepath.Abs(a.cfg.OutDir)
	if err != nil {
		return plan, err
	}
	plan.outDir = outDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			abs, err := filepath.Abs(configPath)
			if err != nil {
				return plan, err
			}
			plan.configFile = abs
			plan.configDir = filepath.Dir(abs)
		}
	}

	seen := make(map[string]bool)
	for _, src := range stack.AssetSources(a.cfg) {
		abs, err := filepath.Abs(src.Dir)
		if err != nil || seen[abs] {
			continue
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}
		seen[abs] = true
		plan.assetDirs = append(plan.assetDirs, abs)
	}
	return plan, nil
}

// add registers the config directory (not recursively) and every asset
// directory tree with the watcher.
func (p watchPlan) add(watcher *fsnotify.Watcher, a *app) error {
	if p.configDir != "" {
		if err := watcher.Add(p.configDir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p.configDir, err)
		}
		a.log.Info().Str("dir", p.configDir).Msg("watching config")
	}
	for _, dir := range p.assetDirs {
		if err := addDirRecursive(watcher, dir, p.outDir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		a.log.Info().Str("dir", dir).Msg("watching")
	}
	return nil
}

// classify reports whether event should trigger a rebuild and whether it
// touched the configuration.
func (p watchPlan) classify(event fsnotify.Event) (trigger, configChanged bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false, false
	}
	if within(event.Name, p.outDir) {
		return false, false
	}
	if p.configFile != "" && event.Name == p.configFile {
		return true, true
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false, false
	}
	for _, dir := range p.assetDirs {
		if within(event.Name, dir) {
			return true, false
		}
	}
	return false, false
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// addDirRecursive adds a directory and all subdirectories to the watcher.
// Layer code lives under node_modules, so it is walked like any other
// directory of an asset.
func addDirRecursive(watcher *fsnotify.Watcher, dir, outDir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			if path == outDir {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// rebuild re-synthesizes and writes the template, logging the outcome.
// When reload is set the configuration is read again first; the returned
// app carries the configuration the rebuild used.
func rebuild(a *app, opts watchOptions, reload bool, stderr io.Writer) *app {
	if reload {
		cfg, err := config.LoadWithFallback(opts.configPath, true)
		if err != nil {
			a.log.Error().Err(err).Msg("config reload failed, keeping previous configuration")
		} else {
			next := *a
			next.cfg = cfg
			a = &next
		}
	}

	format := opts.outputFormat
	if format == "" {
		format = a.cfg.Format
	}

	syn, err := a.synthesize()
	if err != nil {
		_ = reportBuildFailure(err, stderr)
		a.log.Error().Msg("synth failed")
		return a
	}

	path, _, err := a.writeTemplate(syn.template, format)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to write template")
		return a
	}
	a.log.Info().Int("resources", len(syn.template.Resources)).Str("path", path).Msg("synthesized template")
	return a
}
