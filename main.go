package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"tab2md/internal/browser"
	"tab2md/internal/config"
	"tab2md/internal/extractor"
	"tab2md/internal/logger"
	"tab2md/internal/output"
	"tab2md/internal/pipeline"
	"tab2md/internal/strategy"
	"tab2md/internal/wintitle"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var version = "dev"

var (
	configPath     string
	endpoint       string
	outputDir      string
	maxNameLength  int
	outputFormat   string
	minWords       int
	connectTimeout time.Duration
	evalTimeout    time.Duration
	extractTimeout time.Duration
	noWindowTitles bool
	snapshotDir    string
	keepSnapshot   bool
	openResult     bool
	skipInstall    bool
	browserBin     string
	logLevel       string
	logFile        string
	strategyName   string
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.Faint)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		report(err)
	}
	os.Exit(pipeline.ExitCode(err))
}

func newRootCmd() *cobra.Command {
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:     "tab2md",
		Short:   "Save the browser tab you are looking at as Markdown",
		Version: version,
		Long: `tab2md connects to a browser started with remote debugging enabled,
finds the tab you are currently viewing and converts it to a clean Markdown
file. Site specific strategies repair markup of platforms whose editors emit
non-standard HTML before the conversion.`,
		Example: `  # Start the browser with a debugging port first
  msedge --remote-debugging-port=9222

  # Convert the active tab into ./exports
  tab2md

  # Show how every open tab was scored
  tab2md tabs

  # Keep the prepared snapshot and open the result
  tab2md --keep-snapshot --open -o notes`,
		Args:          cobra.NoArgs,
		RunE:          runConvert,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Config file (default tab2md.yaml when present)")
	pf.StringVarP(&endpoint, "endpoint", "e", defaults.Endpoint, "Remote debugging endpoint, a literal IPv4 loopback host:port")
	pf.DurationVar(&connectTimeout, "connect-timeout", defaults.ConnectTimeout, "Timeout for connecting to the browser")
	pf.DurationVar(&evalTimeout, "eval-timeout", defaults.EvalTimeout, "Timeout for each in-page state query")
	pf.BoolVar(&noWindowTitles, "no-window-titles", false, "Do not cross-check tabs against OS window titles")
	pf.StringVar(&browserBin, "browser-bin", "", "Browser executable for extraction (auto-detected when empty)")
	pf.StringVar(&logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotated file")

	f := rootCmd.Flags()
	f.StringVarP(&outputDir, "output-dir", "o", defaults.OutputDir, "Directory for converted files")
	f.IntVar(&maxNameLength, "max-name-length", defaults.MaxNameLength, "Maximum length of the generated file name")
	f.StringVarP(&outputFormat, "format", "f", defaults.Format, "Output format (markdown, json)")
	f.IntVar(&minWords, "min-words", 0, "Minimum words per content block (0 keeps the strategy default)")
	f.DurationVar(&extractTimeout, "extract-timeout", defaults.ExtractTimeout, "Timeout for the extraction engine")
	f.StringVar(&snapshotDir, "snapshot-dir", defaults.SnapshotDir, "Directory for the prepared snapshot")
	f.BoolVar(&keepSnapshot, "keep-snapshot", false, "Keep the prepared snapshot for inspection")
	f.BoolVar(&openResult, "open", false, "Open the result in the default viewer")
	f.BoolVar(&skipInstall, "skip-install", false, "Skip the browser engine install check")
	f.StringVarP(&strategyName, "strategy", "s", "", fmt.Sprintf("Force a strategy %v instead of matching the URL", strategy.Names()))

	rootCmd.AddCommand(newTabsCmd(), newInstallCmd())
	return rootCmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	bin := cfg.BrowserBin
	if !cfg.SkipInstall {
		path, err := browser.EnsureInstalled(log)
		if err != nil {
			log.Warn("browser engine check failed, assuming an existing installation", zap.Error(err))
		} else if bin == "" {
			bin = path
		}
	}

	p := newPipeline(cfg, log, extractor.NewEngine(bin, log))
	opts, err := runOptions(cfg, strategyName)
	if err != nil {
		return err
	}

	dimColor.Fprintf(os.Stderr, "Connecting to %s\n", opts.Endpoint)
	out, err := p.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	okColor.Fprint(os.Stderr, "✓ ")
	fmt.Fprintf(os.Stderr, "%s (%s)\n", out.Title, out.URL)
	fmt.Fprintf(os.Stderr, "  strategy: %s, selected by %s\n", out.Strategy, out.Reason)
	fmt.Fprintf(os.Stderr, "Output written to: %s\n", out.Path)
	return nil
}

// setup loads the layered configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// applyFlags overrides cfg with the flags set on the command line only, so
// file and environment values survive flag defaults.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	set := fs.Changed
	if set("endpoint") {
		cfg.Endpoint = endpoint
	}
	if set("output-dir") {
		cfg.OutputDir = outputDir
	}
	if set("max-name-length") {
		cfg.MaxNameLength = maxNameLength
	}
	if set("format") {
		cfg.Format = outputFormat
	}
	if set("min-words") {
		cfg.MinWordCount = minWords
	}
	if set("connect-timeout") {
		cfg.ConnectTimeout = connectTimeout
	}
	if set("eval-timeout") {
		cfg.EvalTimeout = evalTimeout
	}
	if set("extract-timeout") {
		cfg.ExtractTimeout = extractTimeout
	}
	if set("no-window-titles") {
		cfg.WindowTitles = !noWindowTitles
	}
	if set("snapshot-dir") {
		cfg.SnapshotDir = snapshotDir
	}
	if set("keep-snapshot") {
		cfg.KeepSnapshot = keepSnapshot
	}
	if set("open") {
		cfg.Open = openResult
	}
	if set("skip-install") {
		cfg.SkipInstall = skipInstall
	}
	if set("browser-bin") {
		cfg.BrowserBin = browserBin
	}
	if set("log-level") {
		cfg.LogLevel = logLevel
	}
	if set("log-file") {
		cfg.LogFile = logFile
	}
}

func newPipeline(cfg *config.Config, log *zap.Logger, ext extractor.Extractor) *pipeline.Pipeline {
	connector := &browser.CDPConnector{
		EvalTimeout:    cfg.EvalTimeout,
		CaptureTimeout: cfg.ExtractTimeout,
		Log:            log,
	}
	writer := output.NewWriter(cfg.OutputDir, cfg.MaxNameLength)
	return pipeline.New(connector, wintitle.NewSystemProbe(log), ext, writer, log)
}

func runOptions(cfg *config.Config, forced string) (pipeline.Options, error) {
	addr, err := config.ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return pipeline.Options{}, err
	}
	if forced != "" {
		if _, ok := strategy.Lookup(forced); !ok {
			return pipeline.Options{}, fmt.Errorf("unknown strategy %q (available: %v)", forced, strategy.Names())
		}
	}
	return pipeline.Options{
		Endpoint:       addr,
		ConnectTimeout: cfg.ConnectTimeout,
		ExtractTimeout: cfg.ExtractTimeout,
		WindowTitles:   cfg.WindowTitles,
		MinWordCount:   cfg.MinWordCount,
		Strategy:       forced,
		Format:         cfg.Format,
		SnapshotDir:    cfg.SnapshotDir,
		KeepSnapshot:   cfg.KeepSnapshot,
		Open:           cfg.Open,
	}, nil
}

// report is the single place where failures reach the user.
func report(err error) {
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		failColor.Fprint(os.Stderr, "✗ ")
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", pe.Stage, pe.Err)
		switch {
		case errors.Is(err, pipeline.ErrConnection):
			dimColor.Fprintln(os.Stderr, "  Is the browser running with --remote-debugging-port?")
		case errors.Is(err, pipeline.ErrNoContent):
			dimColor.Fprintln(os.Stderr, "  No open tab could be selected.")
		}
		return
	}
	failColor.Fprint(os.Stderr, "✗ ")
	fmt.Fprintf(os.Stderr, "%v\n", err)
}
