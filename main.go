package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/integrii/flaggy"
	"golang.org/x/sync/errgroup"

	"github.com/olivier-w/specview/internal/analysis"
	"github.com/olivier-w/specview/internal/audio"
	"github.com/olivier-w/specview/internal/config"
	"github.com/olivier-w/specview/internal/media"
	"github.com/olivier-w/specview/internal/ring"
	"github.com/olivier-w/specview/internal/spectrogram"
	"github.com/olivier-w/specview/internal/ui"
	"github.com/olivier-w/specview/internal/util"
)

const (
	AppName = "specview"
	AppDesc = "scrolling spectrogram of an audio file in the terminal"
)

var version = "dev"

type options struct {
	configPath string
	logPath    string
	demo       bool
	mute       bool
	history    int
	bins       int
	contrast   float64
	denoise    bool
	file       string

	renderFile   string
	renderOut    string
	renderWidth  int
	renderHeight int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := options{renderOut: "spectrogram.png", renderWidth: 1200, renderHeight: 400}
	renderCmd, err := parseFlags(&opts)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(opts.logPath)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	cfg, err := loadConfig(&opts)
	if err != nil {
		return err
	}
	logger.Info("config loaded", "path", opts.configPath, "history", cfg.History, "bins", cfg.Bins)

	if renderCmd.Used {
		return renderPNG(cfg, &opts, logger)
	}
	return view(cfg, &opts, logger)
}

func parseFlags(opts *options) (*flaggy.Subcommand, error) {
	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.Version = version

	renderCmd := flaggy.Subcommand{
		Name:        "render",
		ShortName:   "r",
		Description: "write the spectrogram of a whole file to a PNG",
	}
	renderCmd.AddPositionalValue(&opts.renderFile, "file", 1, true, "audio file to render")
	renderCmd.String(&opts.renderOut, "o", "out", "output PNG path")
	renderCmd.Int(&opts.renderWidth, "W", "width", "image width in pixels")
	renderCmd.Int(&opts.renderHeight, "H", "height", "image height in pixels")
	parser.AttachSubcommand(&renderCmd, 1)

	parser.AddPositionalValue(&opts.file, "file", 1, false, "audio file (.mp3, .wav, .flac, .ogg)")
	parser.String(&opts.configPath, "c", "config", "YAML config file")
	parser.String(&opts.logPath, "l", "log", "write logs to this file")
	parser.Bool(&opts.demo, "d", "demo", "analyse a synthetic 20 Hz - 20 kHz sweep")
	parser.Bool(&opts.mute, "m", "mute", "analyse without playing audio")
	parser.Int(&opts.history, "hi", "history", "columns of history")
	parser.Int(&opts.bins, "b", "bins", "rows per column")
	parser.Float64(&opts.contrast, "ct", "contrast", "palette contrast exponent")
	parser.Bool(&opts.denoise, "n", "denoise", "enable the denoise filter")

	if err := parser.Parse(); err != nil {
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}
	return &renderCmd, nil
}

func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if opts.history > 0 {
		cfg.History = opts.history
	}
	if opts.bins > 0 {
		cfg.Bins = opts.bins
	}
	if opts.contrast > 0 {
		cfg.Contrast = opts.contrast
	}
	if opts.denoise {
		cfg.Denoise = true
	}
	if err := config.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// openSource picks the demo sweep or decodes the file argument.
func openSource(opts *options) (audio.Decoder, audio.Metadata, func(), error) {
	if opts.demo {
		return audio.DemoSweep(), audio.Metadata{Title: "Demo sweep"}, func() {}, nil
	}
	if opts.file == "" {
		return nil, audio.Metadata{}, nil, fmt.Errorf("no input file (use --demo for a test sweep)")
	}
	if err := media.CheckFile(opts.file); err != nil {
		return nil, audio.Metadata{}, nil, err
	}
	f, err := audio.Open(opts.file)
	if err != nil {
		return nil, audio.Metadata{}, nil, err
	}
	return f, audio.ReadMetadata(opts.file), func() { f.Close() }, nil
}

func view(cfg *config.Config, opts *options, logger *slog.Logger) error {
	dec, meta, closeSrc, err := openSource(opts)
	if err != nil {
		return err
	}
	defer closeSrc()

	ac, err := cfg.Analysis(dec.SampleRate())
	if err != nil {
		return err
	}
	analyzer, err := analysis.NewAnalyzer(ac)
	if err != nil {
		return err
	}

	// two seconds of slack keeps windows available while the UI is busy
	tap := audio.NewTap(max(cfg.FFTSize*4, dec.SampleRate()*2), dec.ChannelCount())
	r := ring.New(cfg.History, cfg.Bins)
	feeder, err := analysis.NewFeeder(tap, analyzer, r, cfg.HopSize, logger)
	if err != nil {
		return err
	}

	transport, err := openTransport(dec, tap, opts.mute, logger)
	if err != nil {
		return err
	}
	defer transport.Close()

	model, err := ui.New(ui.Options{
		Config:    *cfg,
		Ring:      r,
		Analysis:  ac,
		Transport: transport,
		Metadata:  meta,
		Duration:  audio.Duration(dec),
		ExportDir: ".",
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := feeder.Run(gctx)
		if err != nil {
			program.Quit()
		}
		return err
	})

	_, runErr := program.Run()
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return runErr
}

// openTransport plays through the audio device, falling back to a silent
// pump when no device can be opened.
func openTransport(dec audio.Decoder, tap *audio.Tap, mute bool, logger *slog.Logger) (audio.Transport, error) {
	if mute {
		return audio.NewPump(dec, tap), nil
	}
	p, err := audio.NewPlayer(dec, tap)
	if err != nil {
		logger.Warn("audio output unavailable, continuing muted", "err", err)
		return audio.NewPump(dec, tap), nil
	}
	return p, nil
}

func renderPNG(cfg *config.Config, opts *options, logger *slog.Logger) error {
	if err := media.CheckFile(opts.renderFile); err != nil {
		return err
	}
	if opts.renderWidth <= 0 || opts.renderHeight <= 0 {
		return fmt.Errorf("image size must be positive, got %dx%d", opts.renderWidth, opts.renderHeight)
	}

	f, err := audio.Open(opts.renderFile)
	if err != nil {
		return err
	}
	defer f.Close()

	pcm, err := audio.ReadMono(f)
	if err != nil {
		return err
	}
	ac, err := cfg.Analysis(f.SampleRate())
	if err != nil {
		return err
	}
	analyzer, err := analysis.NewAnalyzer(ac)
	if err != nil {
		return err
	}

	r := ring.New(max(len(pcm)/cfg.HopSize, 1), cfg.Bins)
	columns, err := analysis.RunOffline(analyzer, r, pcm, cfg.HopSize)
	if err != nil {
		return err
	}

	palette, err := cfg.BuildPalette()
	if err != nil {
		return err
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return err
	}
	regime, err := config.ParseRegime(cfg.Regime)
	if err != nil {
		return err
	}

	var snap ring.Snapshot
	r.SnapshotInto(&snap)
	img := spectrogram.NewImage(opts.renderWidth, opts.renderHeight)
	v := spectrogram.ViewState{
		YMin:       0,
		YMax:       1,
		Contrast:   cfg.Contrast,
		Background: bg,
		Palette:    palette,
		Denoise:    cfg.Denoise,
		Regime:     regime,
	}
	if err := spectrogram.Render(context.Background(), &snap, v, img); err != nil {
		return err
	}
	if err := util.WritePNG(opts.renderOut, img); err != nil {
		return err
	}

	logger.Info("frame exported", "path", opts.renderOut, "columns", columns)
	fmt.Printf("Wrote %s (%dx%d, %d columns)\n", opts.renderOut, opts.renderWidth, opts.renderHeight, columns)
	return nil
}
