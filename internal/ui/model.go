// Package ui is the interactive spectrogram view.
package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/specview/internal/analysis"
	"github.com/olivier-w/specview/internal/audio"
	"github.com/olivier-w/specview/internal/config"
	"github.com/olivier-w/specview/internal/ring"
	"github.com/olivier-w/specview/internal/spectrogram"
	"github.com/olivier-w/specview/internal/termview"
	"github.com/olivier-w/specview/internal/util"
)

const (
	maxContrast  = 8.0
	contrastStep = 1.1
	panStep      = 0.1

	exportWidth  = 1280
	exportHeight = 720

	noticeTimeout = 5 * time.Second

	// frameTop is the screen row of the first spectrogram line.
	frameTop = 1
)

// Options wires a Model to the audio and analysis side.
type Options struct {
	Config    config.Config
	Ring      *ring.Ring
	Analysis  analysis.Config
	Transport audio.Transport
	Metadata  audio.Metadata
	Duration  time.Duration // 0 for endless sources
	ExportDir string
	Renderer  *termview.Renderer // nil detects the terminal
	Logger    *slog.Logger
}

// Model is the Bubbletea model for the specview TUI.
type Model struct {
	ring      *ring.Ring
	analysis  analysis.Config
	transport audio.Transport
	meta      audio.Metadata
	duration  time.Duration
	exportDir string
	logger    *slog.Logger
	fps       int

	snap       *ring.Snapshot
	lastPushes uint64
	clock      *spectrogram.ScrollClock
	img        *image.RGBA
	term       *termview.Renderer
	frame      string

	palette    *spectrogram.Palette
	background color.NRGBA
	contrast   float64
	denoise    bool
	regime     spectrogram.Regime

	// zoom is where the view is heading; shown follows it on a spring.
	zoom     spectrogram.Zoom
	shown    spectrogram.Zoom
	spring   harmonica.Spring
	levelVel float64
	panVel   float64

	// hover is set while the mouse is over the spectrogram; hoverY is its
	// position in the view, 0 = top.
	hover  bool
	hoverY float64

	keys     keyMap
	help     help.Model
	progress progress.Model
	spinner  spinner.Model

	width, height int
	elapsed       time.Duration
	paused        bool
	finished      bool
	exporting     bool
	quitting      bool
	notice        string
	noticeTime    time.Time
}

// New builds a model from opts.
func New(opts Options) (Model, error) {
	if opts.Ring == nil {
		return Model{}, fmt.Errorf("ui needs a ring")
	}
	palette, err := opts.Config.BuildPalette()
	if err != nil {
		return Model{}, err
	}
	bg, err := opts.Config.BackgroundColor()
	if err != nil {
		return Model{}, err
	}
	regime, err := config.ParseRegime(opts.Config.Regime)
	if err != nil {
		return Model{}, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	term := opts.Renderer
	if term == nil {
		term = termview.NewRenderer()
	}
	fps := max(opts.Config.FPS, 1)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ring:       opts.Ring,
		analysis:   opts.Analysis,
		transport:  opts.Transport,
		meta:       opts.Metadata,
		duration:   opts.Duration,
		exportDir:  opts.ExportDir,
		logger:     logger,
		fps:        fps,
		snap:       &ring.Snapshot{},
		clock:      spectrogram.NewScrollClock(nil),
		term:       term,
		palette:    palette,
		background: bg,
		contrast:   opts.Config.Contrast,
		denoise:    opts.Config.Denoise,
		regime:     regime,
		zoom:       spectrogram.NewZoom(),
		shown:      spectrogram.NewZoom(),
		spring:     harmonica.NewSpring(harmonica.FPS(fps), 7.0, 1.0),
		keys:       defaultKeys(),
		help:       help.New(),
		progress:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spinner:    s,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(m.fps),
		checkDone(m.transport),
		m.spinner.Tick,
		tea.SetWindowTitle(windowTitle(m.meta.Label(), false)),
	)
}

func checkDone(t audio.Transport) tea.Cmd {
	if t == nil {
		return nil
	}
	return func() tea.Msg {
		<-t.Done()
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case frameMsg:
		m.renderFrame()
		if m.notice != "" && time.Since(m.noticeTime) > noticeTimeout {
			m.notice = ""
		}
		return m, frameCmd(m.fps)

	case spinner.TickMsg:
		if !m.waiting() && !m.exporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case exportedMsg:
		m.exporting = false
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Export failed: %v", msg.err))
			m.logger.Error("frame export failed", "err", msg.err)
		} else {
			m.setNotice("Saved " + msg.path)
			m.logger.Info("frame exported", "path", msg.path)
		}
		return m, nil

	case playbackEndedMsg:
		m.finished = true
		m.logger.Info("playback finished", "title", m.meta.Label())
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.renderFrame()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.transport != nil {
			m.transport.Close()
		}
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case key.Matches(msg, m.keys.Pause):
		if m.transport == nil || m.finished {
			return m, nil
		}
		m.transport.TogglePause()
		m.paused = m.transport.Paused()
		return m, tea.SetWindowTitle(windowTitle(m.meta.Label(), m.paused))

	case key.Matches(msg, m.keys.ZoomIn):
		m.zoom.ZoomAt(0.5, spectrogram.ZoomStep)
	case key.Matches(msg, m.keys.ZoomOut):
		m.zoom.ZoomAt(0.5, 1/spectrogram.ZoomStep)
	case key.Matches(msg, m.keys.PanUp):
		m.zoom.Move(-panStep)
	case key.Matches(msg, m.keys.PanDown):
		m.zoom.Move(panStep)
	case key.Matches(msg, m.keys.ResetZoom):
		m.zoom.Reset()

	case key.Matches(msg, m.keys.ContrastUp):
		m.contrast = min(m.contrast*contrastStep, maxContrast)
	case key.Matches(msg, m.keys.ContrastDown):
		m.contrast = max(m.contrast/contrastStep, spectrogram.MinContrast)

	case key.Matches(msg, m.keys.Denoise):
		m.denoise = !m.denoise
	case key.Matches(msg, m.keys.Palette):
		next := spectrogram.PaletteStops
		if m.palette.Mode() == spectrogram.PaletteStops {
			next = spectrogram.PaletteGradient
		}
		m.palette = m.palette.WithMode(next)
	case key.Matches(msg, m.keys.Regime):
		if m.regime == spectrogram.RegimeExact {
			m.regime = spectrogram.RegimeBounded
		} else {
			m.regime = spectrogram.RegimeExact
		}

	case key.Matches(msg, m.keys.HistoryLess):
		return m.resizeHistory(m.ring.Descriptor().Capacity / 2)
	case key.Matches(msg, m.keys.HistoryMore):
		return m.resizeHistory(m.ring.Descriptor().Capacity * 2)

	case key.Matches(msg, m.keys.Export):
		if m.exporting {
			return m, nil
		}
		m.exporting = true
		m.setNotice("Exporting...")
		view := m.viewState()
		view.ScrollPhase = 0
		return m, tea.Batch(m.spinner.Tick, exportCmd(m.ring, view, m.exportDir, m.meta.Label()))

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	y, ok := m.viewY(msg.Y)
	m.hover, m.hoverY = ok, y
	if !ok {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.zoom.ZoomAt(y, spectrogram.ZoomStep)
	case tea.MouseButtonWheelDown:
		m.zoom.ZoomAt(y, 1/spectrogram.ZoomStep)
	}
	return m, nil
}

// viewY converts a screen row to a position in the view, measured at the
// centre of the row.
func (m *Model) viewY(screenRow int) (float64, bool) {
	_, rows := m.viewport()
	row := screenRow - frameTop
	if rows <= 0 || row < 0 || row >= rows {
		return 0, false
	}
	return (float64(row) + 0.5) / float64(rows), true
}

func (m Model) resizeHistory(capacity int) (tea.Model, tea.Cmd) {
	capacity = min(max(capacity, config.MinHistory), config.MaxHistory)
	d := m.ring.Descriptor()
	if capacity == d.Capacity {
		return m, nil
	}
	m.ring.Resize(capacity, d.Height)
	m.clock.Reset()
	m.logger.Info("ring resized", "capacity", capacity, "height", d.Height)
	m.setNotice(fmt.Sprintf("History %d columns", capacity))
	return m, m.spinner.Tick
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeTime = time.Now()
}

// exportCmd renders a full-size frame from its own snapshot so the live
// view can keep reusing its buffers.
func exportCmd(r *ring.Ring, view spectrogram.ViewState, dir, title string) tea.Cmd {
	return func() tea.Msg {
		var snap ring.Snapshot
		r.SnapshotInto(&snap)
		img := spectrogram.NewImage(exportWidth, exportHeight)
		if err := spectrogram.Render(context.Background(), &snap, view, img); err != nil {
			return exportedMsg{err: err}
		}
		path, err := util.SavePNG(dir, title, img)
		return exportedMsg{path: path, err: err}
	}
}

func (m *Model) waiting() bool {
	return m.snap.Desc.Empty()
}

func (m *Model) stepZoom() {
	m.shown.Level, m.levelVel = m.spring.Update(m.shown.Level, m.levelVel, m.zoom.Level)
	m.shown.Pan, m.panVel = m.spring.Update(m.shown.Pan, m.panVel, m.zoom.Pan)
}

func (m *Model) viewState() spectrogram.ViewState {
	lo, hi := m.shown.YRange()
	phase := m.clock.Phase()
	if m.paused || m.finished {
		phase = 0
	}
	return spectrogram.ViewState{
		YMin:        lo,
		YMax:        hi,
		ScrollPhase: phase,
		Contrast:    m.contrast,
		Background:  m.background,
		Palette:     m.palette,
		Denoise:     m.denoise,
		Regime:      m.regime,
	}
}

// viewport returns the spectrogram area in cells.
func (m *Model) viewport() (cols, rows int) {
	chrome := 3 + lipgloss.Height(m.help.View(m.keys))
	return m.width, m.height - chrome
}

// renderFrame takes a fresh snapshot and rasterizes it for View.
func (m *Model) renderFrame() {
	m.ring.SnapshotInto(m.snap)
	if pushes := m.snap.Pushes(); pushes != m.lastPushes {
		if pushes > m.lastPushes {
			m.clock.Observe(int(pushes - m.lastPushes))
		}
		m.lastPushes = pushes
	}
	m.stepZoom()
	if m.transport != nil {
		m.elapsed = m.transport.Position()
		m.paused = m.transport.Paused()
	}

	cols, rows := m.viewport()
	if cols <= 0 || rows <= 0 {
		m.frame = ""
		return
	}
	h := m.term.PixelHeight(rows)
	if m.img == nil || m.img.Bounds().Dx() != cols || m.img.Bounds().Dy() != h {
		m.img = spectrogram.NewImage(cols, h)
	}
	if err := spectrogram.Render(context.Background(), m.snap, m.viewState(), m.img); err != nil {
		m.logger.Warn("render frame", "err", err)
		return
	}
	m.frame = m.term.Render(m.img, color.Black)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteByte('\n')

	_, rows := m.viewport()
	if rows > 0 {
		body := m.frame
		if m.waiting() || body == "" {
			body = "  " + m.spinner.View() + " " + noticeStyle.Render("waiting for audio...")
		}
		b.WriteString(padLines(body, rows))
		b.WriteByte('\n')
	}

	b.WriteString(m.progressLine())
	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString("  " + m.help.View(m.keys))
	return b.String()
}

func (m Model) headerLine() string {
	return "  " + headerStyle.Render("specview") + "  " + titleStyle.Render(m.meta.Label())
}

func (m Model) progressLine() string {
	elapsed := util.FormatDuration(m.elapsed)
	if m.duration <= 0 {
		return "  " + timeStyle.Render(elapsed)
	}
	total := util.FormatDuration(m.duration)
	m.progress.Width = max(m.width-len(elapsed)-len(total)-6, 10)
	ratio := m.elapsed.Seconds() / m.duration.Seconds()
	return fmt.Sprintf("  %s %s %s", timeStyle.Render(elapsed), m.progress.ViewAs(min(max(ratio, 0), 1)), timeStyle.Render(total))
}

func (m Model) statusLine() string {
	icon, state := "▶", "playing"
	switch {
	case m.finished:
		icon, state = "■", "finished"
	case m.paused:
		icon, state = "❚❚", "paused"
	}

	lo, hi := m.shown.YRange()
	d := m.snap.Desc
	denoise := "off"
	if m.denoise {
		denoise = "on"
	}

	band := util.FormatFrequency(m.analysis.FrequencyAt(hi)) + " – " + util.FormatFrequency(m.analysis.FrequencyAt(lo))

	parts := []string{
		icon + "  " + state,
		fmt.Sprintf("zoom %.1fx", m.zoom.Level),
		fmt.Sprintf("contrast %.2f", m.contrast),
		m.palette.Mode().String(),
		m.regime.String(),
		"denoise " + denoise,
		fmt.Sprintf("%d/%d cols", d.Count, d.Capacity),
	}
	line := "  " + statusStyle.Render(strings.Join(parts, "  ")) + "  " + axisStyle.Render(band)
	if m.hover {
		line += "  " + axisStyle.Render("cursor "+util.FormatPitch(m.analysis.FrequencyAt(lo+m.hoverY*(hi-lo))))
	}
	if m.exporting {
		line += "  " + m.spinner.View()
	}
	if m.notice != "" {
		line += "  " + noticeStyle.Render(m.notice)
	}
	return line
}

// padLines trims or pads s to exactly n lines.
func padLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func windowTitle(title string, paused bool) string {
	if paused {
		return "⏸ " + title + " — specview"
	}
	return "▶ " + title + " — specview"
}
