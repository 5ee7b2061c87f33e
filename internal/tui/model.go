package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fanwrite/internal/format"
	"github.com/agbru/fanwrite/internal/orchestration"
	"github.com/agbru/fanwrite/internal/sysmon"
)

// Layout constants.
const (
	tickInterval   = 200 * time.Millisecond
	historySize    = 60
	defaultWidth   = 80
	defaultHeight  = 24
	fixedRows      = 14
	minWorkerRows  = 3
	workerBarWidth = 30
)

// Options describes the run the dashboard follows.
type Options struct {
	Version string
	// Units is the number of workers to display.
	Units int
	// Total is the destination size in bytes.
	Total      int64
	Policy     string
	Discipline string
	Backend    string
	Dest       string
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	opts   Options
	header HeaderModel
	keymap KeyMap
	help   help.Model

	workers []float64
	avg     float64
	eta     time.Duration
	overall progress.Model
	bar     progress.Model

	throughput *RingBuffer
	cpu        *RingBuffer
	lastBytes  int64
	lastTick   time.Time
	sys        sysmon.Stats

	width, height int

	cancel   context.CancelFunc
	result   *orchestration.BatchResult
	canceled bool
}

// NewModel returns a dashboard for opts. cancel stops the merge when the user
// quits.
func NewModel(opts Options, cancel context.CancelFunc) Model {
	shape := fmt.Sprintf("%d units, %s, %s allocator, %s/%s",
		opts.Units, format.FormatBytes(opts.Total), opts.Policy, opts.Discipline, opts.Backend)
	return Model{
		opts:       opts,
		header:     NewHeaderModel(opts.Version, shape),
		keymap:     DefaultKeyMap(),
		help:       help.New(),
		workers:    make([]float64, opts.Units),
		overall:    newBar(defaultWidth - 40),
		bar:        newBar(workerBarWidth),
		throughput: NewRingBuffer(historySize),
		cpu:        NewRingBuffer(historySize),
		lastTick:   time.Now(),
		width:      defaultWidth,
		height:     defaultHeight,
		cancel:     cancel,
	}
}

// Init starts the sampling ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), sampleSysStatsCmd())
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			if m.result == nil {
				m.canceled = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.header.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.overall.Width = max(msg.Width-40, 10)
		return m, nil

	case ProgressMsg:
		if msg.WorkerIndex >= 0 && msg.WorkerIndex < len(m.workers) {
			m.workers[msg.WorkerIndex] = msg.Value
		}
		m.avg, m.eta = msg.AverageProgress, msg.ETA
		return m, nil

	case ProgressDoneMsg:
		return m, nil

	case TickMsg:
		m.sampleThroughput(time.Time(msg))
		if m.result != nil {
			return m, nil
		}
		return m, tea.Batch(tickCmd(), sampleSysStatsCmd())

	case SysStatsMsg:
		m.sys = sysmon.Stats(msg)
		m.cpu.Push(msg.CPUPercent)
		return m, nil

	case BatchDoneMsg:
		res := msg.Result
		m.result = &res
		m.header.SetDone()
		if res.Valid {
			m.avg = 1
			for i := range m.workers {
				m.workers[i] = 1
			}
		}
		return m, nil
	}
	return m, nil
}

// sampleThroughput pushes the write rate since the previous tick.
func (m *Model) sampleThroughput(now time.Time) {
	written := int64(m.avg * float64(m.opts.Total))
	if dt := now.Sub(m.lastTick).Seconds(); dt > 0 {
		m.throughput.Push(float64(written-m.lastBytes) / dt)
	}
	m.lastBytes, m.lastTick = written, now
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.workersView())
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s %5.1f%%  ETA %s\n",
		titleStyle.Render("Overall "), m.overall.ViewAs(m.avg), m.avg*100, format.FormatETA(m.eta))
	fmt.Fprintf(&b, "%s %s %s/s\n",
		titleStyle.Render("Write   "),
		sparklineStyle.Render(RenderSparkline(m.throughput.Slice(), 0)),
		format.FormatBytes(int64(m.throughput.Last())))
	fmt.Fprintf(&b, "%s %s cpu %4.1f%%  mem %4.1f%%  load %.2f\n",
		titleStyle.Render("Host    "),
		cpuStyle.Render(RenderSparkline(m.cpu.Slice(), 100)),
		m.sys.CPUPercent, m.sys.MemPercent, m.sys.Load1)

	body := panelStyle.Width(max(m.width-2, 20)).Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.statusView(), m.help.View(m.keymap))
}

// workersView renders one bar per worker that fits on screen and a summary
// line for the rest.
func (m Model) workersView() string {
	var b strings.Builder
	visible := min(len(m.workers), max(m.height-fixedRows, minWorkerRows))
	for i := range visible {
		v := m.workers[i]
		label := dimStyle.Render(fmt.Sprintf("%4d", i))
		if v >= 1 {
			label = successStyle.Render(fmt.Sprintf("%4d", i))
		}
		fmt.Fprintf(&b, "%s %s %5.1f%%\n", label, m.bar.ViewAs(v), v*100)
	}
	if rest := len(m.workers) - visible; rest > 0 {
		done := 0
		for _, v := range m.workers[visible:] {
			if v >= 1 {
				done++
			}
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("     +%d more, %d done", rest, done)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) statusView() string {
	switch {
	case m.result == nil && m.canceled:
		return warningStyle.Render("Canceling...")
	case m.result == nil:
		return accentStyle.Render("Merging into " + m.opts.Dest)
	case m.result.Valid:
		return successStyle.Render(fmt.Sprintf("Valid: %s written in %s (%s). Press q to exit.",
			m.result.Path, format.FormatExecutionDuration(m.result.Duration),
			format.FormatThroughput(m.result.Total, m.result.Duration)))
	}
	return errorStyle.Render(fmt.Sprintf("Invalid: %v. Press q to exit.", m.result.Err))
}

// Done reports whether the batch result has arrived.
func (m Model) Done() bool { return m.result != nil }

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg { return SysStatsMsg(sysmon.Sample()) }
}

// MergeFunc runs a merge that reports progress to reporter.
type MergeFunc func(ctx context.Context, reporter orchestration.ProgressReporter) orchestration.BatchResult

// Run shows the dashboard while merge runs and returns the merge result
// once the user leaves the dashboard. Quitting before the merge finishes
// cancels it.
func Run(ctx context.Context, opts Options, merge MergeFunc) (orchestration.BatchResult, error) {
	initStyles()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ref := &programRef{}
	p := tea.NewProgram(NewModel(opts, cancel), tea.WithAltScreen(), tea.WithContext(ctx))
	ref.SetProgram(p)

	var res orchestration.BatchResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		res = merge(ctx, &ProgressReporter{ref: ref})
		ref.Send(BatchDoneMsg{Result: res})
	}()

	_, err := p.Run()
	cancel()
	<-done
	return res, err
}
