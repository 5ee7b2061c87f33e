package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"

	"github.com/agbru/fanwrite/internal/orchestration"
	"github.com/agbru/fanwrite/internal/sysmon"
)

// ProgressMsg carries one worker update and the new overall average.
type ProgressMsg struct {
	WorkerIndex     int
	Value           float64
	AverageProgress float64
	ETA             time.Duration
}

// ProgressDoneMsg is sent when the progress channel closes.
type ProgressDoneMsg struct{}

// BatchDoneMsg carries the outcome of the merge.
type BatchDoneMsg struct {
	Result orchestration.BatchResult
}

// TickMsg drives the throughput sampling.
type TickMsg time.Time

// SysStatsMsg carries one host CPU and memory sample.
type SysStatsMsg sysmon.Stats

// KeyMap holds the dashboard key bindings. It implements help.KeyMap.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "cancel / quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Quit, k.Help} }
func (k KeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Quit, k.Help}} }
