package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loglens/loglens/internal/domain"
	"github.com/loglens/loglens/internal/session"
)

// Run starts the TUI application. The sink must be the one the controller
// was constructed with; Run binds it to the program so controller events
// reach the display.
func Run(controller *session.Controller, sink *Sink, maxRecords int) error {
	model := NewModel(controller, maxRecords)
	p := tea.NewProgram(model, tea.WithAltScreen())

	sink.bind(p)
	_, err := p.Run()
	sink.bind(nil)

	return err
}

// Sink translates controller events into bubbletea messages. Events that
// arrive before the program is bound (or after it exits) are dropped; the
// model pulls a fresh snapshot from the controller when it starts.
type Sink struct {
	mu sync.Mutex
	p  *tea.Program
}

// NewSink creates an unbound sink
func NewSink() *Sink {
	return &Sink{}
}

var _ session.EventSink = (*Sink)(nil)

func (s *Sink) bind(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *Sink) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (s *Sink) LinesAppended(records []domain.Record) {
	s.send(LinesMsg(records))
}

func (s *Sink) BufferReplaced(records []domain.Record) {
	s.send(BufferMsg(records))
}

func (s *Sink) BufferCleared() {
	s.send(ClearedMsg{})
}

func (s *Sink) PausedChanged(paused bool) {
	s.send(PausedMsg(paused))
}

func (s *Sink) DevicesUpdated(devices []domain.Device) {
	s.send(DevicesMsg(devices))
}

func (s *Sink) ErrorRaised(message string) {
	s.send(NotifyMsg(message))
}

func (s *Sink) PresetsUpdated(presets []domain.FilterPreset) {
	s.send(PresetsMsg(presets))
}

func (s *Sink) CopyRequested() {
	s.send(CopyRequestedMsg{})
}
