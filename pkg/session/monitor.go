// Package session watches a live text buffer and acts on completed triggers.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/keytrigger/pkg/interfaces"
	"github.com/Veraticus/keytrigger/pkg/result"
)

// Mode selects how buffer changes are inspected.
type Mode int

const (
	// FullParse runs the parser on every change.
	FullParse Mode = iota
	// EdgeTriggered only parses when a terminating symbol was just typed.
	EdgeTriggered
)

func (m Mode) String() string {
	if m == EdgeTriggered {
		return "edge"
	}
	return "full"
}

// Parser is the full-parse matcher.
type Parser interface {
	Parse(text string, cursor int) (result.Result, bool)
}

// Detector is the edge-triggered matcher.
type Detector interface {
	ShouldCheck(oldText, newText string, cursor int) bool
	ParseOnTrigger(text string, cursor int) (result.Result, bool)
}

// Dispatcher acts on a result.
type Dispatcher interface {
	Dispatch(ctx context.Context, r result.Result) error
}

// Monitor handles buffer change callbacks. Calls are serialised.
type Monitor struct {
	parser     Parser
	detector   Detector
	editor     interfaces.Editor
	dispatcher Dispatcher
	logger     *slog.Logger

	mu       sync.Mutex
	mode     Mode
	previous string
}

// NewMonitor creates a monitor in FullParse mode. detector may be nil when
// edge mode is never selected.
func NewMonitor(p Parser, d Detector, editor interfaces.Editor, dispatcher Dispatcher, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Monitor{
		parser:     p,
		detector:   d,
		editor:     editor,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SetMode switches between full and edge-triggered inspection.
func (m *Monitor) SetMode(mode Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode == EdgeTriggered && m.detector == nil {
		m.logger.Warn("edge mode requested without a detector, keeping full parse")
		return
	}
	m.mode = mode
}

// Mode returns the current inspection mode.
func (m *Monitor) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// HandleTextUpdate inspects the buffer after a change. A match is acted on only
// when it ends at the cursor: its span is deleted and the result dispatched.
// The acted-on result is returned, or nil when nothing fired.
func (m *Monitor) HandleTextUpdate(ctx context.Context, text string, cursor int) (result.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.previous
	m.previous = text
	cursor = result.ClampCursor(text, cursor)

	r, ok := m.match(previous, text, cursor)
	if !ok {
		return nil, nil
	}
	start, end := r.Bounds()
	if end != cursor {
		m.logger.Debug("match does not end at cursor", "result", result.Kind(r), "end", end, "cursor", cursor)
		return nil, nil
	}

	if m.editor != nil {
		if err := m.editor.DeleteRange(ctx, start, end); err != nil {
			return nil, fmt.Errorf("deleting trigger text: %w", err)
		}
	}
	m.previous = text[:start] + text[end:]
	m.logger.Debug("trigger fired", "result", result.Kind(r), "start", start, "end", end, "mode", m.mode.String())

	if m.dispatcher != nil {
		if err := m.dispatcher.Dispatch(ctx, r); err != nil {
			return r, fmt.Errorf("dispatching %s: %w", result.Kind(r), err)
		}
	}
	return r, nil
}

// HandleTextUpdateUTF16 is HandleTextUpdate for hosts that report the cursor
// in UTF-16 code units. Spans passed to the editor stay in bytes.
func (m *Monitor) HandleTextUpdateUTF16(ctx context.Context, text string, cursorUnits int) (result.Result, error) {
	return m.HandleTextUpdate(ctx, text, result.UTF16ToByte(text, cursorUnits))
}

// Reset forgets the previous buffer, e.g. when the input field changes.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previous = ""
}

func (m *Monitor) match(previous, text string, cursor int) (result.Result, bool) {
	if m.mode == EdgeTriggered {
		if !m.detector.ShouldCheck(previous, text, cursor) {
			return nil, false
		}
		return m.detector.ParseOnTrigger(text, cursor)
	}
	return m.parser.Parse(text, cursor)
}
