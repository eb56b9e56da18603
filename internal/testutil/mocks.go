package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alchemmist/canvas-snap/internal/document"
	"github.com/alchemmist/canvas-snap/internal/logging"
)

// MockLogger implements logging.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level    string
	Category logging.Category
	Message  string
}

func (m *MockLogger) record(level string, c logging.Category, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Category: c, Message: fmt.Sprintf(format, args...)})
}

func (m *MockLogger) Debugf(c logging.Category, format string, args ...interface{}) {
	m.record("debug", c, format, args...)
}
func (m *MockLogger) Infof(c logging.Category, format string, args ...interface{}) {
	m.record("info", c, format, args...)
}
func (m *MockLogger) Warnf(c logging.Category, format string, args ...interface{}) {
	m.record("warn", c, format, args...)
}
func (m *MockLogger) Errorf(c logging.Category, format string, args ...interface{}) {
	m.record("error", c, format, args...)
}
func (m *MockLogger) Close() {}

// Level returns the entries logged at level.
func (m *MockLogger) Level(level string) []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LogEntry
	for _, e := range m.Logs {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

var ErrInjected = errors.New("injected host failure")

// FlakyDocument wraps a document and fails selected host calls.
type FlakyDocument struct {
	document.Document
	// FailKinds makes CreateNode fail for these kinds.
	FailKinds map[document.Kind]bool
	FailClear bool
	FailList  bool
	Created   []document.Kind
}

func (d *FlakyDocument) CreateNode(ctx context.Context, kind document.Kind) (document.Node, error) {
	d.Created = append(d.Created, kind)
	if d.FailKinds[kind] {
		return nil, fmt.Errorf("%w: create %s", ErrInjected, kind)
	}
	return d.Document.CreateNode(ctx, kind)
}

func (d *FlakyDocument) ClearBoards(ctx context.Context) error {
	if d.FailClear {
		return fmt.Errorf("%w: clear boards", ErrInjected)
	}
	return d.Document.ClearBoards(ctx)
}

func (d *FlakyDocument) Boards(ctx context.Context) ([]document.Board, error) {
	if d.FailList {
		return nil, fmt.Errorf("%w: list boards", ErrInjected)
	}
	return d.Document.Boards(ctx)
}

// Fixture builds a Memory document with one board holding a rectangle, a text
// and a foreign image node, back to front.
func Fixture(ctx context.Context) (*document.Memory, error) {
	doc := document.NewMemory("Fixture")
	b, err := doc.CreateBoard(ctx, "Cover", 800, 600)
	if err != nil {
		return nil, err
	}
	rect, err := doc.CreateNode(ctx, document.KindRectangle)
	if err != nil {
		return nil, err
	}
	mr := rect.(*document.MemNode)
	_ = mr.SetName("background")
	_ = mr.Resize(800, 600)
	_ = mr.SetFill(&document.ColorFill{Color: document.Color{R: 250, G: 240, B: 230, A: 1}})
	_ = mr.SetCornerRadius(8)
	if err := b.Append(ctx, rect); err != nil {
		return nil, err
	}

	text, err := doc.CreateNode(ctx, document.KindText)
	if err != nil {
		return nil, err
	}
	mt := text.(*document.MemNode)
	_ = mt.SetText("Hello")
	_ = mt.SetFontSize(32)
	_ = mt.MoveInParent(40, 50)
	_ = mt.SetRotation(15)
	if err := b.Append(ctx, text); err != nil {
		return nil, err
	}

	doc.InsertForeign(b.(*document.MemBoard), "ImageNode", document.Rect{X: 10, Y: 10, Width: 64, Height: 64})
	return doc, nil
}
