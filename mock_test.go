package nb2pdf

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/alnah/go-nb2pdf/internal/coordinator"
)

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

// mockTab is a loaded page that answers the readiness probes from its fields
// and records the order of completion, typesetting and printing.
type mockTab struct {
	mu           sync.Mutex
	libraryReady bool
	libraryAt    time.Time // library appears at this time when set
	mathReady    bool
	state        coordinator.RenderState
	events       []string
	typesetCalls int
	printed      *printSpec
	pdf          []byte
	printErr     error
	panicOnPrint bool
	closed       bool
}

// newReadyTab returns a tab whose charts finished and whose math runtime loaded.
func newReadyTab(charts int) *mockTab {
	return &mockTab{
		libraryReady: true,
		mathReady:    true,
		state: coordinator.RenderState{
			Started:        true,
			LibraryLoaded:  true,
			CompletedCount: charts,
			Total:          charts,
			Complete:       true,
			Phase:          "complete",
		},
		pdf: []byte("%PDF-1.7 mock"),
	}
}

func (m *mockTab) Eval(ctx context.Context, fn string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var v any
	switch fn {
	case coordinator.LibraryProbe:
		v = m.library() || m.state.Complete
	case coordinator.CompleteProbe:
		done := m.library() && m.state.Complete
		if done {
			m.events = append(m.events, "charts complete")
		}
		v = done
	case coordinator.StateProbe:
		v = m.state
	case coordinator.MathProbe:
		v = m.mathReady
	case coordinator.TypesetScript:
		m.typesetCalls++
		m.events = append(m.events, "typeset")
		v = true
	default:
		return errors.New("ReferenceError: unexpected script")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// library reports whether the chart library is loaded. Caller holds mu.
func (m *mockTab) library() bool {
	return m.libraryReady || (!m.libraryAt.IsZero() && !time.Now().Before(m.libraryAt))
}

func (m *mockTab) PrintPDF(ctx context.Context, spec *printSpec) ([]byte, error) {
	if m.panicOnPrint {
		panic("print exploded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "print")
	m.printed = spec
	if m.printErr != nil {
		return nil, m.printErr
	}
	return m.pdf, nil
}

func (m *mockTab) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockTab) eventLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// mockRenderer hands out one tab and keeps what the browser would have loaded.
type mockRenderer struct {
	mu      sync.Mutex
	tab     *mockTab
	openErr error
	paths   []string
	html    string
	closed  bool
}

func (m *mockRenderer) Open(ctx context.Context, filePath string) (browserTab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, filePath)
	if m.openErr != nil {
		return nil, m.openErr
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	m.html = string(data)
	return m.tab, nil
}

func (m *mockRenderer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Compile-time interface checks.
var (
	_ pdfRenderer = (*mockRenderer)(nil)
	_ browserTab  = (*mockTab)(nil)
)
