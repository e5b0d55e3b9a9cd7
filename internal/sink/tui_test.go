package sink

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"carbontrace/internal/telemetry"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func TestTUISinkMessages(t *testing.T) {
	p := &fakeProgram{}
	s := &TUISink{program: p}

	if err := s.Publish(sampleRecord("run00001")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(p.msgs) != 2 {
		t.Fatalf("got %d messages, want sample + log", len(p.msgs))
	}
	if _, ok := p.msgs[0].(sampleMsg); !ok {
		t.Fatalf("expected sampleMsg, got %T", p.msgs[0])
	}
	lm, ok := p.msgs[1].(logMsg)
	if !ok {
		t.Fatalf("expected logMsg, got %T", p.msgs[1])
	}
	if !strings.Contains(lm.line, "run=run00001") || !strings.Contains(lm.line, "cpu=32.50W") {
		t.Fatalf("log line = %q", lm.line)
	}
}

func TestTUIModelUpdate(t *testing.T) {
	m := newTUIModel(telemetry.StaticInfo{OS: "Linux", CPUName: "test cpu", CPUCount: 8, RAMTotalGB: 16})
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = mi.(tuiModel)
	if !m.ready {
		t.Fatal("viewport not initialized after window size")
	}

	mi, _ = m.Update(sampleMsg{rec: sampleRecord("run00001")})
	m = mi.(tuiModel)
	if got := len(m.table.Rows()); got == 0 {
		t.Fatal("gauge table empty after sample")
	}

	mi, _ = m.Update(logMsg{line: "line one"})
	m = mi.(tuiModel)
	if len(m.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(m.logs))
	}
	if !strings.Contains(m.vp.View(), "line one") {
		t.Fatal("viewport missing log line")
	}
}

func TestTUIModelQuitKeys(t *testing.T) {
	m := newTUIModel(telemetry.StaticInfo{})
	for _, key := range []string{"q", "ctrl+c"} {
		var msg tea.KeyMsg
		if key == "q" {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("key %q did not produce a quit command", key)
		}
	}
}

func TestTUIModelLogCap(t *testing.T) {
	m := newTUIModel(telemetry.StaticInfo{})
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = mi.(tuiModel)
	for i := 0; i < 600; i++ {
		mi, _ = m.Update(logMsg{line: "x"})
		m = mi.(tuiModel)
	}
	if len(m.logs) != 500 {
		t.Fatalf("log buffer = %d lines, want capped at 500", len(m.logs))
	}
}
