package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/shots"
)

func TestWriteBalanced(t *testing.T) {
	s := shots.New()
	s, _ = s.SetFrequency(model.SpotUp, 40)
	s, _ = s.SetPercentile(model.SpotUp, 80)
	s, _ = s.SetFrequency(model.Transition, 60)

	var buf bytes.Buffer
	if err := Write(&buf, s, Options{ChartRows: 6}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Shot Type") || !strings.Contains(out, "Misc.") {
		t.Fatalf("expected table in output: %s", out)
	}
	if !strings.Contains(out, "Total: 100%") {
		t.Fatalf("expected total line: %s", out)
	}
	if strings.Contains(out, shots.BalanceWarning) {
		t.Fatalf("unexpected warning for balanced data")
	}
	if !strings.Contains(out, "Spot Up") || !strings.Contains(out, "high") {
		t.Fatalf("expected legend entry: %s", out)
	}
}

func TestWriteWarnsWhenUnbalanced(t *testing.T) {
	s, _ := shots.New().SetFrequency(model.Cut, shots.ParseValue("x"))
	var buf bytes.Buffer
	if err := Write(&buf, s, Options{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Total: NaN") {
		t.Fatalf("expected NaN total: %s", out)
	}
	if !strings.Contains(out, shots.BalanceWarning) {
		t.Fatalf("expected warning: %s", out)
	}
	if !strings.Contains(out, "No slices to draw.") {
		t.Fatalf("expected empty chart note: %s", out)
	}
}
