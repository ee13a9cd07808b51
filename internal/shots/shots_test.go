package shots

import (
	"errors"
	"math"
	"testing"

	"github.com/verte-zerg/catstats/internal/model"
)

func TestNewZeroed(t *testing.T) {
	s := New()
	entries := s.Entries()
	if len(entries) != model.CategoryCount {
		t.Fatalf("expected %d entries, got %d", model.CategoryCount, len(entries))
	}
	for _, e := range entries {
		if e.Entry.Frequency != 0 || e.Entry.Percentile != 0 {
			t.Fatalf("expected zero entry for %s, got %+v", e.Category, e.Entry)
		}
	}
	if got := TotalFrequency(s); got != 0 {
		t.Fatalf("expected total 0, got %v", got)
	}
}

func TestSetFrequencyIsLocal(t *testing.T) {
	base := mustFreq(t, New(), model.Cut, 12)
	for _, c := range model.Categories() {
		next := mustFreq(t, base, c, 33)
		for _, other := range model.Categories() {
			if other == c {
				continue
			}
			before, _ := base.Entry(other)
			after, _ := next.Entry(other)
			if before != after {
				t.Fatalf("setting %s changed %s: %+v -> %+v", c, other, before, after)
			}
		}
		got, _ := next.Entry(c)
		if got.Frequency != 33 {
			t.Fatalf("expected frequency 33 for %s, got %v", c, got.Frequency)
		}
	}
}

func TestSetDoesNotMutateReceiver(t *testing.T) {
	s := New()
	next, err := s.SetPercentile(model.Isolation, 90)
	if err != nil {
		t.Fatalf("SetPercentile failed: %v", err)
	}
	if got, _ := s.Entry(model.Isolation); got.Percentile != 0 {
		t.Fatalf("expected original snapshot untouched, got %+v", got)
	}
	if got, _ := next.Entry(model.Isolation); got.Percentile != 90 {
		t.Fatalf("expected new snapshot updated, got %+v", got)
	}
}

func TestSetFrequencyIdempotent(t *testing.T) {
	once := mustFreq(t, New(), model.PostUp, 17)
	twice := mustFreq(t, once, model.PostUp, 17)
	if !once.Equal(twice) {
		t.Fatalf("expected repeated set to be idempotent")
	}
	nanOnce := mustFreq(t, New(), model.PostUp, math.NaN())
	nanTwice := mustFreq(t, nanOnce, model.PostUp, math.NaN())
	if !nanOnce.Equal(nanTwice) {
		t.Fatalf("expected NaN set to be idempotent")
	}
}

func TestInvalidCategory(t *testing.T) {
	s := New()
	if _, err := s.SetFrequency("Floater", 10); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := s.SetPercentile("Floater", 10); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := s.Entry("Floater"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestOutOfRangePassThrough(t *testing.T) {
	s := mustFreq(t, New(), model.Misc, 150)
	s, err := s.SetPercentile(model.Misc, -5)
	if err != nil {
		t.Fatalf("SetPercentile failed: %v", err)
	}
	got, _ := s.Entry(model.Misc)
	if got.Frequency != 150 || got.Percentile != -5 {
		t.Fatalf("expected values passed through, got %+v", got)
	}
}

func mustFreq(t *testing.T, s Store, c model.Category, v float64) Store {
	t.Helper()
	next, err := s.SetFrequency(c, v)
	if err != nil {
		t.Fatalf("SetFrequency(%s) failed: %v", c, err)
	}
	return next
}

func mustPct(t *testing.T, s Store, c model.Category, v float64) Store {
	t.Helper()
	next, err := s.SetPercentile(c, v)
	if err != nil {
		t.Fatalf("SetPercentile(%s) failed: %v", c, err)
	}
	return next
}
