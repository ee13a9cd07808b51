package state

import (
	"errors"
	"testing"

	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/shots"
)

func TestUpdateNotifiesInOrder(t *testing.T) {
	o := New(shots.New())
	var calls []string
	o.Subscribe(func(shots.Store) { calls = append(calls, "table") })
	o.Subscribe(func(s shots.Store) {
		calls = append(calls, "chart")
		if got := shots.TotalFrequency(s); got != 40 {
			t.Fatalf("expected listener to see total 40, got %v", got)
		}
	})
	if err := o.UpdateFrequency(model.SpotUp, 40); err != nil {
		t.Fatalf("UpdateFrequency failed: %v", err)
	}
	if len(calls) != 2 || calls[0] != "table" || calls[1] != "chart" {
		t.Fatalf("unexpected notification order: %v", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	o := New(shots.New())
	count := 0
	unsubscribe := o.Subscribe(func(shots.Store) { count++ })
	if err := o.UpdatePercentile(model.Cut, 50); err != nil {
		t.Fatalf("UpdatePercentile failed: %v", err)
	}
	unsubscribe()
	unsubscribe()
	if err := o.UpdatePercentile(model.Cut, 60); err != nil {
		t.Fatalf("UpdatePercentile failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 notification, got %d", count)
	}
}

func TestNoOpUpdateSkipsListeners(t *testing.T) {
	o := New(shots.New())
	count := 0
	o.Subscribe(func(shots.Store) { count++ })
	if err := o.UpdateFrequency(model.Cut, 0); err != nil {
		t.Fatalf("UpdateFrequency failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no notification for unchanged value, got %d", count)
	}
}

func TestInvalidCategoryKeepsSnapshot(t *testing.T) {
	o := New(shots.New())
	count := 0
	o.Subscribe(func(shots.Store) { count++ })
	before := o.Snapshot()
	err := o.UpdateFrequency("Floater", 10)
	if !errors.Is(err, shots.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if count != 0 || !o.Snapshot().Equal(before) {
		t.Fatalf("expected snapshot untouched and no notification")
	}
}
