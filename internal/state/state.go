// Package state owns the canonical shot data snapshot.
package state

import (
	"github.com/verte-zerg/catstats/internal/model"
	"github.com/verte-zerg/catstats/internal/shots"
)

// Listener receives every accepted snapshot.
type Listener func(shots.Store)

// Owner holds the current snapshot and notifies subscribers on change.
// It is driven from a single event loop and is not safe for concurrent use.
type Owner struct {
	current   shots.Store
	listeners map[int]Listener
	order     []int
	nextID    int
}

// New returns an owner seeded with initial.
func New(initial shots.Store) *Owner {
	return &Owner{
		current:   initial,
		listeners: map[int]Listener{},
	}
}

// Snapshot returns the current snapshot.
func (o *Owner) Snapshot() shots.Store {
	return o.current
}

// Subscribe registers fn and returns a function that removes it.
func (o *Owner) Subscribe(fn Listener) func() {
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.order = append(o.order, id)
	return func() {
		if _, ok := o.listeners[id]; !ok {
			return
		}
		delete(o.listeners, id)
		for i, v := range o.order {
			if v == id {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
	}
}

// UpdateFrequency sets the frequency of c.
func (o *Owner) UpdateFrequency(c model.Category, v float64) error {
	next, err := o.current.SetFrequency(c, v)
	if err != nil {
		return err
	}
	o.Replace(next)
	return nil
}

// UpdatePercentile sets the percentile of c.
func (o *Owner) UpdatePercentile(c model.Category, v float64) error {
	next, err := o.current.SetPercentile(c, v)
	if err != nil {
		return err
	}
	o.Replace(next)
	return nil
}

// Replace swaps in a whole snapshot, e.g. after loading a profile.
// Listeners are skipped when nothing changed.
func (o *Owner) Replace(next shots.Store) {
	if next.Equal(o.current) {
		return
	}
	o.current = next
	ids := append([]int(nil), o.order...)
	for _, id := range ids {
		if fn, ok := o.listeners[id]; ok {
			fn(next)
		}
	}
}
