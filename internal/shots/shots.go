// Package shots holds the shot data snapshot and the views derived from it.
package shots

import (
	"errors"
	"fmt"
	"math"

	"github.com/verte-zerg/catstats/internal/model"
)

// ErrInvalidCategory is returned when a category is not in the registry.
var ErrInvalidCategory = errors.New("invalid category")

// Store is an immutable snapshot with one entry per registered category.
// Mutations return a new Store and leave the receiver untouched.
type Store struct {
	entries [model.CategoryCount]model.ShotEntry
}

// New returns a Store with every category zeroed.
func New() Store {
	return Store{}
}

// Entry returns the entry for c.
func (s Store) Entry(c model.Category) (model.ShotEntry, error) {
	idx, err := index(c)
	if err != nil {
		return model.ShotEntry{}, err
	}
	return s.entries[idx], nil
}

// Entries returns all entries in registry order.
func (s Store) Entries() []model.CategoryEntry {
	cats := model.Categories()
	out := make([]model.CategoryEntry, len(cats))
	for i, c := range cats {
		out[i] = model.CategoryEntry{Category: c, Entry: s.entries[i]}
	}
	return out
}

// SetFrequency returns a copy of s with the frequency of c replaced.
func (s Store) SetFrequency(c model.Category, v float64) (Store, error) {
	idx, err := index(c)
	if err != nil {
		return s, err
	}
	s.entries[idx].Frequency = v
	return s, nil
}

// SetPercentile returns a copy of s with the percentile of c replaced.
func (s Store) SetPercentile(c model.Category, v float64) (Store, error) {
	idx, err := index(c)
	if err != nil {
		return s, err
	}
	s.entries[idx].Percentile = v
	return s, nil
}

// Equal compares two snapshots, treating NaN as equal to NaN.
func (s Store) Equal(other Store) bool {
	for i := range s.entries {
		if !sameValue(s.entries[i].Frequency, other.entries[i].Frequency) {
			return false
		}
		if !sameValue(s.entries[i].Percentile, other.entries[i].Percentile) {
			return false
		}
	}
	return true
}

func sameValue(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

func index(c model.Category) (int, error) {
	idx := c.Index()
	if idx < 0 {
		return -1, fmt.Errorf("%w: %q", ErrInvalidCategory, string(c))
	}
	return idx, nil
}
