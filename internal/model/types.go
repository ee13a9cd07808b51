// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Category is a shot-type label from the fixed registry.
type Category string

// Shot-type categories in display order.
const (
	PickAndRollBallHandler Category = "P&R BH"
	SpotUp                 Category = "Spot Up"
	Transition             Category = "Transition"
	Isolation              Category = "Isolation"
	OffScreen              Category = "Off Screen"
	Cut                    Category = "Cut"
	PostUp                 Category = "Post-up"
	HandOff                Category = "Hand Off"
	PutBack                Category = "Put Back"
	PickAndRollRollMan     Category = "P&R Roll Man"
	Misc                   Category = "Misc."
)

var registry = [...]Category{
	PickAndRollBallHandler,
	SpotUp,
	Transition,
	Isolation,
	OffScreen,
	Cut,
	PostUp,
	HandOff,
	PutBack,
	PickAndRollRollMan,
	Misc,
}

// CategoryCount is the number of registered categories.
const CategoryCount = len(registry)

// Categories returns the ordered registry. The slice is a copy.
func Categories() []Category {
	out := make([]Category, len(registry))
	copy(out, registry[:])
	return out
}

// Index returns the registry position of c, or -1.
func (c Category) Index() int {
	for i, r := range registry {
		if r == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is a registered category.
func (c Category) Valid() bool {
	return c.Index() >= 0
}

// ParseCategory resolves a label, falling back to a case-insensitive match.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if c := Category(s); c.Valid() {
		return c, true
	}
	for _, r := range registry {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	return "", false
}

// ColorClass is the tri-level classification of a percentile.
type ColorClass string

// Percentile classes.
const (
	ClassHigh ColorClass = "high"
	ClassMid  ColorClass = "mid"
	ClassLow  ColorClass = "low"
)

// ShotEntry holds the editable values for one category.
type ShotEntry struct {
	Frequency  float64
	Percentile float64
}

// CategoryEntry pairs a category with its entry.
type CategoryEntry struct {
	Category Category
	Entry    ShotEntry
}

// ChartPoint is one derived pie slice.
type ChartPoint struct {
	Category   Category
	Frequency  float64
	ColorClass ColorClass
}

// Visible reports whether the point draws a slice and label.
// Zero and NaN frequencies are falsy.
func (p ChartPoint) Visible() bool {
	return p.Frequency != 0 && p.Frequency == p.Frequency
}

// ChartConfig defines chart rendering and export settings.
type ChartConfig struct {
	Width     int
	Height    int
	ExportDir string
	Title     string
}

// Profile describes a saved set of shot data.
type Profile struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
