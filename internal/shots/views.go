package shots

import "github.com/verte-zerg/catstats/internal/model"

// Percentile thresholds, both inclusive.
const (
	HighThreshold = 75
	LowThreshold  = 25
)

// BalanceWarning is shown while frequencies do not sum to 100.
const BalanceWarning = "Warning: sum of frequencies does not equal 100"

// TotalFrequency sums frequencies in registry order. NaN propagates.
func TotalFrequency(s Store) float64 {
	var total float64
	for _, e := range s.entries {
		total += e.Frequency
	}
	return total
}

// IsBalanced reports whether frequencies sum to exactly 100.
func IsBalanced(s Store) bool {
	return TotalFrequency(s) == 100
}

// Classify maps a percentile to its colour class.
func Classify(percentile float64) model.ColorClass {
	if percentile >= HighThreshold {
		return model.ClassHigh
	}
	if percentile <= LowThreshold {
		return model.ClassLow
	}
	return model.ClassMid
}

// ToChartPoints projects s into one chart point per category, including
// zero-frequency categories.
func ToChartPoints(s Store) []model.ChartPoint {
	cats := model.Categories()
	points := make([]model.ChartPoint, len(cats))
	for i, c := range cats {
		e := s.entries[i]
		points[i] = model.ChartPoint{
			Category:   c,
			Frequency:  e.Frequency,
			ColorClass: Classify(e.Percentile),
		}
	}
	return points
}

// VisiblePoints filters points down to the ones that draw a slice.
func VisiblePoints(points []model.ChartPoint) []model.ChartPoint {
	out := make([]model.ChartPoint, 0, len(points))
	for _, p := range points {
		if p.Visible() {
			out = append(out, p)
		}
	}
	return out
}
