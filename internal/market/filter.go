package market

import "fmt"

// Filter is a pure predicate over a short closing-price sequence,
// oldest-first. Filters are stateless and safe to share.
type Filter interface {
	Name() string
	Apply(prices []float64) bool
}

// ThreeDayFilter passes when the trailing three closing prices are
// non-decreasing. Windows shorter than two prices trivially pass.
type ThreeDayFilter struct{}

// Name implements Filter.
func (ThreeDayFilter) Name() string { return "three_day" }

// Apply implements Filter.
func (ThreeDayFilter) Apply(prices []float64) bool {
	window := trailing(prices, 3)
	for i := 1; i < len(window); i++ {
		if window[i-1] > window[i] {
			return false
		}
	}
	return true
}

// FiveDayFilter passes when the trailing five closing prices contain at
// most two strict day-over-day declines.
type FiveDayFilter struct{}

// Name implements Filter.
func (FiveDayFilter) Name() string { return "five_day" }

// Apply implements Filter.
func (FiveDayFilter) Apply(prices []float64) bool {
	window := trailing(prices, 5)
	declines := 0
	for i := 1; i < len(window); i++ {
		if window[i-1] > window[i] {
			declines++
		}
	}
	return declines <= 2
}

// trailing returns the last n elements of prices, or all of them when the
// sequence is shorter.
func trailing(prices []float64, n int) []float64 {
	if len(prices) <= n {
		return prices
	}
	return prices[len(prices)-n:]
}

// FiltersFromNames resolves config filter names to filter instances,
// preserving order. An unknown name is a configuration error.
func FiltersFromNames(names []string) ([]Filter, error) {
	filters := make([]Filter, 0, len(names))
	for _, name := range names {
		switch name {
		case "three_day":
			filters = append(filters, ThreeDayFilter{})
		case "five_day":
			filters = append(filters, FiveDayFilter{})
		default:
			return nil, fmt.Errorf("unknown filter %q", name)
		}
	}
	return filters, nil
}
