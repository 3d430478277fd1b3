// Package stats converts vote tokens into numbers and computes the derived
// round statistics (average, median, unsure count), plus the rounding of a
// numeric target back onto a point scale.
package stats

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KevinVandy/pointmystory-sub000/internal/scale"
)

// symbolicSizes maps t-shirt sizes to their numeric weight, ascending.
// Order matters: ties during rounding resolve to the first candidate.
var symbolicSizes = []struct {
	Token string
	Value float64
}{
	{"XS", 1},
	{"S", 2},
	{"M", 3},
	{"L", 5},
	{"XL", 8},
}

// TokenToNumber returns the numeric value of a vote token, or nil when the
// token has no numeric interpretation. The unsure token is always nil;
// t-shirt sizes match case-insensitively; anything else must parse as a
// float.
func TokenToNumber(token string) *float64 {
	if token == scale.UnsureToken {
		return nil
	}
	for _, size := range symbolicSizes {
		if strings.EqualFold(token, size.Token) {
			v := size.Value
			return &v
		}
	}
	if v, err := strconv.ParseFloat(token, 64); err == nil {
		return &v
	}
	return nil
}

// Result holds the statistics snapshot stored on a round at reveal time.
// Average and Median are nil when no vote had a numeric value.
type Result struct {
	Average     *float64
	Median      *float64
	UnsureCount int
}

// Compute partitions vote tokens into numeric values and an unsure count.
// Tokens that are neither numeric nor the unsure token are excluded from
// every output. The average is rounded to one decimal; the median is not
// rounded.
func Compute(values []string) Result {
	var numeric []float64
	unsure := 0

	for _, value := range values {
		if value == scale.UnsureToken {
			unsure++
			continue
		}
		if n := TokenToNumber(value); n != nil {
			numeric = append(numeric, *n)
		}
	}

	result := Result{UnsureCount: unsure}
	if len(numeric) == 0 {
		return result
	}

	sum := 0.0
	for _, n := range numeric {
		sum += n
	}
	avg := math.Round(sum/float64(len(numeric))*10) / 10
	result.Average = &avg

	sort.Float64s(numeric)
	mid := len(numeric) / 2
	var median float64
	if len(numeric)%2 == 0 {
		median = (numeric[mid-1] + numeric[mid]) / 2
	} else {
		median = numeric[mid]
	}
	result.Median = &median

	return result
}

// RoundToNearestScale maps a numeric target onto the closest token of a
// point scale. For the t-shirt preset the result is the symbolically
// nearest size. For numeric scales the winner is re-rendered as a string
// and, should that rendering not be a literal member of the scale (e.g.
// "8" vs "8.0"), falls back to one-decimal formatting.
func RoundToNearestScale(target *float64, tokens []string, preset string) *string {
	if target == nil {
		return nil
	}

	if preset == scale.PresetTShirt {
		best := symbolicSizes[0]
		for _, size := range symbolicSizes[1:] {
			if math.Abs(*target-size.Value) < math.Abs(*target-best.Value) {
				best = size
			}
		}
		// Prefer the scale's own spelling of the size when present.
		for _, t := range tokens {
			if strings.EqualFold(t, best.Token) {
				result := t
				return &result
			}
		}
		result := best.Token
		return &result
	}

	type candidate struct {
		token string
		value float64
	}
	var candidates []candidate
	for _, t := range tokens {
		if t == scale.UnsureToken {
			continue
		}
		if v, err := strconv.ParseFloat(t, 64); err == nil {
			candidates = append(candidates, candidate{token: t, value: v})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if math.Abs(*target-c.value) < math.Abs(*target-best.value) {
			best = c
		}
	}

	rendered := strconv.FormatFloat(best.value, 'f', -1, 64)
	if scale.IsValidToken(rendered, tokens) {
		return &rendered
	}
	fallback := strconv.FormatFloat(best.value, 'f', 1, 64)
	return &fallback
}
