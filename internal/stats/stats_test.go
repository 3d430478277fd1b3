package stats_test

import (
	"testing"

	"github.com/KevinVandy/pointmystory-sub000/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenToNumber(t *testing.T) {
	t.Run("unsure token has no numeric value", func(t *testing.T) {
		assert.Nil(t, stats.TokenToNumber("?"))
	})

	t.Run("t-shirt sizes map case-insensitively", func(t *testing.T) {
		cases := map[string]float64{
			"XS": 1, "xs": 1,
			"S": 2, "s": 2,
			"M": 3, "m": 3,
			"L": 5, "l": 5,
			"XL": 8, "xl": 8,
		}
		for token, want := range cases {
			got := stats.TokenToNumber(token)
			require.NotNil(t, got, token)
			assert.Equal(t, want, *got, token)
		}
	})

	t.Run("numeric literals parse", func(t *testing.T) {
		got := stats.TokenToNumber("0.5")
		require.NotNil(t, got)
		assert.Equal(t, 0.5, *got)

		got = stats.TokenToNumber("13")
		require.NotNil(t, got)
		assert.Equal(t, 13.0, *got)
	})

	t.Run("unparseable tokens are nil", func(t *testing.T) {
		assert.Nil(t, stats.TokenToNumber("XXL"))
		assert.Nil(t, stats.TokenToNumber("coffee"))
		assert.Nil(t, stats.TokenToNumber(""))
	})
}

func TestCompute(t *testing.T) {
	t.Run("average and median over numeric votes", func(t *testing.T) {
		result := stats.Compute([]string{"3", "5", "8"})

		require.NotNil(t, result.Average)
		assert.Equal(t, 5.3, *result.Average, "5.333... rounds to one decimal")
		require.NotNil(t, result.Median)
		assert.Equal(t, 5.0, *result.Median)
		assert.Equal(t, 0, result.UnsureCount)
	})

	t.Run("only unsure votes leave stats absent", func(t *testing.T) {
		result := stats.Compute([]string{"?", "?"})

		assert.Nil(t, result.Average)
		assert.Nil(t, result.Median)
		assert.Equal(t, 2, result.UnsureCount)
	})

	t.Run("median of even count is the mean of the middle pair", func(t *testing.T) {
		result := stats.Compute([]string{"2", "3", "5", "8"})

		require.NotNil(t, result.Median)
		assert.Equal(t, 4.0, *result.Median)
	})

	t.Run("symbolic sizes count as numeric", func(t *testing.T) {
		result := stats.Compute([]string{"S", "M", "L"})

		require.NotNil(t, result.Average)
		assert.Equal(t, 3.3, *result.Average)
		require.NotNil(t, result.Median)
		assert.Equal(t, 3.0, *result.Median)
	})

	t.Run("unconvertible tokens are excluded from every output", func(t *testing.T) {
		// "banana" is neither numeric nor the unsure marker: not averaged,
		// not counted as unsure.
		result := stats.Compute([]string{"5", "banana"})

		require.NotNil(t, result.Average)
		assert.Equal(t, 5.0, *result.Average)
		assert.Equal(t, 0, result.UnsureCount)
	})

	t.Run("empty input", func(t *testing.T) {
		result := stats.Compute(nil)

		assert.Nil(t, result.Average)
		assert.Nil(t, result.Median)
		assert.Equal(t, 0, result.UnsureCount)
	})
}

func TestRoundToNearestScale(t *testing.T) {
	fib := []string{"1", "2", "3", "5", "8", "13", "?"}

	t.Run("nil target", func(t *testing.T) {
		assert.Nil(t, stats.RoundToNearestScale(nil, fib, "fibonacci"))
	})

	t.Run("picks the numerically closest token", func(t *testing.T) {
		target := 6.0
		got := stats.RoundToNearestScale(&target, fib, "fibonacci")
		require.NotNil(t, got)
		assert.Equal(t, "5", *got, "|6-5| < |6-8|")
	})

	t.Run("ties resolve to the earlier token", func(t *testing.T) {
		target := 6.5
		got := stats.RoundToNearestScale(&target, fib, "fibonacci")
		require.NotNil(t, got)
		assert.Equal(t, "5", *got)
	})

	t.Run("prefers the scale's literal spelling", func(t *testing.T) {
		target := 0.4
		got := stats.RoundToNearestScale(&target, []string{"0.5", "1", "2", "?"}, "hybrid")
		require.NotNil(t, got)
		assert.Equal(t, "0.5", *got)
	})

	t.Run("falls back to one-decimal formatting when rendering mismatches", func(t *testing.T) {
		// "8.0" is the literal token, but the winner renders as "8".
		target := 7.9
		got := stats.RoundToNearestScale(&target, []string{"3.0", "5.0", "8.0", "?"}, "custom")
		require.NotNil(t, got)
		assert.Equal(t, "8.0", *got)
	})

	t.Run("t-shirt preset maps to the nearest size", func(t *testing.T) {
		shirts := []string{"XS", "S", "M", "L", "XL", "?"}

		target := 4.2
		got := stats.RoundToNearestScale(&target, shirts, "t-shirt")
		require.NotNil(t, got)
		assert.Equal(t, "L", *got, "|4.2-5| < |4.2-3|")

		target = 4.0
		got = stats.RoundToNearestScale(&target, shirts, "t-shirt")
		require.NotNil(t, got)
		assert.Equal(t, "M", *got, "tie between M and L resolves to M")
	})

	t.Run("scale with no numeric tokens", func(t *testing.T) {
		target := 3.0
		assert.Nil(t, stats.RoundToNearestScale(&target, []string{"?"}, "custom"))
	})
}
