package utils

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"go.viam.com/test"
)

func TestRadixSortFloat64(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		sorted, perm := RadixSortFloat64(nil)
		test.That(t, sorted, test.ShouldBeEmpty)
		test.That(t, perm, test.ShouldBeEmpty)
	})

	t.Run("mixed signs and infinities", func(t *testing.T) {
		keys := []float64{3.5, -1, 0, math.Inf(1), -0.25, math.Inf(-1), 2, -100}
		sorted, perm := RadixSortFloat64(keys)
		test.That(t, sorted, test.ShouldResemble, []float64{math.Inf(-1), -100, -1, -0.25, 0, 2, 3.5, math.Inf(1)})
		for i, idx := range perm {
			test.That(t, keys[idx], test.ShouldEqual, sorted[i])
		}
		test.That(t, keys[0], test.ShouldEqual, 3.5)
	})

	t.Run("nan sorts last", func(t *testing.T) {
		sorted, perm := RadixSortFloat64([]float64{math.NaN(), 1, -1})
		test.That(t, sorted[0], test.ShouldEqual, -1.)
		test.That(t, sorted[1], test.ShouldEqual, 1.)
		test.That(t, math.IsNaN(sorted[2]), test.ShouldBeTrue)
		test.That(t, perm, test.ShouldResemble, []int{2, 1, 0})
	})

	t.Run("ties keep input order", func(t *testing.T) {
		_, perm := RadixSortFloat64([]float64{1, 0, 1, 0, 1})
		test.That(t, perm, test.ShouldResemble, []int{1, 3, 0, 2, 4})
	})

	t.Run("signed zeros are equal keys", func(t *testing.T) {
		negZero := math.Copysign(0, -1)
		_, perm := RadixSortFloat64([]float64{0, negZero, -1, 0, negZero})
		test.That(t, perm, test.ShouldResemble, []int{2, 0, 1, 3, 4})
	})

	t.Run("matches sort.Float64s", func(t *testing.T) {
		r := rand.New(rand.NewSource(7))
		keys := make([]float64, 1000)
		for i := range keys {
			keys[i] = (r.Float64() - 0.5) * math.Pow(10, float64(r.Intn(12)-6))
		}
		expected := append([]float64{}, keys...)
		sort.Float64s(expected)

		sorted, _ := RadixSortFloat64(keys)
		test.That(t, sorted, test.ShouldResemble, expected)
	})
}
