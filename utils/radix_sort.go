package utils

import (
	"math"
)

const (
	radixBits    = 8
	radixBuckets = 1 << radixBits
	radixPasses  = 64 / radixBits
)

// sortableFloat64Bits maps a float64 onto a uint64 whose unsigned ordering matches the numeric
// ordering of the float. Negative values have every bit flipped, non-negative values only the
// sign bit. NaNs map to the largest key so they sort last and -0 shares the key of +0.
func sortableFloat64Bits(f float64) uint64 {
	if math.IsNaN(f) {
		return math.MaxUint64
	}
	if f == 0 {
		f = 0
	}
	b := math.Float64bits(f)
	if b>>63 == 1 {
		return ^b
	}
	return b | 1<<63
}

// RadixSortFloat64 sorts keys ascending in linear time and returns the sorted keys together with
// the permutation that produced them, such that sorted[i] == keys[perm[i]]. The sort is stable:
// equal keys keep their input order. keys is not modified.
func RadixSortFloat64(keys []float64) ([]float64, []int) {
	n := len(keys)
	sorted := make([]float64, n)
	perm := make([]int, n)
	if n == 0 {
		return sorted, perm
	}

	bits := make([]uint64, n)
	var counts [radixPasses][radixBuckets]int
	for i, k := range keys {
		b := sortableFloat64Bits(k)
		bits[i] = b
		perm[i] = i
		for pass := 0; pass < radixPasses; pass++ {
			counts[pass][(b>>(pass*radixBits))&(radixBuckets-1)]++
		}
	}

	scratchBits := make([]uint64, n)
	scratchPerm := make([]int, n)
	for pass := 0; pass < radixPasses; pass++ {
		shift := pass * radixBits
		// every key shares this digit, the pass would be the identity
		if counts[pass][(bits[0]>>shift)&(radixBuckets-1)] == n {
			continue
		}

		var offsets [radixBuckets]int
		total := 0
		for d := 0; d < radixBuckets; d++ {
			offsets[d] = total
			total += counts[pass][d]
		}
		for i, b := range bits {
			d := (b >> shift) & (radixBuckets - 1)
			scratchBits[offsets[d]] = b
			scratchPerm[offsets[d]] = perm[i]
			offsets[d]++
		}
		bits, scratchBits = scratchBits, bits
		perm, scratchPerm = scratchPerm, perm
	}

	for i, idx := range perm {
		sorted[i] = keys[idx]
	}
	return sorted, perm
}
