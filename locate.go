package finitediff

import "math"

// Locate returns the insertion index i of x in the strictly increasing grid,
// i.e. grid[i-1] <= x < grid[i]. It returns 0 for x below the grid and
// len(grid) for x at or beyond its last point.
func Locate(grid []float64, x float64) int {
	n := len(grid)
	if n == 0 || x < grid[0] {
		return 0
	}
	if x >= grid[n-1] {
		return n
	}

	// Guess under the assumption of uniform spacing.
	if n > 2 {
		dx := (grid[n-1] - grid[0]) / float64(n-1)
		guess := int((x-grid[0])/dx) + 1
		if guess > 0 && guess < n && grid[guess-1] <= x && x < grid[guess] {
			return guess
		}
	}

	// Bisection, keeping grid[lo] <= x < grid[hi].
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if x >= grid[mid] {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

// CheckNaN returns the index of the first NaN or infinite value in arr, or
// -1 if all values are finite.
func CheckNaN(arr []float64) int {
	for i, v := range arr {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}

// CheckStrictMonotonicity returns the index of the first value that is not
// strictly greater than its predecessor, or -1 if arr is strictly increasing.
func CheckStrictMonotonicity(arr []float64) int {
	for i := 1; i < len(arr); i++ {
		if !(arr[i] > arr[i-1]) {
			return i
		}
	}
	return -1
}
