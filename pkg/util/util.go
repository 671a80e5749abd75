package util

import (
	"math"
)

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func ReverseG[T any](arr []T) []T {
	copyArr := make([]T, len(arr)) // should do on the copy )
	copy(copyArr, arr)
	for i, j := 0, len(copyArr)-1; i < j; i, j = i+1, j-1 {
		copyArr[i], copyArr[j] = copyArr[j], copyArr[i]
	}
	return copyArr
}

// BinarySearch returns the position of target in the sorted arr and whether it was found.
// if not found, the position is where target would be inserted.
func BinarySearch[T any](arr []T, target T, compare func(a, b T) int) (int, bool) {
	left := 0
	right := len(arr) - 1
	for left <= right {
		mid := left + (right-left)/2
		c := compare(arr[mid], target)
		if c > 0 {
			right = mid - 1
		} else if c < 0 {
			left = mid + 1
		} else {
			return mid, true
		}
	}
	return left, false
}
