package util

// Contains returns whether the given slice contains the given element.
func Contains[T comparable](slice []T, elem T) bool {
	for _, x := range slice {
		if x == elem {
			return true
		}
	}

	return false
}

// Map applies a function to the given slice and returns the transformed slice.
func Map[T, R any](slice []T, f func(T) R) []R {
	mSlice := make([]R, len(slice))

	for i, elem := range slice {
		mSlice[i] = f(elem)
	}

	return mSlice
}

// MapErr applies a fallible function to the given slice, stopping at the
// first error.
func MapErr[T, R any](slice []T, f func(T) (R, error)) ([]R, error) {
	mSlice := make([]R, len(slice))

	for i, elem := range slice {
		r, err := f(elem)
		if err != nil {
			return nil, err
		}

		mSlice[i] = r
	}

	return mSlice, nil
}

// Filter returns a new slice containing only the elements of the given slice
// for which the predicate returns true.
func Filter[T any](slice []T, pred func(T) bool) []T {
	var fSlice []T

	for _, elem := range slice {
		if pred(elem) {
			fSlice = append(fSlice, elem)
		}
	}

	return fSlice
}

// IndexOf returns the index of the first element of the given slice for which
// the predicate returns true, or -1 if there is no such element.
func IndexOf[T any](slice []T, pred func(T) bool) int {
	for i, elem := range slice {
		if pred(elem) {
			return i
		}
	}

	return -1
}
