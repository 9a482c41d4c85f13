package utils

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
