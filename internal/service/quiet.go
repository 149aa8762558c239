package service

// InQuietHours reports whether hour falls in the suppression window
// [start, 24) or [0, end). The window wraps midnight: with start=23 and
// end=6 the hours 23, 0..5 are quiet.
func InQuietHours(hour, start, end int) bool {
	return hour >= start || hour < end
}
