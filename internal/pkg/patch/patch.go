package patch

// Coalesce merges one field of a partial update: the patched value when
// ptr is set, fallback (the current value) when it is nil.
func Coalesce[T any](ptr *T, fallback T) T {
	if ptr != nil {
		return *ptr
	}
	return fallback
}
