package util

// ToPtr returns a pointer to the passed value.
func ToPtr[T any](v T) *T {
	return &v
}
