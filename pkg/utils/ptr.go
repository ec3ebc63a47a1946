package utils

// ToPtr возвращает указатель на копию значения.
func ToPtr[T any](v T) *T {
	return &v
}
