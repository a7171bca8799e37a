// Copyright (c) 2026 The Textpane Authors
// released under the MIT license

package utils

// CopyMap returns a shallow copy of input.
func CopyMap[K comparable, V any](input map[K]V) (result map[K]V) {
	result = make(map[K]V, len(input))
	for key, value := range input {
		result[key] = value
	}
	return
}
