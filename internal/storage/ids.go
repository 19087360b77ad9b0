package storage

import (
	"fmt"
	"strconv"
)

// ParseID converts an API identifier to a row key. Anything that is not a
// positive integer cannot name a row and reports ErrNotFound.
func ParseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	return n, nil
}

func FormatID(n int64) string {
	return strconv.FormatInt(n, 10)
}
