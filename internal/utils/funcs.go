package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxStartID is the largest accepted offset. The first key written is
// MaxStartID+1, the largest value of a PostgreSQL integer column.
const MaxStartID = math.MaxInt32 - 1

// ErrInvalidStartID is returned when the starting offset is missing or is not
// a non-negative integer up to MaxStartID.
var ErrInvalidStartID = errors.New("START_ID must be set to a non-negative integer")

// IsIn reports whether s is one of arr.
func IsIn(s string, arr []string) bool {
	for _, x := range arr {
		if s == x {
			return true
		}
	}
	return false
}

// ParseStartID parses the externally supplied starting offset.
func ParseStartID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(ErrInvalidStartID, "value is empty")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidStartID, "cannot parse %q", s)
	}
	if id > MaxStartID {
		return 0, errors.Wrapf(ErrInvalidStartID, "%d is larger than %d", id, MaxStartID)
	}
	return id, nil
}
