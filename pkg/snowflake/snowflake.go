// Package snowflake defines the 64-bit entity identifiers used by every
// cached record, and the composite pair keys used by stores that index child
// entities under a parent (members, presences, voice states, thread members).
package snowflake

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Epoch is the millisecond origin of the embedded creation timestamp.
const Epoch = 1420070400000

// ID is a 64-bit unsigned identifier carried as a decimal string on the wire.
type ID uint64

// Parse converts the wire string form into an ID.
func Parse(s string) (ID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snowflake %q: %w", s, err)
	}

	return ID(n), nil
}

// String returns the decimal wire form.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Timestamp extracts the creation time embedded in the top 42 bits.
func (id ID) Timestamp() time.Time {
	ms := int64(id>>22) + Epoch
	return time.UnixMilli(ms).UTC()
}

// MarshalJSON writes the quoted decimal form.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(id.String())), nil
}

// UnmarshalJSON accepts both the quoted string form and a bare number, which
// some payload producers still emit.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("unquote snowflake %s: %w", s, err)
		}
		s = unquoted
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*id = parsed

	return nil
}

// Pair is an ordered composite key, compared lexicographically. The first
// component is the parent scope (guild or thread id), the second the child
// (user or event id).
type Pair struct {
	A ID
	B ID
}

// PairOf builds a composite key.
func PairOf(a, b ID) Pair {
	return Pair{A: a, B: b}
}

// Less orders pairs lexicographically for range scans.
func (p Pair) Less(other Pair) bool {
	if p.A != other.A {
		return p.A < other.A
	}

	return p.B < other.B
}

// RangeOf returns the inclusive bounds covering every pair scoped under
// parent: (parent, 0) through (parent, max).
func RangeOf(parent ID) (Pair, Pair) {
	return Pair{A: parent}, Pair{A: parent, B: ID(math.MaxUint64)}
}

// LessID orders plain IDs; stores over single-id keys use it for range scans.
func LessID(a, b ID) bool {
	return a < b
}

// LessPair is the Pair ordering as a standalone function for store wiring.
func LessPair(a, b Pair) bool {
	return a.Less(b)
}
