package state

import "statehold/pkg/snowflake"

// Id lists on stored rows are treated copy-on-write: stores hand back the
// stored slice itself, so mutating in place would corrupt past snapshots.
// Every helper here returns a fresh slice.

func addID(ids []snowflake.ID, id snowflake.ID) []snowflake.ID {
	out := make([]snowflake.ID, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

// addDistinctID appends id unless it is already present.
func addDistinctID(ids []snowflake.ID, id snowflake.ID) []snowflake.ID {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return addID(ids, id)
}

// addAllDistinctIDs appends every id from more that is not already present.
func addAllDistinctIDs(ids []snowflake.ID, more []snowflake.ID) []snowflake.ID {
	out := make([]snowflake.ID, 0, len(ids)+len(more))
	out = append(out, ids...)
	for _, id := range more {
		seen := false
		for _, have := range out {
			if have == id {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, id)
		}
	}
	return out
}

// removeID drops every occurrence of id.
func removeID(ids []snowflake.ID, id snowflake.ID) []snowflake.ID {
	out := make([]snowflake.ID, 0, len(ids))
	for _, have := range ids {
		if have != id {
			out = append(out, have)
		}
	}
	return out
}

func containsID(ids []snowflake.ID, id snowflake.ID) bool {
	for _, have := range ids {
		if have == id {
			return true
		}
	}
	return false
}

// replaceAt returns a copy of s with s[i] swapped for v.
func replaceAt[T any](s []T, i int, v T) []T {
	out := make([]T, len(s))
	copy(out, s)
	out[i] = v
	return out
}

// removeAt returns a copy of s without the element at i.
func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
