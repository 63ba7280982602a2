// Package dedupe rewrites colliding natural keys so that a batch upsert never
// violates a remote uniqueness constraint.
//
// Local state can accumulate duplicate natural keys (repeated or partial
// schedule parses are the usual source); without rewriting, a single
// duplicate would cause the remote store to reject the whole batch.
package dedupe

import "fmt"

// AssignUnique returns a copy of keys in which every key is unique within the
// batch. The first unclaimed occurrence of a key is left unchanged; later
// occurrences get a deterministic numeric suffix, skipping past suffixes the
// batch already contains naturally:
//
//	["12", "12", "7", "12"]  -> ["12", "12-2", "7", "12-3"]
//	["12", "12-2", "12"]     -> ["12", "12-2", "12-3"]
func AssignUnique(keys []string) []string {
	out := make([]string, len(keys))
	used := make(map[string]bool, len(keys))
	next := make(map[string]int, len(keys))

	for i, key := range keys {
		candidate := key
		n := next[key]
		for used[candidate] {
			if n < 2 {
				n = 2
			}
			candidate = fmt.Sprintf("%s-%d", key, n)
			n++
		}
		next[key] = n
		used[candidate] = true
		out[i] = candidate
	}

	return out
}
