// Package recents maintains the per-list shortcut set of previously typed
// item names.
package recents

// MaxRecents caps how many names a list remembers.
const MaxRecents = 12

// Sanitize removes duplicates keeping the first occurrence and truncates the
// result to MaxRecents. The input is not modified.
func Sanitize(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, min(len(items), MaxRecents))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
		if len(result) >= MaxRecents {
			break
		}
	}
	return result
}

// Push moves name to the front of items.
func Push(items []string, name string) []string {
	next := make([]string, 0, len(items)+1)
	next = append(next, name)
	for _, item := range items {
		if item != name {
			next = append(next, item)
		}
	}
	return Sanitize(next)
}
