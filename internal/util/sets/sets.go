package sets

// Set is a simple generic hash set for comparable keys.
// Usage: s := sets.New[string]("a","b"); s.Add("c"); if s.Has("b") {...}
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Unique returns vals with duplicates removed, keeping the first occurrence of
// each value and the original order.
func Unique[T comparable](vals []T) []T {
	seen := make(Set[T], len(vals))
	out := make([]T, 0, len(vals))
	for _, v := range vals {
		if seen.Has(v) {
			continue
		}
		seen.Add(v)
		out = append(out, v)
	}
	return out
}
