package eftlog

// compiledFilter holds pre-compiled filter configuration for efficient event filtering.
type compiledFilter struct {
	include map[EventType]struct{}
	exclude map[EventType]struct{}
}

// newCompiledFilter creates a new compiledFilter from include and exclude slices.
// Returns nil if both slices are empty (no filtering needed).
func newCompiledFilter(include, exclude []EventType) *compiledFilter {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}

	f := &compiledFilter{}
	f.setInclude(include)
	f.setExclude(exclude)
	return f
}

func (f *compiledFilter) setInclude(types []EventType) {
	f.include = toSet(types)
}

func (f *compiledFilter) setExclude(types []EventType) {
	f.exclude = toSet(types)
}

func toSet(types []EventType) map[EventType]struct{} {
	if len(types) == 0 {
		return nil
	}
	m := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return m
}

// Allows returns true if the given event type passes the filter.
// If include is non-empty, only types in include are allowed.
// Types in exclude are always rejected (exclude takes precedence).
func (f *compiledFilter) Allows(t EventType) bool {
	if f == nil {
		return true
	}

	if len(f.include) > 0 {
		if _, ok := f.include[t]; !ok {
			return false
		}
	}

	if len(f.exclude) > 0 {
		if _, ok := f.exclude[t]; ok {
			return false
		}
	}

	return true
}
