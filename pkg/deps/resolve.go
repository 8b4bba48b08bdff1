package deps

// Filter may adjust a computed closure before it is returned.
type Filter func(result Set, reg Registry, seeds []Handle) Set

// Resolve returns every handle reachable from seeds through one or more dependency edges.
//
// Handles missing from reg contribute no edges. A handle is expanded at most once, so
// cycles terminate. A seed is part of the result only when some seed depends on it,
// directly or through a cycle.
func Resolve(reg Registry, seeds ...Handle) Set {
	result := make(Set)
	if reg == nil {
		return result
	}

	stack := make([]Handle, 0, len(seeds))
	for i := len(seeds) - 1; i >= 0; i-- {
		stack = append(stack, seeds[i])
	}

	expanded := make(Set, len(seeds))
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !expanded.Add(h) {
			continue
		}
		direct, ok := reg.Deps(h)
		if !ok {
			continue
		}
		for i := len(direct) - 1; i >= 0; i-- {
			d := direct[i]
			result.Add(d)
			if !expanded.Has(d) {
				stack = append(stack, d)
			}
		}
	}
	return result
}

// ResolveWith is Resolve followed by an optional filter.
func ResolveWith(reg Registry, filter Filter, seeds ...Handle) Set {
	result := Resolve(reg, seeds...)
	if filter == nil {
		return result
	}
	if filtered := filter(result, reg, seeds); filtered != nil {
		return filtered
	}
	return result
}

// Closure returns seed together with everything it transitively depends on.
func Closure(reg Registry, filter Filter, seed Handle) Set {
	return ResolveWith(reg, filter, seed).Union(NewSet(seed))
}
