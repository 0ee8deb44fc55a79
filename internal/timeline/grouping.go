package timeline

// Group holds all activities of one category. Activities is always the
// full list (collapsed categories overlay these on a single summary row);
// Rows repeats them only while the category is expanded, for row-level
// rendering.
type Group struct {
	Type       Type
	Activities []Activity
	Rows       []Activity
	Expanded   bool
}

// groupOrder is the canonical category display order. Types outside the
// list sort after it, preserving encounter order.
var groupOrder = []Type{TypeFlight, TypeTransport, TypeStay, TypeEvent, TypeTask, TypeNote}

// GroupActivities partitions activities by type, one group per type
// present in the data, in canonical order. Expanded state is caller-owned
// and keyed by type; grouping never mutates the activity list.
func GroupActivities(acts []Activity, expanded map[Type]bool) []Group {
	byType := make(map[Type][]Activity)
	var encounter []Type
	for _, a := range acts {
		if _, seen := byType[a.Type]; !seen {
			encounter = append(encounter, a.Type)
		}
		byType[a.Type] = append(byType[a.Type], a)
	}

	ordered := make([]Type, 0, len(encounter))
	for _, t := range groupOrder {
		if _, ok := byType[t]; ok {
			ordered = append(ordered, t)
		}
	}
	for _, t := range encounter {
		if !isCanonical(t) {
			ordered = append(ordered, t)
		}
	}

	groups := make([]Group, 0, len(ordered))
	for _, t := range ordered {
		g := Group{Type: t, Activities: byType[t], Expanded: expanded[t]}
		if g.Expanded {
			g.Rows = byType[t]
		}
		groups = append(groups, g)
	}
	return groups
}

func isCanonical(t Type) bool {
	for _, c := range groupOrder {
		if c == t {
			return true
		}
	}
	return false
}
