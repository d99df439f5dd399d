package columnar

// Grouping builds a single hash table with the same key machinery as the
// joins. Insertion order within one key's index list is input order, so
// First is the lowest index of the group; the order of groups themselves
// follows map iteration and is unspecified.

func (ca *Chunked[T]) groupTuples() ([]Group, error) {
	if sa, isStr := any(ca).(*Chunked[string]); isStr {
		return groupTuplesKeyed(sa, stringKey), nil
	}
	return groupTuplesKeyed(ca, scalarKey[T]), nil
}

func groupTuplesKeyed[T Elem, K comparable](ca *Chunked[T], key func(T) K) []Group {
	all := span{start: 0, end: ca.Len()}
	if ca.NullCount() == 0 {
		tbl := make(map[K][]uint32)
		ca.forEach(all, func(i int, v T, _ bool) {
			k := key(v)
			tbl[k] = append(tbl[k], uint32(i))
		})
		return collectGroups(tbl)
	}
	tbl := make(map[optKey[K]][]uint32)
	ca.forEach(all, func(i int, v T, valid bool) {
		var k optKey[K]
		if valid {
			k = optKey[K]{key: key(v), valid: true}
		}
		tbl[k] = append(tbl[k], uint32(i))
	})
	return collectGroups(tbl)
}

func collectGroups[K comparable](tbl map[K][]uint32) []Group {
	groups := make([]Group, 0, len(tbl))
	for _, idx := range tbl {
		groups = append(groups, Group{First: idx[0], Idx: idx})
	}
	return groups
}
