package model

import "sort"

// RowIndex holds pre-computed lookups over a row slice.
// Rebuilt every time the rows are replaced.
type RowIndex struct {
	// Row key → index in the rows slice
	KeyToIndex map[string]int

	// Sorted distinct scalar values per field, used for value suggestions
	Distinct map[string][]string

	// Total number of rows when the index was built
	Total int
}

// BuildRowIndex constructs a RowIndex for the given rows and fields.
func BuildRowIndex(rows []Row, fields []string) *RowIndex {
	idx := &RowIndex{
		KeyToIndex: make(map[string]int, len(rows)),
		Distinct:   make(map[string][]string, len(fields)),
		Total:      len(rows),
	}

	sets := make(map[string]map[string]bool, len(fields))
	for _, f := range fields {
		sets[f] = make(map[string]bool)
	}

	for i, row := range rows {
		if k := row.Key(); k != "" {
			if _, dup := idx.KeyToIndex[k]; !dup {
				idx.KeyToIndex[k] = i
			}
		}
		for _, f := range fields {
			collectDistinct(sets[f], row[f])
		}
	}

	for f, set := range sets {
		idx.Distinct[f] = sortedKeys(set)
	}
	return idx
}

// Lookup returns the index of the row with the given id.
func (idx *RowIndex) Lookup(id any) (int, bool) {
	if idx == nil {
		return -1, false
	}
	i, ok := idx.KeyToIndex[KeyOf(id)]
	return i, ok
}

// Values returns the distinct values seen for field.
func (idx *RowIndex) Values(field string) []string {
	if idx == nil {
		return nil
	}
	return idx.Distinct[field]
}

func collectDistinct(set map[string]bool, v any) {
	switch t := v.(type) {
	case nil:
	case []any:
		for _, item := range t {
			collectDistinct(set, item)
		}
	case []string:
		for _, item := range t {
			if item != "" {
				set[item] = true
			}
		}
	case map[string]any:
	default:
		if s := KeyOf(t); s != "" {
			set[s] = true
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
