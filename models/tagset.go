package models

import (
	"sort"
	"strings"
)

// TagSet is a sorted set of lower-cased tags.
type TagSet []string

// NewTagSet normalises tags: trimmed, lower-cased, blanks dropped, deduplicated.
func NewTagSet(tags ...string) TagSet {
	seen := make(map[string]struct{}, len(tags))
	set := make(TagSet, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		set = append(set, t)
	}
	sort.Strings(set)
	return set
}

// Contains reports whether tag is in the set.
func (s TagSet) Contains(tag string) bool {
	i := sort.SearchStrings(s, tag)
	return i < len(s) && s[i] == tag
}

// IntersectionSize counts tags present in both sets.
func (s TagSet) IntersectionSize(other TagSet) int {
	n := 0
	i, j := 0, 0
	for i < len(s) && j < len(other) {
		switch {
		case s[i] == other[j]:
			n++
			i++
			j++
		case s[i] < other[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// Intersects reports whether the sets share at least one tag.
func (s TagSet) Intersects(other TagSet) bool {
	return s.IntersectionSize(other) > 0
}

// Jaccard is |s ∩ other| / |s ∪ other|, and 0 when both are empty.
func (s TagSet) Jaccard(other TagSet) float64 {
	inter := s.IntersectionSize(other)
	union := len(s) + len(other) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
