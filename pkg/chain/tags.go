package chain

import "slices"

// IsPrivate reports whether tag must never be copied from one note to
// another: a stage marker or an operational tag such as "leech".
func (c *Chain) IsPrivate(tag string) bool {
	return c.private[tag]
}

// SharedTags returns the sorted, de-duplicated tags that are not private.
func (c *Chain) SharedTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !c.IsPrivate(t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// MergeTags keeps the private tags of dst and takes every shared tag from
// src. Shared tags of dst that src lacks are dropped. The result is sorted
// and de-duplicated; neither argument is modified.
func (c *Chain) MergeTags(src, dst []string) []string {
	out := make([]string, 0, len(src)+len(dst))
	for _, t := range dst {
		if c.IsPrivate(t) {
			out = append(out, t)
		}
	}
	for _, t := range src {
		if !c.IsPrivate(t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// SharedTagsEqual reports whether a and b carry the same shared tags,
// ignoring order and duplicates.
func (c *Chain) SharedTagsEqual(a, b []string) bool {
	return slices.Equal(c.SharedTags(a), c.SharedTags(b))
}
