// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import "fmt"

// Items is the ordered list of measure labels under review. Duplicates are
// allowed and order is always preserved.
type Items []string

// LabelFunc returns the label for a new item appended at position n
// (0-based).
type LabelFunc func(n int) string

// DefaultLabel is the positional placeholder for a new measure.
func DefaultLabel(n int) string {
	return fmt.Sprintf("Measure %d: ...", n+1)
}

// Clone returns an independent copy.
func (it Items) Clone() Items {
	if it == nil {
		return nil
	}
	out := make(Items, len(it))
	copy(out, it)
	return out
}

// Edit replaces the label at i. Out-of-range indexes are ignored.
func (it Items) Edit(i int, text string) bool {
	if i < 0 || i >= len(it) {
		return false
	}
	it[i] = text
	return true
}

// Remove deletes the label at i, keeping the order of the rest.
// Out-of-range indexes are ignored.
func (it *Items) Remove(i int) bool {
	s := *it
	if i < 0 || i >= len(s) {
		return false
	}
	*it = append(s[:i:i], s[i+1:]...)
	return true
}

// Add appends a new label built by label (DefaultLabel when nil). When the
// label already exists the position passed to label is bumped until it
// yields an unused one.
func (it *Items) Add(label LabelFunc) string {
	if label == nil {
		label = DefaultLabel
	}
	s := *it
	text := label(len(s))
	for k := len(s) + 1; k <= 2*len(s)+1 && it.contains(text); k++ {
		text = label(k)
	}
	*it = append(s, text)
	return text
}

func (it Items) contains(text string) bool {
	for _, s := range it {
		if s == text {
			return true
		}
	}
	return false
}
