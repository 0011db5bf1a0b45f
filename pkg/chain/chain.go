// Package chain models the ordered list of stages notes propagate through,
// resolves a note type name to its stage, and merges tags without leaking
// stage-private tags between notes.
package chain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultOperationalTags are private tags that are not stage markers.
var DefaultOperationalTags = []string{"leech"}

// Chain construction errors.
var (
	ErrTooFewStages      = errors.New("chain needs at least two stages")
	ErrEmptyStage        = errors.New("stage name must not be empty")
	ErrDuplicateStage    = errors.New("duplicate stage name")
	ErrOverlappingStages = errors.New("stage name is a substring of another stage name")
	ErrStageOutOfRange   = errors.New("stage index out of range")
)

// Chain is an immutable ordered list of stages. Index 0 is the master stage;
// every later index is a derivative stage.
type Chain struct {
	stages  []string
	tags    []string
	private map[string]bool
}

// New builds a Chain from stage names in propagation order. operationalTags
// are added to the private tag set alongside the lowercased stage names.
//
// No stage name may be a substring of another: Resolve and Sibling work by
// substring match, so overlapping names would make a type name ambiguous.
func New(stages []string, operationalTags ...string) (*Chain, error) {
	if len(stages) < 2 {
		return nil, ErrTooFewStages
	}
	c := &Chain{
		stages:  slices.Clone(stages),
		tags:    make([]string, len(stages)),
		private: make(map[string]bool, len(stages)+len(operationalTags)),
	}
	seen := make(map[string]int, len(stages))
	for i, s := range stages {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("stage %d: %w", i, ErrEmptyStage)
		}
		tag := strings.ToLower(s)
		if j, ok := seen[tag]; ok {
			return nil, fmt.Errorf("%q and %q: %w", stages[j], s, ErrDuplicateStage)
		}
		seen[tag] = i
		c.tags[i] = tag
		c.private[tag] = true
	}
	for i, a := range stages {
		for j, b := range stages {
			if i != j && strings.Contains(b, a) {
				return nil, fmt.Errorf("%q in %q: %w", a, b, ErrOverlappingStages)
			}
		}
	}
	for _, t := range operationalTags {
		if t != "" {
			c.private[t] = true
		}
	}
	return c, nil
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// Stages returns a copy of the stage names in order.
func (c *Chain) Stages() []string { return slices.Clone(c.stages) }

// Stage returns the name of stage i. It panics if i is out of range.
func (c *Chain) Stage(i int) string { return c.stages[i] }

// Tag returns the marker tag of stage i: its lowercased name.
func (c *Chain) Tag(i int) string { return c.tags[i] }

// IsMaster reports whether i is the master stage.
func (c *Chain) IsMaster(i int) bool { return i == 0 }

// IsTerminal reports whether i is the last stage, past which nothing can be
// copied.
func (c *Chain) IsTerminal(i int) bool { return i == len(c.stages)-1 }

// PrivateTags returns the sorted private tag set.
func (c *Chain) PrivateTags() []string {
	out := make([]string, 0, len(c.private))
	for t := range c.private {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// String joins the stage names with commas.
func (c *Chain) String() string { return strings.Join(c.stages, ",") }
