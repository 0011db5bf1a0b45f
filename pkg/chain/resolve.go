package chain

import (
	"fmt"
	"strings"
)

// Resolve returns the index of the first stage, in chain order, whose name
// occurs in typeName. The second result is false when no stage name occurs.
func (c *Chain) Resolve(typeName string) (int, bool) {
	for i, s := range c.stages {
		if strings.Contains(typeName, s) {
			return i, true
		}
	}
	return -1, false
}

// Sibling derives the name of the deck or note type at stage to from a name
// at stage from by replacing every occurrence of the from token.
func (c *Chain) Sibling(name string, from, to int) (string, error) {
	if from < 0 || from >= len(c.stages) || to < 0 || to >= len(c.stages) {
		return "", fmt.Errorf("sibling %d -> %d: %w", from, to, ErrStageOutOfRange)
	}
	return strings.ReplaceAll(name, c.stages[from], c.stages[to]), nil
}
