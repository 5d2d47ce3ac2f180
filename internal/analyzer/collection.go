package analyzer

import "authviz/internal/types"

// Collection is the append-only, file-ordered set of attempts from one scan
type Collection struct {
	attempts []types.LoginAttempt
	skipped  map[string]int
	lines    int
}

func newCollection() *Collection {
	return &Collection{skipped: make(map[string]int)}
}

func (c *Collection) append(a types.LoginAttempt) {
	c.attempts = append(c.attempts, a)
}

func (c *Collection) skip(reason string) {
	c.skipped[reason]++
}

// Attempts returns a copy of the attempts in file order
func (c *Collection) Attempts() []types.LoginAttempt {
	out := make([]types.LoginAttempt, len(c.attempts))
	copy(out, c.attempts)
	return out
}

func (c *Collection) Len() int {
	return len(c.attempts)
}

// Lines is the number of lines scanned
func (c *Collection) Lines() int {
	return c.lines
}

// Skipped returns how many lines were dropped, by reason
func (c *Collection) Skipped() map[string]int {
	out := make(map[string]int, len(c.skipped))
	for k, v := range c.skipped {
		out[k] = v
	}
	return out
}
