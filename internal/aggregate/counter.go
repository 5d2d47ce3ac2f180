package aggregate

import "sort"

// Entry is one key of a Counter with its count
type Entry struct {
	Key   string
	Count int
}

// Counter counts occurrences per key and remembers the order in which keys
// were first seen.
type Counter struct {
	counts map[string]int
	order  []string
	total  int
}

// NewCounter creates an empty counter
func NewCounter() *Counter {
	return &Counter{
		counts: make(map[string]int),
	}
}

// Add records one occurrence of key and returns its new count
func (c *Counter) Add(key string) int {
	if _, exists := c.counts[key]; !exists {
		c.order = append(c.order, key)
	}
	c.counts[key]++
	c.total++
	return c.counts[key]
}

// Count returns the count for key
func (c *Counter) Count(key string) int {
	return c.counts[key]
}

// Keys returns the keys in first-seen order
func (c *Counter) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len is the number of distinct keys
func (c *Counter) Len() int {
	return len(c.order)
}

// Total is the sum of all counts
func (c *Counter) Total() int {
	return c.total
}

// Sorted returns all entries by count descending, ties by key ascending
func (c *Counter) Sorted() []Entry {
	entries := make([]Entry, 0, len(c.order))
	for _, k := range c.order {
		entries = append(entries, Entry{Key: k, Count: c.counts[k]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}
