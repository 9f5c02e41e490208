// Package aggregate rolls a fetched slice of events up into a frequency
// summary. It performs no I/O and never mutates its input.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/loesoe/cortex/internal/domain/model"
)

// Caps on the frequency rankings.
const (
	maxTopEventTypes = 10
	maxTopTags       = 15
)

// TypeCount is one row of the event-type frequency ranking.
type TypeCount struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// TagCount is one row of the tag frequency ranking.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary is the windowed rollup over a batch of events.
type Summary struct {
	Total         int         `json:"total"`
	LastCreatedAt *time.Time  `json:"last_created_at"`
	TopEventTypes []TypeCount `json:"top_event_types"`
	TopTags       []TagCount  `json:"top_tags"`
}

// counter tracks counts while remembering first-occurrence order so that
// frequency ties rank in insertion order.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) top(n int) []TagCount {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]TagCount, len(keys))
	for i, k := range keys {
		out[i] = TagCount{Tag: k, Count: c.counts[k]}
	}
	return out
}

// Summarize produces the rollup: total count, most recent timestamp, and
// top event types/tags by frequency.
func Summarize(events []model.Event) Summary {
	byType := newCounter()
	byTag := newCounter()
	var last *time.Time

	for i := range events {
		e := &events[i]

		et := e.EventType
		if et == "" {
			et = "unknown"
		}
		byType.add(et)

		for _, t := range e.Tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			byTag.add(t)
		}

		if !e.CreatedAt.IsZero() && (last == nil || e.CreatedAt.After(*last)) {
			ts := e.CreatedAt
			last = &ts
		}
	}

	topTypes := byType.top(maxTopEventTypes)
	types := make([]TypeCount, len(topTypes))
	for i, t := range topTypes {
		types[i] = TypeCount{EventType: t.Tag, Count: t.Count}
	}

	return Summary{
		Total:         len(events),
		LastCreatedAt: last,
		TopEventTypes: types,
		TopTags:       byTag.top(maxTopTags),
	}
}
