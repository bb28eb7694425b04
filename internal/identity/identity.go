// Package identity derives deduplication keys for content items and keeps
// the ordered set of keys already processed.
package identity

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"

	"FeedSignals/internal/domain"
)

const hashPrefix = "hash:"

// ID is the deduplication key of a content item.
type ID string

// Hash inputs are tagged by form so a title+summary digest never equals a
// text digest.
const (
	entryDomain = "entry\x00"
	textDomain  = "text\x00"
)

// Of returns the identity of an item: its URL when present, otherwise a
// blake3 digest of the normalized title and summary (or text).
func Of(item domain.ContentItem) ID {
	if u := strings.TrimSpace(item.URL); u != "" {
		return ID(u)
	}
	if item.Title != "" || item.Summary != "" {
		return hashOf(entryDomain + normalize(item.Title) + "\n" + normalize(item.Summary))
	}
	return hashOf(textDomain + normalize(item.Text))
}

func hashOf(input string) ID {
	sum := blake3.Sum256([]byte(input))
	return ID(hashPrefix + hex.EncodeToString(sum[:]))
}

func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Log is an insertion-ordered set of identities.
type Log struct {
	order []ID
	index map[ID]int
}

// NewLog builds a log from previously persisted identities, skipping blanks and repeats.
func NewLog(ids ...ID) *Log {
	l := &Log{index: make(map[ID]int, len(ids))}
	for _, id := range ids {
		l.Add(id)
	}
	return l
}

// Contains reports whether id was already recorded.
func (l *Log) Contains(id ID) bool {
	_, ok := l.index[id]
	return ok
}

// Add records id and reports whether it was not present before.
func (l *Log) Add(id ID) bool {
	if id == "" || l.Contains(id) {
		return false
	}
	if l.index == nil {
		l.index = map[ID]int{}
	}
	l.index[id] = len(l.order)
	l.order = append(l.order, id)
	return true
}

// Remove drops the given identities, keeping the order of the rest.
func (l *Log) Remove(ids ...ID) {
	if len(ids) == 0 || l.Len() == 0 {
		return
	}
	drop := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := l.order[:0]
	for _, id := range l.order {
		if _, ok := drop[id]; ok {
			delete(l.index, id)
			continue
		}
		l.index[id] = len(kept)
		kept = append(kept, id)
	}
	l.order = kept
}

// Len returns the number of recorded identities.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// Values returns a copy of the identities in insertion order.
func (l *Log) Values() []ID {
	if l == nil {
		return nil
	}
	return append([]ID(nil), l.order...)
}

// Strings returns the identities as plain strings, in insertion order.
func (l *Log) Strings() []string {
	out := make([]string, 0, l.Len())
	for _, id := range l.Values() {
		out = append(out, string(id))
	}
	return out
}

// FromStrings rebuilds a log from persisted string values.
func FromStrings(values []string) *Log {
	l := NewLog()
	for _, v := range values {
		l.Add(ID(strings.TrimSpace(v)))
	}
	return l
}
