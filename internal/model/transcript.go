// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered record of a session. Turns are only ever
// appended; order is send order.
//
// A Transcript is not safe for concurrent use. The session controller
// serializes access to it.
type Transcript struct {
	turns []Turn
}

// NewTranscript creates a transcript holding the given turns in order.
func NewTranscript(turns ...Turn) *Transcript {
	tr := &Transcript{turns: make([]Turn, 0, len(turns))}
	tr.turns = append(tr.turns, turns...)
	return tr
}

// Append adds a turn at the end of the transcript.
func (tr *Transcript) Append(t Turn) {
	tr.turns = append(tr.turns, t)
}

// Len returns the number of turns.
func (tr *Transcript) Len() int {
	return len(tr.turns)
}

// Turns returns a copy of the turns in order.
func (tr *Transcript) Turns() []Turn {
	out := make([]Turn, len(tr.turns))
	copy(out, tr.turns)
	return out
}

// At returns the turn at index i.
func (tr *Transcript) At(i int) Turn {
	return tr.turns[i]
}

// Last returns the most recent turn, or false when the transcript is empty.
func (tr *Transcript) Last() (Turn, bool) {
	if len(tr.turns) == 0 {
		return Turn{}, false
	}
	return tr.turns[len(tr.turns)-1], true
}

// Count returns how many turns the given speaker produced.
func (tr *Transcript) Count(s Speaker) int {
	n := 0
	for _, t := range tr.turns {
		if t.speaker == s {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the transcript.
func (tr *Transcript) Clone() *Transcript {
	return NewTranscript(tr.turns...)
}

// =============================================================================
// SEARCH
// =============================================================================

// Match locates one occurrence of a search query.
// Offset is a byte offset into the turn's Line().
type Match struct {
	Turn   int
	Offset int
}

// Find returns every occurrence of query in the rendered transcript lines.
// Matching is case-sensitive and non-overlapping: the scan resumes at the end
// of the previous match. An empty query matches nothing.
func (tr *Transcript) Find(query string) []Match {
	if query == "" {
		return nil
	}
	var matches []Match
	for i, t := range tr.turns {
		line := t.Line()
		start := 0
		for {
			idx := strings.Index(line[start:], query)
			if idx < 0 {
				break
			}
			matches = append(matches, Match{Turn: i, Offset: start + idx})
			start += idx + len(query)
		}
	}
	return matches
}
