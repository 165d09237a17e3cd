// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SPEAKER TYPE
// =============================================================================

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerModel  Speaker = "model"
	SpeakerSystem Speaker = "system"
)

// String returns the canonical name of the speaker.
func (s Speaker) String() string {
	return string(s)
}

// Label returns the name shown in front of the speaker's turns in the
// transcript and in text exports.
func (s Speaker) Label() string {
	switch s {
	case SpeakerUser:
		return "You"
	case SpeakerModel:
		return "Model"
	case SpeakerSystem:
		return "System"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the known speakers.
func (s Speaker) Valid() bool {
	switch s {
	case SpeakerUser, SpeakerModel, SpeakerSystem:
		return true
	}
	return false
}

// ParseSpeaker maps a label or canonical name back to a Speaker.
// Matching is case-insensitive; "You" and "User" both map to SpeakerUser.
func ParseSpeaker(name string) (Speaker, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "you", "user":
		return SpeakerUser, true
	case "model", "assistant":
		return SpeakerModel, true
	case "system":
		return SpeakerSystem, true
	}
	return "", false
}

// Speakers lists the known speakers in display order.
func Speakers() []Speaker {
	return []Speaker{SpeakerUser, SpeakerModel, SpeakerSystem}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one speaker's contribution to the transcript.
// Fields are unexported; a turn cannot change after it is created.
type Turn struct {
	id        string
	speaker   Speaker
	text      string
	timestamp time.Time
}

// NewTurn creates a turn stamped with the current time.
func NewTurn(speaker Speaker, text string) Turn {
	return NewTurnAt(speaker, text, time.Now())
}

// NewTurnAt creates a turn with an explicit timestamp.
func NewTurnAt(speaker Speaker, text string, at time.Time) Turn {
	return Turn{
		id:        "turn_" + uuid.NewString(),
		speaker:   speaker,
		text:      text,
		timestamp: at,
	}
}

func (t Turn) ID() string { return t.id }
func (t Turn) Speaker() Speaker { return t.speaker }
func (t Turn) Text() string { return t.text }
func (t Turn) Timestamp() time.Time { return t.timestamp }

// IsZero reports whether t is the zero Turn.
func (t Turn) IsZero() bool {
	return t.id == ""
}

// Line renders the turn as "{label}: {text}".
func (t Turn) Line() string {
	return t.speaker.Label() + ": " + t.text
}
