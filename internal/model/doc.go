// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the transcript data structures for a chat session.
//
// # Key Types
//
//   - Speaker: who produced a turn (User, Model, System)
//   - Turn: one immutable contribution to the transcript
//   - Transcript: append-only, chronologically ordered sequence of turns
//
// # Usage
//
//	var tr model.Transcript
//	tr.Append(model.NewTurn(model.SpeakerUser, "Hello"))
//	tr.Append(model.NewTurn(model.SpeakerModel, "Hi there"))
//	for _, m := range tr.Find("Hi") {
//	    fmt.Println(m.Turn, m.Offset)
//	}
package model
