// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state of one chat: the selected model, the
// loaded document context and the transcript.
//
// Every submitted message produces exactly two turns, the user's message and
// the model's reply. A failed inference call still produces a reply turn
// carrying the "Error: ..." text, so the transcript always alternates.
//
// # Key Types
//
//   - Session: the controller, safe for concurrent use
//   - Pending: handle for a reply running in the background
//   - State: Idle or AwaitingResponse
//
// # Usage
//
//	s := session.New(session.Config{Model: "llama3.2", Asker: client, Loader: loader})
//	if _, err := s.LoadFile(ctx, "notes.pdf"); err != nil {
//	    // *document.IOError or *document.ExtractionError, session unchanged
//	}
//	s.Submit(ctx, "Summarize the document")
//
// Only one reply can be outstanding; a second Submit while a reply is
// pending returns ErrBusy.
package session
