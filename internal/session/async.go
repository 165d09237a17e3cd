// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	"github.com/jeranaias/doctalk/internal/model"
)

// Pending is a reply being produced in the background.
type Pending struct {
	done   chan struct{}
	cancel context.CancelFunc
	turn   model.Turn
}

// SubmitAsync records the user turn immediately and asks the model on a
// separate goroutine. It returns (nil, nil) for blank text and ErrBusy while
// another reply is pending. Cancelling the returned Pending aborts the
// inference call; the reply turn then carries the cancellation error text.
func (s *Session) SubmitAsync(ctx context.Context, text string) (*Pending, error) {
	req, ok, err := s.begin(text)
	if err != nil || !ok {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pending{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(p.done)
		defer cancel()
		reply := s.asker.Ask(ctx, req.model, req.prompt)
		p.turn = s.finish(req, reply)
	}()
	return p, nil
}

// Done is closed once the reply turn has been appended.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the reply turn is appended and returns it.
func (p *Pending) Wait() model.Turn {
	<-p.done
	return p.turn
}

// Cancel aborts the inference call. It is safe to call more than once.
func (p *Pending) Cancel() {
	p.cancel()
}
