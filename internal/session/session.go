// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/doctalk/internal/document"
	"github.com/jeranaias/doctalk/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is the controller's position in the submit cycle.
type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting response"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrBusy is returned by Submit while a reply is still pending.
var ErrBusy = errors.New("still waiting for the previous reply")

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Asker sends a prompt to a model. It never fails; errors come back as
// reply text.
type Asker interface {
	Ask(ctx context.Context, model, prompt string) string
}

// Loader reads a document from disk.
type Loader interface {
	Load(ctx context.Context, path string) (*document.Document, error)
}

// Config wires a session to its collaborators.
type Config struct {
	Model  string
	Asker  Asker
	Loader Loader
	Logger *log.Logger
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the chat controller.
type Session struct {
	mu sync.Mutex

	id           string
	startTime    time.Time
	lastActivity time.Time

	model      string
	context    string
	document   *document.Document
	transcript *model.Transcript
	state      State
	dirty      bool // turns added since the last export

	asker  Asker
	loader Loader
	logger *log.Logger
}

// New creates an idle session with an empty transcript and no context.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := time.Now()
	return &Session{
		id:           "sess_" + uuid.NewString(),
		startTime:    now,
		lastActivity: now,
		model:        strings.TrimSpace(cfg.Model),
		transcript:   model.NewTranscript(),
		asker:        cfg.Asker,
		loader:       cfg.Loader,
		logger:       logger,
	}
}

// BuildPrompt combines document context and the latest message into the
// prompt sent to the model. Earlier turns are not included.
func BuildPrompt(context, text string) string {
	return context + "\n\nUser: " + text
}

// Submit sends text to the model and records both turns. Blank text is
// ignored and reports false. While a reply is pending it returns ErrBusy and
// changes nothing.
func (s *Session) Submit(ctx context.Context, text string) (bool, error) {
	req, ok, err := s.begin(text)
	if err != nil || !ok {
		return false, err
	}
	reply := s.asker.Ask(ctx, req.model, req.prompt)
	s.finish(req, reply)
	return true, nil
}

type request struct {
	model  string
	prompt string
	start  time.Time
}

// begin validates text, appends the user turn and moves to AwaitingResponse.
func (s *Session) begin(text string) (request, bool, error) {
	if strings.TrimSpace(text) == "" {
		return request{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == AwaitingResponse {
		return request{}, false, ErrBusy
	}
	if s.asker == nil {
		return request{}, false, errors.New("session has no inference client")
	}

	s.transcript.Append(model.NewTurn(model.SpeakerUser, text))
	s.state = AwaitingResponse
	s.dirty = true
	s.lastActivity = time.Now()

	req := request{model: s.model, prompt: BuildPrompt(s.context, text), start: time.Now()}
	s.logger.Printf("SUBMIT | session=%s model=%s prompt_bytes=%d", s.id, req.model, len(req.prompt))
	return req, true, nil
}

// finish appends the model turn and returns to Idle.
func (s *Session) finish(req request, reply string) model.Turn {
	turn := model.NewTurn(model.SpeakerModel, reply)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript.Append(turn)
	s.state = Idle
	s.lastActivity = time.Now()
	s.logger.Printf("REPLY | session=%s model=%s reply_bytes=%d latency=%dms", s.id, req.model, len(reply), time.Since(req.start).Milliseconds())
	return turn
}

// LoadDocument replaces the context with doc's text and announces it with
// a system turn. Any earlier document is discarded.
func (s *Session) LoadDocument(doc *document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.context = doc.Text
	s.document = doc
	s.transcript.Append(model.NewTurn(model.SpeakerSystem, LoadedMessage(doc)))
	s.dirty = true
	s.lastActivity = time.Now()
	s.logger.Printf("CONTEXT_REPLACED | session=%s document=%s kind=%s chars=%d", s.id, doc.Name, doc.Kind, len(doc.Text))
}

// LoadFile reads path and loads it as the context. On failure the session
// is left exactly as it was.
func (s *Session) LoadFile(ctx context.Context, path string) (*document.Document, error) {
	if s.loader == nil {
		return nil, errors.New("session has no document loader")
	}
	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		s.logger.Printf("LOAD_FAILED | session=%s path=%s error=%v", s.id, path, err)
		return nil, err
	}
	s.LoadDocument(doc)
	return doc, nil
}

// LoadedMessage is the system turn text announcing doc.
func LoadedMessage(doc *document.Document) string {
	if doc.Kind == document.KindPDF {
		return fmt.Sprintf("PDF '%s' content loaded. You can now chat about it.", doc.Name)
	}
	return fmt.Sprintf("File '%s' content loaded. You can now chat about it.", doc.Name)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// SetModel selects the model used by subsequent submits.
func (s *Session) SetModel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = strings.TrimSpace(id)
	s.logger.Printf("MODEL_SELECTED | session=%s model=%s", s.id, s.model)
}

// Model returns the selected model id, empty when none is selected.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Context returns the current document context.
func (s *Session) Context() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.context
}

// Document returns the loaded document, or nil.
func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// Transcript returns a snapshot of the transcript.
func (s *Session) Transcript() *model.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Clone()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartTime returns when the session started.
func (s *Session) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// Duration returns how long the session has been active.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// IdleTime returns how long since the last turn.
func (s *Session) IdleTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// IsDirty reports whether turns were added since MarkClean.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkClean records that the transcript has been exported.
func (s *Session) MarkClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}
