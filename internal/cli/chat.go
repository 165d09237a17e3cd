// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler.
//
// Handles "doctalk chat" (the default command): a line-editing REPL over a
// session. Plain lines are sent to the model with the loaded document as
// context; lines starting with "/" are chat commands (see commands.go).
//
//	doctalk                           Start chat (picker opens without a model)
//	doctalk chat --model llama3:8b    Use a specific model
//	doctalk chat report.pdf           Start with a document loaded
//
// Ctrl+C while a reply is pending cancels it. Ctrl+C or Ctrl+D at the
// prompt exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/doctalk/internal/config"
	"github.com/jeranaias/doctalk/internal/document"
	"github.com/jeranaias/doctalk/internal/model"
	"github.com/jeranaias/doctalk/internal/ollama"
	"github.com/jeranaias/doctalk/internal/session"
	"github.com/jeranaias/doctalk/internal/ui/picker"
	"github.com/jeranaias/doctalk/internal/ui/styles"
)

// watchDebounce is how long a document must stay unchanged before reload.
const watchDebounce = 500 * time.Millisecond

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader provides input history and line editing for the REPL.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		historyFile = ""
	}
	r := &lineReader{line: line, historyFile: historyFile}
	r.loadHistory()
	return r
}

func (r *lineReader) loadHistory() {
	if r.historyFile == "" {
		return
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line; non-blank lines are added to history.
func (r *lineReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *lineReader) saveHistory() {
	if r.historyFile == "" || config.EnsureConfigDir() != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (r *lineReader) Close() {
	r.saveHistory()
	r.line.Close()
}

// =============================================================================
// CHAT STATE
// =============================================================================

// Chat drives one session from typed lines. It is separate from the
// terminal so the command handling can be exercised with plain writers.
type Chat struct {
	app      *App
	sess     *session.Session
	out      io.Writer
	errOut   io.Writer
	renderer *Renderer
	quiet    bool

	now  func() time.Time
	pick func(models []string, current string) (string, bool, error)

	mu      sync.Mutex
	pending *session.Pending

	watcher    *document.Watcher
	quitWarned bool
}

// NewChat creates a chat over sess writing replies to out and notifications
// to errOut.
func NewChat(app *App, sess *session.Session, out, errOut io.Writer) *Chat {
	return &Chat{
		app:      app,
		sess:     sess,
		out:      out,
		errOut:   errOut,
		renderer: &Renderer{},
		now:      time.Now,
		pick: func(models []string, current string) (string, bool, error) {
			return picker.Run(os.Stdin, os.Stderr, "Select a model", models, current)
		},
	}
}

// Session returns the chat's session.
func (c *Chat) Session() *session.Session {
	return c.sess
}

// Handle processes one input line. It returns false when the chat should
// end.
func (c *Chat) Handle(ctx context.Context, line string) (bool, error) {
	input := strings.TrimSpace(line)
	if input == "" {
		return true, nil
	}
	if strings.HasPrefix(input, "/") {
		return c.handleSlashCommand(ctx, input)
	}
	return true, c.Submit(ctx, line)
}

// Submit sends text to the model and prints the reply. Blocks until the
// reply arrives or Cancel is called.
func (c *Chat) Submit(ctx context.Context, text string) error {
	p, err := c.sess.SubmitAsync(ctx, text)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}

	c.mu.Lock()
	c.pending = p
	c.mu.Unlock()

	turn := p.Wait()

	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()

	c.printReply(turn)
	return nil
}

// Cancel aborts the reply in flight. It reports whether there was one.
func (c *Chat) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return false
	}
	c.pending.Cancel()
	return true
}

func (c *Chat) printReply(turn model.Turn) {
	fmt.Fprintln(c.out)
	if ollama.IsErrorReply(turn.Text()) {
		fmt.Fprintf(c.out, "%s: %s\n\n", styles.RenderSpeaker(turn.Speaker()),
			lipgloss.NewStyle().Foreground(styles.Rose).Render(turn.Text()))
		return
	}
	rendered := c.renderer.Render(turn.Text())
	fmt.Fprintf(c.out, "%s:\n%s\n", styles.RenderSpeaker(turn.Speaker()), strings.TrimRight(rendered, "\n"))
	fmt.Fprintln(c.out)
}

// Load loads path into the session and starts watching it when enabled.
func (c *Chat) Load(ctx context.Context, path string) error {
	doc, err := c.sess.LoadFile(ctx, path)
	if err != nil {
		return err
	}
	msg := session.LoadedMessage(doc)
	if doc.OCR {
		msg += fmt.Sprintf(" (OCR, %d pages)", doc.Pages)
	}
	fmt.Fprintf(c.out, "%s: %s\n", styles.RenderSpeaker(model.SpeakerSystem), msg)
	c.watch(doc.Path)
	return nil
}

// =============================================================================
// DOCUMENT WATCHING
// =============================================================================

func (c *Chat) watch(path string) {
	if !c.app.Config.Document.Watch {
		return
	}
	c.stopWatch()
	w, err := document.NewWatcher(path, watchDebounce)
	if err != nil {
		c.app.Logger.Printf("WATCH_FAILED | path=%s error=%v", path, err)
		return
	}
	c.watcher = w
	c.app.Logger.Printf("WATCH_START | path=%s", w.Path())
}

func (c *Chat) stopWatch() {
	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
}

// reloadIfChanged reloads the watched document when it changed since the
// last turn.
func (c *Chat) reloadIfChanged(ctx context.Context) {
	if c.watcher == nil {
		return
	}
	select {
	case path := <-c.watcher.Events():
		if _, err := c.sess.LoadFile(ctx, path); err != nil {
			c.notifyError(err)
			return
		}
		fmt.Fprintln(c.out, styles.RenderInfo("Document changed on disk; reloaded."))
	default:
	}
}

// Close releases the watcher.
func (c *Chat) Close() {
	c.stopWatch()
}

func (c *Chat) notifyError(err error) {
	fmt.Fprintln(c.errOut, styles.RenderError(err.Error()))
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// RunChat runs the interactive chat until the user quits.
func RunChat(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if cfg.UI.NoColor {
		DisableColors()
	}
	app := NewApp(cfg, NewLogger(args.Verbose))
	ctx := context.Background()

	modelID := app.ResolveModel(args.Model)
	if modelID == "" {
		if !IsTTY() {
			return &UsageError{
				Reason:  "no model selected",
				Example: "doctalk --model llama3:8b (or set ollama.default_model)",
			}
		}
		models, err := app.ListModels(ctx)
		if err != nil {
			return err
		}
		choice, ok, err := picker.Run(os.Stdin, os.Stderr, "Select a model", models, "")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		modelID = choice
	}

	chat := NewChat(app, app.NewSession(modelID), os.Stdout, os.Stderr)
	chat.renderer = NewRenderer(cfg.UI.Markdown, cfg.UI.WordWrap)
	chat.quiet = args.Quiet
	defer chat.Close()

	if !chat.quiet {
		chat.printWelcome()
	}
	if args.File != "" {
		if err := chat.Load(ctx, args.File); err != nil {
			chat.notifyError(err)
		}
	}

	input := newLineReader()
	defer input.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if chat.Cancel() {
				fmt.Fprintln(os.Stderr, "\n"+styles.RenderWarning("Cancelled"))
			}
		}
	}()

	for {
		line, err := input.ReadInput(PromptStyle.Render("doctalk> "))
		if err != nil {
			// Ctrl+C (liner.ErrPromptAborted), Ctrl+D (io.EOF) or a
			// terminal error all end the chat
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				app.Logger.Printf("INPUT_ERROR | error=%v", err)
			}
			fmt.Println()
			break
		}

		chat.reloadIfChanged(ctx)

		cont, err := chat.Handle(ctx, line)
		if err != nil {
			chat.notifyError(err)
		}
		if !cont {
			break
		}
	}

	chat.printExitSummary()
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (c *Chat) printWelcome() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, WelcomeStyle.Render("doctalk interactive chat"))
	fmt.Fprintln(c.out, RenderSeparator(30))
	fmt.Fprintln(c.out, RenderField("Model:", c.sess.Model()))
	fmt.Fprintln(c.out, RenderField("Backend:", c.app.Config.Ollama.Backend))
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, DimStyle.Render("Type a message and press Enter. /load PATH adds a document, /help lists commands."))
	fmt.Fprintln(c.out)
}

func (c *Chat) printExitSummary() {
	tr := c.sess.Transcript()
	if tr.Count(model.SpeakerUser) > 0 && !c.quiet {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, TitleStyle.Render("Session Summary"))
		fmt.Fprintln(c.out, RenderSeparator(15))
		fmt.Fprintln(c.out, RenderField("Questions:", fmt.Sprintf("%d", tr.Count(model.SpeakerUser))))
		fmt.Fprintln(c.out, RenderField("Duration:", c.sess.Duration().Round(time.Second).String()))
		if c.sess.IsDirty() {
			fmt.Fprintln(c.out, styles.RenderWarning("Transcript was not exported."))
		}
	}
	fmt.Fprintln(c.out, DimStyle.Render("Goodbye!"))
}
