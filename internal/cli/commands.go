// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - slash commands available inside the chat REPL.

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/doctalk/internal/document"
	"github.com/jeranaias/doctalk/internal/export"
	"github.com/jeranaias/doctalk/internal/model"
	"github.com/jeranaias/doctalk/internal/ui/styles"
	"github.com/jeranaias/doctalk/internal/util"
)

// historyPreviewWidth bounds the per-turn preview printed by /history.
const historyPreviewWidth = 100

// handleSlashCommand runs one chat command. It returns false when the chat
// should end.
func (c *Chat) handleSlashCommand(ctx context.Context, input string) (bool, error) {
	command, rest, _ := strings.Cut(input, " ")
	command = strings.ToLower(command)
	rest = strings.TrimSpace(rest)

	switch command {
	case "/help", "/h", "/?", "/":
		c.printHelp()
		return true, nil

	case "/load", "/l":
		if rest == "" {
			return true, ErrMissingArgument("document path", "/load report.pdf")
		}
		return true, c.Load(ctx, rest)

	case "/model", "/m":
		c.handleModelCommand(rest)
		return true, nil

	case "/models":
		return true, c.handleModelsCommand(ctx)

	case "/find", "/f":
		if rest == "" {
			return true, ErrMissingArgument("search text", "/find revenue")
		}
		c.printFind(rest)
		return true, nil

	case "/history":
		c.printHistory()
		return true, nil

	case "/export", "/save":
		return true, c.handleExport(ctx, rest, "")

	case "/export-pdf":
		return true, c.handleExport(ctx, rest, ".pdf")

	case "/status", "/s":
		c.printStatus()
		return true, nil

	case "/quit", "/q", "/exit":
		return c.handleQuit(), nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleQuit ends the chat, asking once for confirmation when there are
// turns that were never exported.
func (c *Chat) handleQuit() bool {
	if c.sess.IsDirty() && !c.quitWarned {
		c.quitWarned = true
		fmt.Fprintln(c.errOut, styles.RenderWarning("The transcript has not been exported. /export PATH to save it, or /quit again to exit."))
		return true
	}
	return false
}

func (c *Chat) handleModelCommand(id string) {
	if id == "" {
		fmt.Fprintf(c.out, "%s Current model: %s\n", DimStyle.Render("[Model]"), ValueStyle.Render(c.sess.Model()))
		return
	}
	c.sess.SetModel(id)
	fmt.Fprintln(c.out, styles.RenderSuccess("Switched to model: "+c.sess.Model()))
}

// handleModelsCommand lists installed models and lets the user pick one.
func (c *Chat) handleModelsCommand(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	models, err := c.app.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Fprintln(c.out, styles.RenderWarning("No models installed (try: ollama pull <model>)"))
		return nil
	}

	choice, ok, err := c.pick(models, c.sess.Model())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	c.handleModelCommand(choice)
	return nil
}

// handleExport writes the transcript. Without a path the file is named
// after the document and the current time. forceExt selects PDF for
// /export-pdf.
func (c *Chat) handleExport(ctx context.Context, path, forceExt string) error {
	written, err := c.Export(ctx, path, forceExt)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, styles.RenderSuccess("Transcript exported to "+written))
	return nil
}

// Export writes the transcript to path in the format its extension names
// and returns the path written.
func (c *Chat) Export(ctx context.Context, path, forceExt string) (string, error) {
	meta := c.meta()
	if path == "" {
		ext := forceExt
		if ext == "" {
			ext = ".txt"
		}
		path = export.DefaultFilename(c.app.Config.Export.Dir, meta, ext, c.now())
	}

	tr := c.sess.Transcript()
	format := export.FormatFromPath(path)
	if forceExt == ".pdf" {
		format = export.FormatPDF
	}

	switch format {
	case export.FormatPDF:
		if c.app.PDF == nil {
			return "", errNoPDF
		}
		path = export.PDFPathFor(path)
		if err := c.app.PDF.WritePDF(ctx, path, tr); err != nil {
			return "", err
		}
	case export.FormatText:
		if err := export.WriteText(path, tr); err != nil {
			return "", err
		}
	default:
		exporter, err := export.ForFormat(format, export.DefaultOptions())
		if err != nil {
			return "", err
		}
		if err := export.WriteFile(path, exporter, tr, meta); err != nil {
			return "", err
		}
	}

	c.sess.MarkClean()
	c.quitWarned = false
	return path, nil
}

func (c *Chat) meta() export.Meta {
	meta := export.Meta{
		SessionID: c.sess.ID(),
		Model:     c.sess.Model(),
		CreatedAt: c.sess.StartTime(),
	}
	if doc := c.sess.Document(); doc != nil {
		meta.Document = doc.Name
	}
	return meta
}

// =============================================================================
// DISPLAY
// =============================================================================

func (c *Chat) printHelp() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, TitleStyle.Render("Chat Commands"))
	fmt.Fprintln(c.out, RenderSeparator(20))

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/load PATH", "Load a text or PDF document as context"},
		{"/model [ID]", "Show or switch model"},
		{"/models", "Pick from installed models"},
		{"/find TEXT", "Highlight TEXT in the transcript"},
		{"/history", "Show the transcript"},
		{"/export [PATH]", "Export (.txt, .md, .json, .pdf)"},
		{"/export-pdf [PATH]", "Export as PDF via pandoc"},
		{"/status", "Session status"},
		{"/quit, /q", "Exit chat"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(c.out, "  %s  %s\n",
			ValueStyle.Render(util.PadRight(cmd.cmd, 20)),
			DimStyle.Render(cmd.desc))
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, DimStyle.Render("Ctrl+C cancels a pending reply, Ctrl+D exits"))
	fmt.Fprintln(c.out)
}

func (c *Chat) printStatus() {
	tr := c.sess.Transcript()

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, TitleStyle.Render("Session Status"))
	fmt.Fprintln(c.out, RenderSeparator(20))
	fmt.Fprintln(c.out, RenderField("Session:", c.sess.ID()))
	fmt.Fprintln(c.out, RenderField("Model:", c.sess.Model()))
	fmt.Fprintln(c.out, RenderField("State:", c.sess.State().String()))

	if doc := c.sess.Document(); doc != nil {
		desc := fmt.Sprintf("%s (%s, %d chars)", doc.Name, doc.Kind, len(doc.Text))
		if doc.Kind == document.KindPDF {
			desc = fmt.Sprintf("%s (pdf, %d pages, %d chars)", doc.Name, doc.Pages, len(doc.Text))
			if doc.OCR {
				desc += " via OCR"
			}
		}
		fmt.Fprintln(c.out, RenderField("Document:", desc))
	} else {
		fmt.Fprintln(c.out, RenderField("Document:", "none"))
	}

	fmt.Fprintln(c.out, RenderField("Turns:", fmt.Sprintf("%d (%d you, %d model, %d system)",
		tr.Len(),
		tr.Count(model.SpeakerUser),
		tr.Count(model.SpeakerModel),
		tr.Count(model.SpeakerSystem))))
	fmt.Fprintln(c.out, RenderField("Duration:", c.sess.Duration().Round(time.Second).String()))
	fmt.Fprintln(c.out, RenderField("Idle:", c.sess.IdleTime().Round(time.Second).String()))
	if c.sess.IsDirty() {
		fmt.Fprintln(c.out, RenderField("Exported:", "no"))
	} else {
		fmt.Fprintln(c.out, RenderField("Exported:", "yes"))
	}
	fmt.Fprintln(c.out)
}

func (c *Chat) printHistory() {
	tr := c.sess.Transcript()
	if tr.Len() == 0 {
		fmt.Fprintln(c.out, DimStyle.Render("[No messages yet]"))
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, TitleStyle.Render("Conversation History"))
	fmt.Fprintln(c.out, RenderSeparator(25))
	for i, turn := range tr.Turns() {
		preview := util.TruncateWidth(util.SingleLine(turn.Text()), historyPreviewWidth)
		fmt.Fprintf(c.out, "  %d. %s: %s\n", i+1, styles.RenderSpeaker(turn.Speaker()), preview)
	}
	fmt.Fprintln(c.out)
}

// printFind prints every turn containing query with each match highlighted.
func (c *Chat) printFind(query string) {
	tr := c.sess.Transcript()
	matches := tr.Find(query)
	if len(matches) == 0 {
		fmt.Fprintln(c.out, styles.RenderInfo(fmt.Sprintf("No matches for %q", query)))
		return
	}

	byTurn := make(map[int][]int)
	var order []int
	for _, m := range matches {
		if _, seen := byTurn[m.Turn]; !seen {
			order = append(order, m.Turn)
		}
		byTurn[m.Turn] = append(byTurn[m.Turn], m.Offset)
	}

	fmt.Fprintln(c.out, styles.RenderInfo(fmt.Sprintf("%d match(es) for %q in %d turn(s)", len(matches), query, len(order))))
	for _, idx := range order {
		fmt.Fprintf(c.out, "  %d. %s\n", idx+1, highlightMatches(tr.At(idx).Line(), byTurn[idx], len(query)))
	}
}

// highlightMatches wraps each match of length n starting at offsets.
// Offsets must be ascending and non-overlapping.
func highlightMatches(line string, offsets []int, n int) string {
	var b strings.Builder
	prev := 0
	for _, off := range offsets {
		if off < prev || off+n > len(line) {
			continue
		}
		b.WriteString(line[prev:off])
		b.WriteString(styles.RenderMatch(line[off : off+n]))
		prev = off + n
	}
	b.WriteString(line[prev:])
	return b.String()
}

// errNoPDF is returned by /export-pdf when no converter is configured.
var errNoPDF = errors.New("pdf export is not configured")
