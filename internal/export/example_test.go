// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export_test

import (
	"fmt"

	"github.com/jeranaias/doctalk/internal/export"
	"github.com/jeranaias/doctalk/internal/model"
)

// ExampleText shows the plain-text transcript format.
func ExampleText() {
	tr := model.NewTranscript(
		model.NewTurn(model.SpeakerSystem, "PDF 'report.pdf' content loaded. You can now chat about it."),
		model.NewTurn(model.SpeakerUser, "What is the total?"),
		model.NewTurn(model.SpeakerModel, "The total is 42."),
	)

	fmt.Print(export.Text(tr))
	// Output:
	// System: PDF 'report.pdf' content loaded. You can now chat about it.
	// You: What is the total?
	// Model: The total is 42.
}

// ExampleParseText shows how continuation lines attach to the previous turn.
func ExampleParseText() {
	turns, err := export.ParseText("You: list two things\nModel: - one\n- two\n")
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, t := range turns {
		fmt.Printf("%s %q\n", t.Speaker, t.Text)
	}
	// Output:
	// user "list two things"
	// model "- one\n- two"
}
