// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the command handlers for
// doctalk.
//
// Commands:
//
//	doctalk [chat]      Interactive chat (default)
//	doctalk ask "..."   One-shot question
//	doctalk models      List installed models
//	doctalk doctor      Check external tools
//	doctalk config      Show or change configuration
//	doctalk version     Show version
//	doctalk help        Show help
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (set by main at startup)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies the subcommand to run.
type Command int

const (
	CmdChat Command = iota
	CmdAsk
	CmdModels
	CmdDoctor
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdModels:
		return "models"
	case CmdDoctor:
		return "doctor"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Verbose    bool
	Quiet      bool
	JSON       bool
	Model      string
	ConfigPath string

	// chat / ask
	File  string
	Query string

	// config
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Unknown holds an unrecognised command or flag; Parse reports it as help.
	Unknown string

	Raw []string
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `doctalk - chat with a local model about your documents

Usage:
  doctalk [command] [flags]

Commands:
  chat              Interactive chat (default)
  ask QUESTION      Ask one question and print the reply
  models            List installed models
  doctor            Check ollama, poppler, tesseract and pandoc
  config [SUB]      Show or change configuration
                      show | path | keys | get KEY | set KEY VALUE
  version           Show version information
  help              Show this help

Flags:
  -m, --model ID    Model to use (overrides config)
  -f, --file PATH   Load a text or PDF document as context
  -c, --config PATH Use a specific config file
  -v, --verbose     Log diagnostic events to stderr
  -q, --quiet       Minimal output
      --json        JSON output (models, doctor, config)
  -h, --help        Show this help

Chat commands:
  /load PATH        Load a document as context
  /model [ID]       Show or switch model
  /models           Pick a model from the installed list
  /find TEXT        Highlight TEXT in the transcript
  /history          Show the transcript
  /export [PATH]    Export transcript (.txt, .md, .json or .pdf)
  /export-pdf PATH  Export transcript as PDF via pandoc
  /status           Session status
  /help             Chat help
  /quit             Exit

Examples:
  doctalk --model llama3:8b --file report.pdf
  doctalk ask -f notes.txt "Summarise these notes"
  doctalk config set ollama.default_model qwen2.5:14b

Version: %s
`

// PrintUsage prints the usage text to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("doctalk %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) into a command and its
// arguments. With no command the interactive chat runs.
func ParseArgs(argv []string) (Command, Args) {
	args := Args{Raw: argv}
	rest := parseGlobalFlags(argv, &args)

	if args.Unknown != "" {
		return CmdHelp, args
	}
	if len(rest) == 0 {
		return CmdChat, args
	}

	switch strings.ToLower(rest[0]) {
	case "chat":
		parseChatArgs(rest[1:], &args)
		return CmdChat, args
	case "ask":
		parseAskArgs(rest[1:], &args)
		return CmdAsk, args
	case "models", "list":
		return CmdModels, args
	case "doctor":
		return CmdDoctor, args
	case "config":
		parseConfigArgs(rest[1:], &args)
		return CmdConfig, args
	case "version", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		args.Unknown = rest[0]
		return CmdHelp, args
	}
}

// flagValue returns the value for a flag given either as "--name value" or
// "--name=value", and how many extra arguments were consumed.
func flagValue(argv []string, i int) (string, int, bool) {
	arg := argv[i]
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[idx+1:], 0, true
	}
	if i+1 < len(argv) {
		return argv[i+1], 1, true
	}
	return "", 0, false
}

func flagName(arg string) string {
	name, _, _ := strings.Cut(arg, "=")
	return name
}

// parseGlobalFlags consumes flags valid for every command and returns the
// remaining arguments in order.
func parseGlobalFlags(argv []string, args *Args) []string {
	var rest []string
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			rest = append(rest, argv[i+1:]...)
			break
		}
		switch flagName(arg) {
		case "-v", "--verbose":
			args.Verbose = true
		case "-q", "--quiet":
			args.Quiet = true
		case "--json":
			args.JSON = true
		case "-h", "--help":
			rest = append([]string{"help"}, rest...)
		case "--version":
			rest = append([]string{"version"}, rest...)
		case "-m", "--model":
			v, n, ok := flagValue(argv, i)
			if !ok {
				args.Unknown = arg
				return nil
			}
			args.Model = v
			i += n
		case "-f", "--file":
			v, n, ok := flagValue(argv, i)
			if !ok {
				args.Unknown = arg
				return nil
			}
			args.File = v
			i += n
		case "-c", "--config":
			v, n, ok := flagValue(argv, i)
			if !ok {
				args.Unknown = arg
				return nil
			}
			args.ConfigPath = v
			i += n
		default:
			if strings.HasPrefix(arg, "-") && len(arg) > 1 {
				args.Unknown = arg
				return nil
			}
			rest = append(rest, arg)
		}
	}
	return rest
}

// parseChatArgs accepts an optional document path after "chat".
func parseChatArgs(rest []string, args *Args) {
	if len(rest) > 0 && args.File == "" {
		args.File = rest[0]
	}
}

// parseAskArgs joins the remaining words into the question.
func parseAskArgs(rest []string, args *Args) {
	args.Query = strings.Join(rest, " ")
}

// parseConfigArgs parses "config [show|path|keys|get KEY|set KEY VALUE]".
func parseConfigArgs(rest []string, args *Args) {
	if len(rest) == 0 {
		return
	}
	args.Subcommand = strings.ToLower(rest[0])
	if len(rest) > 1 {
		args.ConfigKey = rest[1]
	}
	if len(rest) > 2 {
		args.ConfigVal = strings.Join(rest[2:], " ")
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

// exitOnError prints err and exits with the code GetExitCode assigns it.
func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(GetExitCode(err))
}

// HandleChat runs the interactive chat.
func HandleChat(args Args) {
	exitOnError(RunChat(args))
}

// HandleAsk runs a one-shot question.
func HandleAsk(args Args) {
	exitOnError(RunAsk(args))
}

// HandleModels lists installed models.
func HandleModels(args Args) {
	exitOnError(RunModels(args))
}

// HandleDoctor checks the external tools.
func HandleDoctor(args Args) {
	exitOnError(RunDoctor(args))
}

// HandleConfig shows or edits configuration.
func HandleConfig(args Args) {
	exitOnError(RunConfig(args))
}

// HandleVersion prints version information.
func HandleVersion(Args) {
	PrintVersion()
}

// HandleHelp prints usage. An unknown command or flag is a usage error.
func HandleHelp(args Args) {
	if args.Unknown != "" {
		fmt.Fprintf(os.Stderr, "Error: unknown command or flag: %s\n\n", args.Unknown)
		fmt.Fprintf(os.Stderr, usageText, Version)
		os.Exit(ExitUsageError)
	}
	PrintUsage()
}
