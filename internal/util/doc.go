// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the doctalk packages.
//
// # Atomic Writes
//
// AtomicWriteFile and AtomicWrite write through a synced temp file and a
// rename, so exported transcripts and saved config files are either the old
// version or the complete new one, never a partial write.
//
// # Display Width
//
// TruncateWidth and PadRight measure with go-runewidth, so CJK and emoji
// content lines up in the terminal.
package util
