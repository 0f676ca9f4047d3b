package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"regenq/internal/poller"
	"regenq/internal/queue"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

// renderStatusLine prints "  label:   [KIND] message" with the label
// padded to a fixed column.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	line := fmt.Sprintf("  %-24s [%s]", label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		line = style.color + line + ansiReset
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(line))
	if colorize {
		blue := statusStyles[statusInfo].color
		return []string{blue + line + ansiReset, blue + rule + ansiReset}
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	f, ok := writer.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// titleLabel renders an enum value for display. A Caser is not safe for
// concurrent use, so one is built per call.
func titleLabel(value string) string {
	if value == "" {
		return "-"
	}
	return cases.Title(language.English).String(value)
}

func queueStatusKind(status queue.Status) statusKind {
	switch status {
	case queue.StatusFinished:
		return statusOK
	case queue.StatusError:
		return statusError
	case queue.StatusPending:
		return statusWarn
	default:
		return statusInfo
	}
}

func pollStateKind(state poller.State) statusKind {
	switch state {
	case poller.StateFinished:
		return statusOK
	case poller.StateError, poller.StateTimeout:
		return statusError
	case poller.StateCancelled:
		return statusWarn
	default:
		return statusInfo
	}
}

// renderSnapshotLine describes one poller update.
func renderSnapshotLine(snap poller.Snapshot, colorize bool) string {
	var message string
	switch {
	case snap.Item == nil:
		message = "no regeneration requested"
	default:
		message = fmt.Sprintf("%s %s (%s)", snap.Item.Field.Label(), titleLabel(string(snap.Item.Status)), snap.Item.ID)
	}
	if snap.State.Terminal() && snap.Polls > 0 {
		message += fmt.Sprintf(" after %d polls", snap.Polls)
	}
	return renderStatusLine(snap.Slug, pollStateKind(snap.State), titleLabel(string(snap.State))+": "+message, colorize)
}
