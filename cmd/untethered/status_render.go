package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"untethered/internal/playback"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const statusLabelWidth = 28

func (k statusKind) String() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) colors() text.Colors {
	switch k {
	case statusOK:
		return text.Colors{text.FgGreen}
	case statusWarn:
		return text.Colors{text.FgYellow}
	case statusError:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgBlue}
	}
}

// playbackKind grades a reported player state against the chart that should
// be on screen: only the chart itself, paused, is a settled display.
func playbackKind(state, fileName, chart string) statusKind {
	switch {
	case fileName == chart && state == string(playback.StatePaused):
		return statusOK
	case state == string(playback.StateStopped) || state == string(playback.StateWaiting):
		return statusError
	default:
		return statusWarn
	}
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	badge := "[" + kind.String() + "]"
	if message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", badge)
	if colorize {
		return kind.colors().Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", text.RuneWidthWithoutEscSequences(heading))}
	if colorize {
		for i := range lines {
			lines[i] = statusInfo.colors().Sprint(lines[i])
		}
	}
	return lines
}

// shouldColorize reports whether w is an interactive terminal.
func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
