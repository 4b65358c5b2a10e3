package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type checkState int

const (
	checkNote checkState = iota
	checkPass
	checkWarn
	checkFail
)

const checkNameWidth = 20

func (s checkState) label() string {
	switch s {
	case checkPass:
		return "OK"
	case checkWarn:
		return "WARN"
	case checkFail:
		return "FAIL"
	default:
		return "INFO"
	}
}

func (s checkState) colors() text.Colors {
	switch s {
	case checkPass:
		return text.Colors{text.FgGreen}
	case checkWarn:
		return text.Colors{text.FgYellow}
	case checkFail:
		return text.Colors{text.FgRed, text.Bold}
	default:
		return text.Colors{text.FgCyan}
	}
}

// formatCheck renders one doctor line: "  Name:   [OK] detail".
func formatCheck(name string, state checkState, detail string, color bool) string {
	line := fmt.Sprintf("  %-*s [%s]", checkNameWidth, name+":", state.label())
	if detail != "" {
		line += " " + detail
	}
	if color {
		return state.colors().Sprint(line)
	}
	return line
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
