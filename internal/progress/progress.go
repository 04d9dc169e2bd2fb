// Package progress renders scan progress to a terminal, implementing pkg/scan.Ticker the way
// mouse-blink-gooze's TUI models use charmbracelet/lipgloss for styled terminal text: the core
// scan pipeline never imports a terminal library directly, it only calls the narrow Ticker
// interface this package satisfies.
package progress

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Mode selects whether progress is rendered at all, mirroring spec.md §6's progressMode flag.
type Mode string

const (
	ModeTTYOnly Mode = "tty-only"
	ModeYes     Mode = "yes"
	ModeNo      Mode = "no"
)

var (
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

// Ticker renders a single updating line on w: "[ 12/137] src/app/routes.ts", overwritten on every
// FileDone and replaced with a summary line on Done. It satisfies pkg/scan.Ticker.
type Ticker struct {
	w       io.Writer
	total   int
	done    int
	enabled bool
}

// New builds a Ticker for mode against w. isTTY reports whether w is connected to a terminal;
// the caller (cmd/autocr) resolves this via a stdlib os.File.Stat() mode check, keeping this
// package free of an *os.File-specific dependency.
func New(w io.Writer, mode Mode, isTTY bool) *Ticker {
	enabled := mode == ModeYes || (mode == ModeTTYOnly && isTTY)
	return &Ticker{w: w, enabled: enabled}
}

func (t *Ticker) Started(n int) {
	t.total = n
	if !t.enabled || n == 0 {
		return
	}
	t.render()
}

func (t *Ticker) FileDone(path string) {
	t.done++
	if !t.enabled {
		return
	}
	fmt.Fprint(t.w, "\r")
	t.renderLine(path)
}

func (t *Ticker) Done() {
	if !t.enabled || t.total == 0 {
		return
	}
	fmt.Fprintf(t.w, "\r%s\n", doneStyle.Render(fmt.Sprintf("scanned %d file(s)", t.total)))
}

func (t *Ticker) render() {
	t.renderLine("")
}

func (t *Ticker) renderLine(path string) {
	width := len(strconv.Itoa(t.total))
	counter := countStyle.Render(fmt.Sprintf("[%*d/%d]", width, t.done, t.total))
	fmt.Fprintf(t.w, "%s %s", counter, pathStyle.Render(path))
}
