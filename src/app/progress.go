package app

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/x/ansi"

	"github.com/elee1766/nl2sql/src/theme"
)

// Title is shown in the boot banner.
const Title = "Natural Language Database Chatbot Agent v1.1"

// Progress reports bootstrap steps. The spinner shows the current phase and
// the collected lines are printed once it stops. A nil Progress discards
// everything.
type Progress struct {
	out     io.Writer
	plain   bool
	styles  theme.Styles
	spinner *spinner.Spinner

	mu    sync.Mutex
	lines []string
}

// NewProgress creates a reporter writing to out.
func NewProgress(out io.Writer, plain bool) *Progress {
	p := &Progress{
		out:    out,
		plain:  plain,
		styles: theme.NewStyles(plain),
	}
	if !plain {
		p.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond,
			spinner.WithWriter(out),
			spinner.WithSuffix(" Booting up agent..."),
		)
		_ = p.spinner.Color("yellow")
	}
	return p
}

// Banner clears the screen and prints the title box.
func (p *Progress) Banner(width int) {
	if p == nil {
		return
	}
	if !p.plain {
		fmt.Fprint(p.out, ansi.EraseEntireScreen+ansi.CursorHomePosition)
	}
	fmt.Fprintln(p.out, p.styles.RenderBanner(Title, width))
}

// Start begins the spinner.
func (p *Progress) Start() {
	if p == nil || p.spinner == nil {
		return
	}
	p.spinner.Start()
}

// Phase records a step and shows it next to the spinner.
func (p *Progress) Phase(msg string) {
	if p == nil {
		return
	}
	p.Line(msg)
	if p.spinner != nil {
		p.spinner.Lock()
		p.spinner.Suffix = " Booting up agent... " + msg
		p.spinner.Unlock()
	}
}

// Line records an informational line.
func (p *Progress) Line(line string) {
	if p == nil {
		return
	}
	p.record(p.styles.Text.Render(line))
}

// Warn records a highlighted line.
func (p *Progress) Warn(line string) {
	if p == nil {
		return
	}
	p.record(p.styles.Warning.Render(line))
}

func (p *Progress) record(rendered string) {
	p.mu.Lock()
	p.lines = append(p.lines, rendered)
	p.mu.Unlock()
}

// Stop halts the spinner and prints every recorded line.
func (p *Progress) Stop() {
	if p == nil {
		return
	}
	if p.spinner != nil {
		p.spinner.Stop()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, line := range p.lines {
		fmt.Fprintln(p.out, line)
	}
	p.lines = nil
}
