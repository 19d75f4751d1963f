package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/x/ansi"

	"github.com/elee1766/nl2sql/src/aisdk"
	"github.com/elee1766/nl2sql/src/executor"
	"github.com/elee1766/nl2sql/src/theme"
)

// Console commands.
const (
	CommandClearScreen  = "/c"
	CommandClearHistory = "/ch"
	CommandShowHistory  = "/h"
)

const (
	userPrompt  = "🧑: "
	botPrefix   = "🤖: "
	placeholder = botPrefix + "Formulating answer..."
)

// TurnRunner answers the last user message of a conversation.
type TurnRunner interface {
	RunTurn(ctx context.Context, history []*aisdk.Message, callbacks *executor.Callbacks) (*aisdk.Message, error)
}

// Config holds the configuration for a chat loop
type Config struct {
	In      io.Reader
	Out     io.Writer
	Runner  TurnRunner
	History *History

	// Debug leaves the placeholder line in place so log output is not
	// overwritten.
	Debug bool
	// Plain disables colors and cursor movement.
	Plain bool
	// SQLLexer names the highlighter used by ShowSQL.
	SQLLexer string

	Logger *slog.Logger
}

// Loop reads questions from In and streams answers to Out.
type Loop struct {
	in      io.Reader
	out     io.Writer
	runner  TurnRunner
	history *History
	debug   bool
	plain   bool
	lexer   string
	styles  theme.Styles
	logger  *slog.Logger

	// pending is set while the placeholder is the last line written.
	pending bool
	// midLine is set while streamed text has not ended its line.
	midLine bool
}

// NewLoop creates a loop. History must already hold the system prompt.
func NewLoop(config Config) (*Loop, error) {
	if config.Runner == nil {
		return nil, errors.New("chat loop requires a turn runner")
	}
	if config.History == nil {
		return nil, errors.New("chat loop requires a history")
	}
	if config.In == nil || config.Out == nil {
		return nil, errors.New("chat loop requires input and output")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lexer := config.SQLLexer
	if lexer == "" {
		lexer = "sql"
	}
	return &Loop{
		in:      config.In,
		out:     config.Out,
		runner:  config.Runner,
		history: config.History,
		debug:   config.Debug,
		plain:   config.Plain,
		lexer:   lexer,
		styles:  theme.NewStyles(config.Plain),
		logger:  logger.With("component", "chat"),
	}, nil
}

// History returns the conversation owned by the loop.
func (l *Loop) History() *History { return l.history }

// Run processes input until EOF or until ctx is cancelled. A turn that
// exceeds the tool round limit is reported and dropped; any other turn
// failure ends the loop.
func (l *Loop) Run(ctx context.Context) error {
	lines, readErr := l.readLines(ctx)

	for {
		fmt.Fprintln(l.out)
		fmt.Fprint(l.out, userPrompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(l.out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(l.out)
			return <-readErr
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}

		switch question {
		case CommandClearScreen:
			l.clearScreen()
			continue
		case CommandClearHistory:
			l.history.Clear()
			fmt.Fprintln(l.out, "Chat history cleared.")
			continue
		case CommandShowHistory:
			if err := WriteHistory(l.out, l.history.Messages()); err != nil {
				return err
			}
			continue
		}

		if err := l.turn(ctx, question); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, executor.ErrMaxToolRoundsExceeded) {
				l.history.dropLast()
				fmt.Fprintln(l.out, l.styles.Error.Render("Error: "+err.Error()))
				continue
			}
			return err
		}
	}
}

func (l *Loop) turn(ctx context.Context, question string) error {
	fmt.Fprintln(l.out)
	fmt.Fprintln(l.out, l.styles.Text.Render(placeholder))
	l.pending = true
	l.midLine = false

	l.history.AddUser(question)
	l.logger.Debug("running turn", "history_len", l.history.Len())

	callbacks := &executor.Callbacks{
		OnContent: func(fragment string) error {
			if l.pending {
				l.erasePlaceholder()
				fmt.Fprint(l.out, botPrefix)
			}
			l.midLine = !strings.HasSuffix(fragment, "\n")
			_, err := fmt.Fprint(l.out, fragment)
			return err
		},
	}
	if l.debug {
		callbacks.OnToolCall = func(call aisdk.ToolCall) error {
			return l.toolLine(fmt.Sprintf("%s %s", call.Function.Name, call.Function.Arguments))
		}
		callbacks.OnToolResult = func(name string, result *aisdk.ToolResponse, err error) error {
			status := "ok"
			switch {
			case err != nil:
				status = "failed: " + err.Error()
			case result != nil && result.IsError:
				status = "error: " + string(result.Content)
			}
			return l.toolLine(name + " " + status)
		}
	}

	answer, err := l.runner.RunTurn(ctx, l.history.Messages(), callbacks)
	if err != nil {
		return err
	}
	fmt.Fprintln(l.out)
	l.pending = false
	l.midLine = false

	l.history.Append(answer)
	return nil
}

// toolLine reports tool activity on its own line. Only used in debug mode,
// where the placeholder stays on screen.
func (l *Loop) toolLine(text string) error {
	if l.midLine {
		fmt.Fprintln(l.out)
		l.midLine = false
	}
	_, err := fmt.Fprintln(l.out, l.styles.Muted.Render("[tool] "+text))
	return err
}

// ShowSQL prints generated SQL with syntax highlighting, keeping the
// placeholder as the last line.
func (l *Loop) ShowSQL(sql string) {
	wasPending := l.pending
	if wasPending {
		l.erasePlaceholder()
	}

	if l.plain {
		fmt.Fprintln(l.out, sql)
	} else if err := quick.Highlight(l.out, sql+"\n", l.lexer, "terminal256", "monokai"); err != nil {
		l.logger.Debug("failed to highlight sql", "error", err)
		fmt.Fprintln(l.out, sql)
	}

	if wasPending {
		fmt.Fprintln(l.out, l.styles.Text.Render(placeholder))
		l.pending = true
	}
}

// erasePlaceholder removes the "Formulating answer..." line. In debug or
// plain mode the line stays and output continues below it.
func (l *Loop) erasePlaceholder() {
	l.pending = false
	if l.debug || l.plain {
		return
	}
	fmt.Fprint(l.out, ansi.CursorUp(1)+"\r"+ansi.EraseEntireLine)
}

func (l *Loop) clearScreen() {
	if l.plain {
		return
	}
	fmt.Fprint(l.out, ansi.EraseEntireScreen+ansi.CursorHomePosition)
}

// readLines feeds input lines to a channel that is closed at EOF. The read
// error, if any, is delivered on the second channel afterwards.
func (l *Loop) readLines(ctx context.Context) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(lines)
		scanner := bufio.NewScanner(l.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}
