// Package console is a line-oriented host for the timer: commands are read
// from stdin and notices and the countdown are written to stdout.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"pomo/internal/logging"
	"pomo/internal/session"
)

const clearLine = "\r\033[K"

type promptRequest struct {
	ctx         context.Context
	placeholder string
	reply       chan promptReply
}

type promptReply struct {
	text string
	ok   bool
}

// Console implements timer.Notifier, timer.Prompter and timer.StatusSink.
type Console struct {
	in     io.Reader
	out    io.Writer
	tty    bool
	logger zerolog.Logger

	session *session.Session

	prompts chan promptRequest

	mu     sync.Mutex
	status string
}

// New creates a Console. The countdown is redrawn in place only when out is
// a terminal.
func New(in io.Reader, out io.Writer) *Console {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Console{
		in:      in,
		out:     out,
		tty:     tty,
		logger:  logging.Component("console"),
		prompts: make(chan promptRequest, 1),
	}
}

// Attach sets the session commands are dispatched to. It must be called
// before Run.
func (c *Console) Attach(s *session.Session) {
	c.session = s
}

// Notice prints a message on its own line.
func (c *Console) Notice(message string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tty {
		fmt.Fprint(c.out, clearLine)
	}
	fmt.Fprintln(c.out, message)
	c.redrawLocked()
}

// SetText updates the countdown.
func (c *Console) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.status {
		return
	}
	c.status = text
	if c.tty {
		fmt.Fprint(c.out, clearLine)
		c.redrawLocked()
	}
}

func (c *Console) redrawLocked() {
	if c.tty && c.status != "" {
		fmt.Fprintf(c.out, "⏲ %s", c.status)
	}
}

// PromptForText asks for a line of text. The next input line answers it; an
// empty line dismisses it.
func (c *Console) PromptForText(ctx context.Context, placeholder string) (string, bool) {
	req := promptRequest{ctx: ctx, placeholder: placeholder, reply: make(chan promptReply, 1)}
	select {
	case c.prompts <- req:
	case <-ctx.Done():
		return "", false
	}
	select {
	case r := <-req.reply:
		return r.text, r.ok
	case <-ctx.Done():
		return "", false
	}
}

// Run reads commands until "x", end of input, or ctx is canceled.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.printHelp()

	var pending *promptRequest
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read commands: %w", err)
			}
			return nil
		case req := <-c.prompts:
			pending = &req
			c.mu.Lock()
			if c.tty {
				fmt.Fprint(c.out, clearLine)
			}
			fmt.Fprintf(c.out, "%s\n> ", req.placeholder)
			c.mu.Unlock()
		case line := <-lines:
			if pending != nil && pending.ctx.Err() == nil {
				text := strings.TrimSpace(line)
				pending.reply <- promptReply{text: text, ok: text != ""}
				pending = nil
				continue
			}
			pending = nil
			if !c.dispatch(ctx, strings.TrimSpace(line)) {
				return nil
			}
		}
	}
}

// dispatch runs one command. It returns false when the user asked to exit.
func (c *Console) dispatch(ctx context.Context, cmd string) bool {
	if c.session == nil {
		return cmd != "x"
	}

	var ok bool
	switch cmd {
	case "":
		return true
	case "s":
		ok = c.session.StartFocus(false)
	case "p":
		ok = c.session.TogglePause(false)
	case "q":
		ok = c.session.Quit(false)
	case "r":
		if ok = c.session.Ribbon(ctx, true); ok {
			// The ribbon action may prompt, which needs this loop running.
			go c.session.Ribbon(ctx, false)
		}
	case "h", "?":
		c.printHelp()
		return true
	case "x":
		return false
	default:
		c.println(fmt.Sprintf("Unknown command %q. Type h for help.", cmd))
		return true
	}
	if !ok {
		c.println("Command not available right now.")
	}
	c.logger.Debug().Str("command", cmd).Bool("applied", ok).Msg("command")
	return true
}

func (c *Console) printHelp() {
	var b strings.Builder
	b.WriteString("Commands:\n")
	if c.session != nil {
		keys := map[string]string{"start-pomo": "s", "pause-pomo": "p", "quit-pomo": "q"}
		for _, cmd := range c.session.Commands() {
			fmt.Fprintf(&b, "  %s  %s\n", keys[cmd.ID], cmd.Name)
		}
	}
	b.WriteString("  r  Start or toggle (ribbon)\n")
	b.WriteString("  h  Help\n")
	b.WriteString("  x  Exit")
	c.println(b.String())
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tty {
		fmt.Fprint(c.out, clearLine)
	}
	fmt.Fprintln(c.out, s)
	c.redrawLocked()
}
