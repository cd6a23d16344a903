package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/starford/notepad/internal/notepad"
)

// linePrompter reads one line per prompt. An empty line keeps the bracketed
// initial value; with no initial value it dismisses, as does end of input.
type linePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newLinePrompter(in io.Reader, out io.Writer) *linePrompter {
	return &linePrompter{in: bufio.NewReader(in), out: out}
}

func (p *linePrompter) Prompt(ctx context.Context, message, initial string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if initial != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", message, initial)
	} else {
		fmt.Fprintf(p.out, "%s: ", message)
	}
	raw, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	if raw == "" {
		return "", false, nil
	}
	line := strings.TrimRight(raw, "\r\n")
	if line == "" {
		return initial, initial != "", nil
	}
	return line, true, nil
}

type streamReporter struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *streamReporter) Info(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, msg)
}

func (r *streamReporter) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, "error: "+msg)
}

// editor opens notes in $VISUAL or $EDITOR and feeds the saved text back to
// the store once the editor exits. Without an editor the path is printed.
type editor struct {
	out   io.Writer
	store *notepad.Store
}

func (e *editor) Open(ctx context.Context, location string) error {
	name := strings.TrimSpace(os.Getenv("VISUAL"))
	if name == "" {
		name = os.Getenv("EDITOR")
	}
	args := strings.Fields(name)
	if len(args) == 0 {
		_, err := fmt.Fprintln(e.out, location)
		return err
	}

	c := exec.CommandContext(ctx, args[0], append(args[1:], location)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("run %s: %w", args[0], err)
	}

	if e.store == nil {
		return nil
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return err
	}
	_, err = e.store.DocumentSaved(ctx, location, string(data))
	return err
}
