package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// lineReader reads lines while respecting context cancellation.
type lineReader struct {
	reader *bufio.Reader
	mu     sync.Mutex
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{reader: bufio.NewReader(r)}
}

// readLine returns the next trimmed line. A canceled read leaves its
// goroutine blocked on the underlying reader until input arrives.
func (r *lineReader) readLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		value, err := r.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return strings.TrimSpace(res.value), res.err
	}
}

// Prompter asks questions on a terminal.
type Prompter struct {
	reader *lineReader
	writer io.Writer
}

// NewPrompter creates a prompter reading answers from r and writing questions to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{reader: newLineReader(r), writer: w}
}

// Confirm asks a yes/no question until it gets an answer. An empty answer
// takes the default.
func (p *Prompter) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	choices := "y/N"
	if defaultYes {
		choices = "Y/n"
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(fmt.Sprintf("%s [%s]", question, choices))); err != nil {
			return false, err
		}

		answer, err := p.reader.readLine(ctx)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatWarning("Please answer y or n.")); err != nil {
			return false, err
		}
	}
}
