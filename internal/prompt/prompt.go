// Package prompt reads validated answers from a line-oriented input stream.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Rule separates blocks of session output.
const Rule = "-----------------------------------------------"

// ErrClosed is returned when the input stream ends before an answer is accepted.
var ErrClosed = errors.New("input closed")

// ErrInvalidOption is the parse error for answers outside a closed set.
var ErrInvalidOption = errors.New("Invalid option, please try again")

// Prompter writes questions to out and reads answers from in, one line each.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Out returns the writer questions are printed to.
func (p *Prompter) Out() io.Writer {
	return p.out
}

// ReadLine prints text (without a trailing newline) and returns the next
// input line with surrounding whitespace trimmed. A final line lacking a
// newline is still returned; after that ErrClosed.
func (p *Prompter) ReadLine(text string) (string, error) {
	if text != "" {
		fmt.Fprint(p.out, text)
	}
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrClosed
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Question describes one validated prompt.
type Question[T any] struct {
	// Text is printed before the first attempt.
	Text string
	// Retry is printed before every later attempt. Empty means Text.
	Retry string
	// Parse validates the trimmed answer.
	Parse func(answer string) (T, error)
	// Invalid reports a rejected answer. Nil prints the error between rules.
	Invalid func(err error)
}

// Ask repeats q until Parse accepts an answer or the input closes.
func Ask[T any](p *Prompter, q Question[T]) (T, error) {
	text := q.Text
	for {
		answer, err := p.ReadLine(text)
		if err != nil {
			var zero T
			return zero, err
		}

		v, err := q.Parse(answer)
		if err == nil {
			return v, nil
		}

		if q.Invalid != nil {
			q.Invalid(err)
		} else {
			fmt.Fprintln(p.out, Rule)
			fmt.Fprintln(p.out, err)
			fmt.Fprintln(p.out, Rule)
		}
		if q.Retry != "" {
			text = q.Retry
		}
	}
}

// ParseYesNo accepts y, yes, n and no in any letter case.
func ParseYesNo(answer string) (bool, error) {
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return false, ErrInvalidOption
}

// Confirm asks a yes/no question until it gets a valid answer.
func Confirm(p *Prompter, question string) (bool, error) {
	return Ask(p, Question[bool]{
		Text:  question + "\n",
		Parse: ParseYesNo,
	})
}
