// Package prompt reads operator input from a terminal: numbered menus, free
// text and typed confirmations. Invalid input re-prompts until the reader is
// exhausted.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoInput is returned when input ends before a valid answer was read.
var ErrNoInput = errors.New("no input")

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New returns a Prompter over in and out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Select prints items as a 1-based menu under title and returns the 0-based
// index of the chosen item. Non-numeric or out-of-range answers re-prompt.
func (p *Prompter) Select(title string, items []string, question string) (int, error) {
	if len(items) == 0 {
		return -1, errors.New("nothing to select from")
	}
	fmt.Fprintln(p.out, title)
	for i, item := range items {
		fmt.Fprintf(p.out, "%d) %s\n", i+1, item)
	}

	for {
		fmt.Fprintf(p.out, "%s ", question)
		answer, err := p.readLine()
		if err != nil {
			return -1, err
		}
		n, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a valid number.")
			continue
		}
		if n < 1 || n > len(items) {
			fmt.Fprintf(p.out, "Invalid selection, choose 1-%d.\n", len(items))
			continue
		}
		return n - 1, nil
	}
}

// Text asks question until a non-empty answer passes validate (which may be nil).
func (p *Prompter) Text(question string, validate func(string) error) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s ", question)
		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		if answer == "" {
			continue
		}
		if validate != nil {
			if err := validate(answer); err != nil {
				fmt.Fprintf(p.out, "Invalid value: %v\n", err)
				continue
			}
		}
		return answer, nil
	}
}

// Confirm asks the operator to type expected. It returns false on any other
// answer without re-prompting.
func (p *Prompter) Confirm(question, expected string) (bool, error) {
	fmt.Fprintf(p.out, "%s ", question)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	return answer == expected, nil
}
