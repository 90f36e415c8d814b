package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks line-based questions. In and Out default to stdin and stderr;
// Password defaults to a hidden terminal prompt.
type Prompter struct {
	In       *bufio.Reader
	Out      io.Writer
	Password func(prompt string) (string, error)
}

// NewPrompter returns a Prompter reading from r and writing prompts to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{In: bufio.NewReader(r), Out: w}
}

func (p *Prompter) reader() *bufio.Reader {
	if p.In == nil {
		p.In = bufio.NewReader(os.Stdin)
	}
	return p.In
}

func (p *Prompter) writer() io.Writer {
	if p.Out == nil {
		return os.Stderr
	}
	return p.Out
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.writer(), prompt)
	line, err := p.reader().ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AskDefault prints "prompt [default]: " and returns the answer, or the
// default when the answer is empty.
func (p *Prompter) AskDefault(prompt, def string) (string, error) {
	answer, err := p.readLine(fmt.Sprintf("%s [%s]: ", prompt, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskYesNo asks a yes/no question. def is "y", "n" or "" (no default: an
// empty answer asks again). An answer starting with y or Y means yes.
func (p *Prompter) AskYesNo(prompt, def string) (bool, error) {
	var suffix string
	switch def {
	case "":
		suffix = " "
	case "y":
		suffix = " [Y/n]: "
	case "n":
		suffix = " [y/N]: "
	default:
		return false, fmt.Errorf("unknown default value for prompt: %q", def)
	}

	for {
		answer, err := p.readLine(prompt + suffix)
		if err != nil {
			return false, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer == "" {
			if def == "" {
				continue
			}
			answer = def
		}
		return answer[0] == 'y', nil
	}
}

// AskPassword asks for a password without echo.
func (p *Prompter) AskPassword(prompt string) (string, error) {
	if p.Password != nil {
		return p.Password(prompt)
	}
	return PromptPasswordCustom(prompt)
}
