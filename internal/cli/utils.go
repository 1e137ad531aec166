package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// errNoInput is returned when stdin closes before a valid answer was read
var errNoInput = errors.New("no input")

// prompter asks questions on out and reads answers line by line from in
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask repeats question until check accepts the trimmed answer
func (p *prompter) ask(question string, check func(string) (string, error)) (string, error) {
	for {
		fmt.Fprint(p.out, question)
		line, readErr := p.in.ReadString('\n')
		answer := strings.TrimSpace(line)

		if readErr != nil && answer == "" {
			if errors.Is(readErr, io.EOF) {
				return "", errNoInput
			}
			return "", readErr
		}

		value, err := check(answer)
		if err == nil {
			return value, nil
		}
		fmt.Fprintf(p.out, "❌ %s\n\n", err)

		if readErr != nil {
			return "", errNoInput
		}
	}
}

// yesNo treats an empty answer as no
func (p *prompter) yesNo(question string) (bool, error) {
	answer, err := p.ask(question, func(input string) (string, error) {
		switch strings.ToLower(input) {
		case "y", "yes":
			return "y", nil
		case "n", "no", "":
			return "n", nil
		}
		return "", fmt.Errorf("invalid input: %s (enter y/yes/n/no or press Enter for no)", input)
	})
	return answer == "y", err
}

func (p *prompter) required(question string) (string, error) {
	return p.ask(question, func(input string) (string, error) {
		if input == "" {
			return "", errors.New("this field is required")
		}
		return input, nil
	})
}

// optional returns fallback for an empty answer
func (p *prompter) optional(question, fallback string) (string, error) {
	return p.ask(question, func(input string) (string, error) {
		if input == "" {
			return fallback, nil
		}
		return input, nil
	})
}
