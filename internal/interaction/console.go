package interaction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Console is a stdin/stdout implementation of UserInteraction used by the
// one-shot CLI apply command.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole returns a Console reading from in and writing to out.
// Nil arguments default to os.Stdin / os.Stdout.
func NewConsole(in io.Reader, out io.Writer) *Console {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Console{in: bufio.NewReader(in), out: out}
}

func (c *Console) SendInfo(ctx context.Context, message string) error {
	_, err := fmt.Fprintln(c.out, message)
	return err
}

func (c *Console) AskFreeText(ctx context.Context, questionID, prompt string) (FreeTextResponse, error) {
	fmt.Fprintf(c.out, "%s\n> ", prompt)
	text, err := c.readLine()
	if err != nil {
		return FreeTextResponse{}, err
	}
	return FreeTextResponse{QuestionID: questionID, Text: text}, nil
}

func (c *Console) AskChoice(ctx context.Context, questionID, prompt string, options []string, allowMultiple bool) (ChoiceResponse, error) {
	fmt.Fprintln(c.out, prompt)
	for i, opt := range options {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, opt)
	}
	if allowMultiple {
		fmt.Fprint(c.out, "> Select option numbers (comma-separated): ")
	} else {
		fmt.Fprint(c.out, "> Select option number: ")
	}
	raw, err := c.readLine()
	if err != nil {
		return ChoiceResponse{}, err
	}

	var selected []string
	if allowMultiple {
		for _, item := range strings.Split(raw, ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(item)); err == nil && n >= 1 && n <= len(options) {
				selected = append(selected, options[n-1])
			}
		}
	} else {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 1 && n <= len(options) {
			selected = []string{options[n-1]}
		} else if len(options) > 0 {
			selected = []string{options[0]}
		}
	}
	return ChoiceResponse{QuestionID: questionID, SelectedOptions: selected}, nil
}

func (c *Console) SendImageAndAskText(ctx context.Context, questionID string, image []byte, prompt string) (FreeTextResponse, error) {
	fmt.Fprintf(c.out, "%s\n(Received image bytes: %d)\n> ", prompt, len(image))
	text, err := c.readLine()
	if err != nil {
		return FreeTextResponse{}, err
	}
	return FreeTextResponse{QuestionID: questionID, Text: text}, nil
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
