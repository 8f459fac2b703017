package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"supportrag/internal/domain"
)

// Console is a plain line-based channel: type a question, get the answer
// with its citations, optionally rate it 1-5.
type Console struct {
	deps Deps
	in   io.Reader
	out  io.Writer
}

func NewConsole(deps Deps) *Console {
	return &Console{deps: deps, in: os.Stdin, out: os.Stdout}
}

// NewConsoleWithIO is used by tests to drive the loop.
func NewConsoleWithIO(deps Deps, in io.Reader, out io.Writer) *Console {
	return &Console{deps: deps, in: in, out: out}
}

func (c *Console) Run(ctx context.Context) error {
	if c.deps.Summary != "" {
		fmt.Fprintf(c.out, "Knowledge base summary: %s\n\n", c.deps.Summary)
	}
	fmt.Fprintln(c.out, "Ask a question (or 'quit' to exit):")
	sc := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		query := strings.TrimSpace(sc.Text())
		switch query {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		answer, err := c.deps.Agent.Ask(ctx, query)
		if err != nil {
			fmt.Fprintf(c.out, "Sorry, I could not answer that: %v\n", userMessage(err))
			continue
		}
		fmt.Fprintf(c.out, "\n%s\n", answer.Text)
		if len(answer.Retrieved) > 0 {
			fmt.Fprintln(c.out, "\nSources:")
			for i, r := range answer.Retrieved {
				fmt.Fprintf(c.out, "  [%d] %s (score %.3f)\n", i+1, r.Chunk.Source, r.Score)
			}
		}
		c.collectRating(sc, query, answer)
	}
}

func (c *Console) collectRating(sc *bufio.Scanner, query string, answer domain.Answer) {
	fmt.Fprint(c.out, "\nRate this answer 1-5 (enter to skip): ")
	if !sc.Scan() {
		return
	}
	text := strings.TrimSpace(sc.Text())
	if text == "" {
		return
	}
	rating, err := strconv.Atoi(text)
	if err != nil {
		fmt.Fprintln(c.out, "Skipping: rating must be a number between 1 and 5.")
		return
	}
	if err := c.deps.Feedback.Log(domain.FeedbackRecord{
		Query:  query,
		Answer: answer.Text,
		Rating: rating,
	}); err != nil {
		fmt.Fprintf(c.out, "Skipping: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Thanks for the feedback!")
}

// userMessage keeps provider internals out of the console while the full
// cause chain stays in the logs.
func userMessage(err error) string {
	var genErr *domain.GenerationError
	switch {
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return "the knowledge base is temporarily unreachable"
	case errors.As(err, &genErr):
		return "all answer providers are currently failing"
	case errors.Is(err, domain.ErrInvalidInput):
		return "that doesn't look like a valid question"
	default:
		return "an internal error occurred"
	}
}
