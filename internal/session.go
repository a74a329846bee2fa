package internal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
)

// QueryEngine is what a session needs from a Pipeline.
type QueryEngine interface {
	Search(ctx context.Context, query string, k int) ([]RetrievalResult, error)
	Generate(ctx context.Context, query string, results []RetrievalResult) (string, bool)
}

var _ QueryEngine = (*Pipeline)(nil)

const maxInputLine = 1 << 20

var (
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	infoStyle    = lipgloss.NewStyle().Faint(true)
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Session reads one question per line and answers it. It keeps no state
// between questions.
type Session struct {
	engine QueryEngine
	k      int
	in     io.Reader
	out    io.Writer
}

func NewSession(engine QueryEngine, k int, in io.Reader, out io.Writer) *Session {
	if k < 1 {
		k = DefaultTopK
	}
	return &Session{engine: engine, k: k, in: in, out: out}
}

// IsExitCommand reports whether line asks the session to stop.
func IsExitCommand(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "quit", "exit":
		return true
	}
	return false
}

// Run loops until an exit command, end of input, or ctx cancellation. None
// of these is an error. An unreadable input line is reported inline and
// also ends the loop.
func (s *Session) Run(ctx context.Context, commits int) error {
	lipgloss.Fprintln(s.out, bannerStyle.Render("--- Ask the commit log ---"))
	fmt.Fprintf(s.out, "Loaded %d commits.\n", commits)
	fmt.Fprintln(s.out, "Type 'quit' or 'exit' to stop.")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan inputLine)
	go s.readLines(ctx, lines)

	for {
		lipgloss.Fprint(s.out, "\n"+promptStyle.Render("Your question: "))

		var in inputLine
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case in, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(s.out)
			return nil
		}
		if in.err != nil {
			fmt.Fprintln(s.out)
			lipgloss.Fprintln(s.out, failureStyle.Render(fmt.Sprintf("Error reading input: %v", in.err)))
			return nil
		}
		line := in.text

		if IsExitCommand(line) {
			return nil
		}
		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}

		s.Exchange(ctx, query)
	}
}

type inputLine struct {
	text string
	err  error
}

// readLines sends each input line, then a final entry carrying the scanner
// error if reading failed. It returns as soon as ctx is done.
func (s *Session) readLines(ctx context.Context, lines chan<- inputLine) {
	defer close(lines)
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxInputLine)
	for scanner.Scan() {
		select {
		case lines <- inputLine{text: scanner.Text()}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case lines <- inputLine{err: err}:
		case <-ctx.Done():
		}
	}
}

// Exchange runs retrieval and generation for one query and prints both.
func (s *Session) Exchange(ctx context.Context, query string) {
	results, err := s.engine.Search(ctx, query, s.k)
	if err != nil {
		lipgloss.Fprintln(s.out, failureStyle.Render(fmt.Sprintf("Error retrieving context: %v", err)))
		return
	}

	fmt.Fprintf(s.out, "-> Found %d relevant commits.\n", len(results))
	for i, r := range results {
		lipgloss.Fprintln(s.out, infoStyle.Render(FormatResultLine(i+1, r)))
	}

	fmt.Fprintln(s.out, "-> Generating answer...")
	answer, ok := s.engine.Generate(ctx, query, results)

	lipgloss.Fprintln(s.out, "\n"+bannerStyle.Render(strings.Repeat("=", 20)+" Answer "+strings.Repeat("=", 20)))
	if ok {
		fmt.Fprintln(s.out, answer)
	} else {
		lipgloss.Fprintln(s.out, failureStyle.Render(answer))
	}
	lipgloss.Fprintln(s.out, bannerStyle.Render(strings.Repeat("=", 48)))
}

// FormatResultLine renders one retrieved commit as a summary line.
func FormatResultLine(rank int, r RetrievalResult) string {
	return fmt.Sprintf("  %d. [%s] %s... (score %.2f)", rank, r.Record.Day(), truncateRunes(r.Record.Subject(), 60), r.Score)
}
