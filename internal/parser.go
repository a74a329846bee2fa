package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// RuleWidth is the width of the "=" line separating commit blocks.
	RuleWidth = 70
	// MinDashes is the shortest dashed line accepted between message and diff.
	MinDashes = 10
)

type parseState int

const (
	stateSeekingHeader parseState = iota
	stateInMessage
	stateInDiff
)

func (s parseState) String() string {
	switch s {
	case stateSeekingHeader:
		return "seeking-header"
	case stateInMessage:
		return "in-message"
	case stateInDiff:
		return "in-diff"
	default:
		return "unknown"
	}
}

// headerFields lists the fixed-order header prefixes of a block.
var headerFields = [...]string{"COMMIT:", "AUTHOR:", "DATE:", "MESSAGE:"}

// ParseResult holds the records of a log in block order and the number of
// non-empty blocks that did not match the header grammar.
type ParseResult struct {
	Records []CommitRecord
	Skipped int
}

type LogParser struct {
	logger *slog.Logger
}

func NewLogParser(logger *slog.Logger) *LogParser {
	return &LogParser{logger: orDiscard(logger)}
}

// ParseFile reads and parses the log at path.
func (p *LogParser) ParseFile(path string) (*ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	return p.Parse(f)
}

// ParseString parses an in-memory log.
func (p *LogParser) ParseString(text string) (*ParseResult, error) {
	return p.Parse(strings.NewReader(text))
}

// Parse splits r into blocks on rule lines and parses each block. Blocks that
// fail the grammar are counted in Skipped and otherwise ignored. Text before
// the first rule and whitespace-only blocks are neither parsed nor counted.
// ErrNoCommits is returned when no block yields a record.
func (p *LogParser) Parse(r io.Reader) (*ParseResult, error) {
	result := &ParseResult{}
	reader := bufio.NewReader(r)

	var block []string
	ordinal := 0
	seenRule := false

	flush := func() {
		defer func() { block = block[:0] }()
		if !seenRule || isBlankBlock(block) {
			return
		}
		ordinal++
		rec, err := parseBlock(block)
		if err != nil {
			result.Skipped++
			p.logger.Debug("skipping malformed log block", "block", ordinal, "reason", err)
			return
		}
		result.Records = append(result.Records, rec)
	}

	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 || err == nil {
			line = strings.TrimRight(line, "\r\n")
			line = strings.ToValidUTF8(line, "")
			if isRule(line, '=', RuleWidth) {
				flush()
				seenRule = true
			} else {
				block = append(block, line)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
	}
	flush()

	p.logger.Debug("parsed log", "records", len(result.Records), "skipped", result.Skipped)

	if len(result.Records) == 0 {
		return result, ErrNoCommits
	}
	return result, nil
}

type blockError struct {
	state  parseState
	reason string
}

func (e *blockError) Error() string {
	return fmt.Sprintf("%s: %s", e.state, e.reason)
}

// parseBlock runs the header/message/diff state machine over one block.
// Header lines must appear consecutively in fixed order; a broken sequence
// restarts the search at the offending line.
func parseBlock(lines []string) (CommitRecord, error) {
	state := stateSeekingHeader
	var header [len(headerFields)]string
	next := 0
	var message, diff []string

	for _, line := range lines {
		switch state {
		case stateSeekingHeader:
			value, ok := cutField(line, headerFields[next])
			if !ok && next > 0 {
				next = 0
				value, ok = cutField(line, headerFields[0])
			}
			if !ok {
				continue
			}
			header[next] = value
			next++
			if next == len(headerFields) {
				message = append(message, value)
				state = stateInMessage
			}

		case stateInMessage:
			if isRule(line, '-', MinDashes) {
				state = stateInDiff
				continue
			}
			message = append(message, line)

		case stateInDiff:
			diff = append(diff, line)
		}
	}

	if state != stateInDiff {
		reason := "no COMMIT/AUTHOR/DATE/MESSAGE header"
		if state == stateInMessage {
			reason = "message not terminated by a dashed line"
		}
		return CommitRecord{}, &blockError{state: state, reason: reason}
	}

	return CommitRecord{
		Hash:    strings.TrimSpace(header[0]),
		Author:  strings.TrimSpace(header[1]),
		Date:    strings.TrimSpace(header[2]),
		Message: strings.TrimSpace(strings.Join(message, "\n")),
		Diff:    strings.TrimSpace(strings.Join(diff, "\n")),
	}, nil
}

func cutField(line, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// isRule reports whether line consists only of ch repeated at least n times.
func isRule(line string, ch byte, n int) bool {
	if len(line) < n {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != ch {
			return false
		}
	}
	return true
}

func isBlankBlock(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
