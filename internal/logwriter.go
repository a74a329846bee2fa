package internal

import (
	"fmt"
	"io"
	"strings"
)

var (
	blockRule   = strings.Repeat("=", RuleWidth)
	messageRule = strings.Repeat("-", RuleWidth)
)

// WriteBlock appends one commit to w in the log format read by LogParser.
func WriteBlock(w io.Writer, r CommitRecord) error {
	_, err := fmt.Fprintf(w, "\n%s\nCOMMIT: %s\nAUTHOR: %s\nDATE:   %s\nMESSAGE: %s\n%s\n\n%s",
		blockRule, r.Hash, r.Author, r.Date, strings.TrimRight(r.Message, "\n"), messageRule, r.Diff)
	return err
}
