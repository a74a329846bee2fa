package internal

import (
	"errors"
	"strings"
)

var (
	ErrNoCommits         = errors.New("no commit blocks could be parsed")
	ErrInvalidK          = errors.New("k must be a positive integer")
	ErrEmptyQuery        = errors.New("query is empty")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrMissingCredential = errors.New("missing credential for generation provider")
	ErrEmptyCompletion   = errors.New("provider returned an empty completion")
	ErrNotInitialized    = errors.New("gitrag workspace not initialized")
	ErrUnknownBackend    = errors.New("unknown backend")
	ErrEmptyCorpus       = errors.New("empty corpus")
)

// CommitRecord is one commit as read back from the log file. All fields are
// whitespace-trimmed; Date is kept exactly as written by the exporter.
type CommitRecord struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Diff    string `json:"diff,omitempty"`
}

// ShortHash returns at most the first seven characters of the hash.
func (r CommitRecord) ShortHash() string {
	if len(r.Hash) > 7 {
		return r.Hash[:7]
	}
	return r.Hash
}

// Subject returns the first line of the commit message.
func (r CommitRecord) Subject() string {
	subject, _, _ := strings.Cut(r.Message, "\n")
	return strings.TrimSpace(subject)
}

// Day returns the leading calendar-day part of the raw date string.
func (r CommitRecord) Day() string {
	return truncateRunes(r.Date, 10)
}

func truncateRunes(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
