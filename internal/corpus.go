package internal

import "strings"

// SearchableText renders the canonical text of a record that gets embedded.
// The diff is included verbatim. The output depends only on r.
func SearchableText(r CommitRecord) string {
	var sb strings.Builder
	sb.Grow(len(r.Hash) + len(r.Author) + len(r.Date) + len(r.Message) + len(r.Diff) + 64)
	sb.WriteString("Commit: ")
	sb.WriteString(r.Hash)
	sb.WriteString("\nAuthor: ")
	sb.WriteString(r.Author)
	sb.WriteString("\nDate: ")
	sb.WriteString(r.Date)
	sb.WriteString("\nMessage: ")
	sb.WriteString(r.Message)
	sb.WriteString("\n\nChanges:\n")
	sb.WriteString(r.Diff)
	return sb.String()
}

// Corpus is the ordered, immutable set of records and their searchable text.
// Position i of Units always belongs to Records[i].
type Corpus struct {
	Records []CommitRecord
	Units   []string
}

func BuildCorpus(records []CommitRecord) *Corpus {
	c := &Corpus{
		Records: make([]CommitRecord, len(records)),
		Units:   make([]string, len(records)),
	}
	copy(c.Records, records)
	for i, r := range c.Records {
		c.Units[i] = SearchableText(r)
	}
	return c
}

func (c *Corpus) Len() int {
	return len(c.Records)
}
