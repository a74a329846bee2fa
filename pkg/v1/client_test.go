package v1

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/4thel00z/gitrag/internal"
)

type stubProvider struct {
	reply string
	err   error
}

func (p *stubProvider) Complete(context.Context, string) (string, error) {
	return p.reply, p.err
}

func writeTestLog(t *testing.T) string {
	t.Helper()
	records := []internal.CommitRecord{
		{Hash: "a1", Author: "Ann", Date: "2024-01-02 10:00:00+00:00", Message: "fix login bug", Diff: "+check token"},
		{Hash: "b2", Author: "Bob", Date: "2024-01-03 10:00:00+00:00", Message: "add caching layer", Diff: "+cache"},
		{Hash: "c3", Author: "Cid", Date: "2024-01-04 10:00:00+00:00", Message: "add timeout retry logic", Diff: "+retry"},
	}

	var buf bytes.Buffer
	for _, r := range records {
		if err := internal.WriteBlock(&buf, r); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "diffs.log")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func setupClientTest(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithLogPath(writeTestLog(t))}, opts...)

	client, err := New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClientCommits(t *testing.T) {
	client := setupClientTest(t)

	commits := client.Commits()
	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}
	if commits[2].Hash != "c3" || commits[2].Diff != "+retry" {
		t.Errorf("unexpected last commit: %+v", commits[2])
	}
}

func TestClientSearch(t *testing.T) {
	client := setupClientTest(t)
	ctx := context.Background()

	results, err := client.Search(ctx, "timeout retry logic", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Commit.Hash != "c3" {
		t.Fatalf("expected c3, got %+v", results)
	}
	if results[0].Position != 2 {
		t.Errorf("position = %d, want 2", results[0].Position)
	}

	results, err = client.Search(ctx, "cache", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != internal.DefaultTopK {
		t.Errorf("expected %d results, got %d", internal.DefaultTopK, len(results))
	}
}

func TestClientTopK(t *testing.T) {
	client := setupClientTest(t, WithTopK(10))

	results, err := client.Search(context.Background(), "login", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("k should clamp to corpus size, got %d results", len(results))
	}
}

func TestClientAsk(t *testing.T) {
	client := setupClientTest(t, WithProvider(&stubProvider{reply: "Ann fixed it."}))

	answer, err := client.Ask(context.Background(), "who fixed the login bug?", 1)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if answer.Failed || answer.Text != "Ann fixed it." {
		t.Errorf("unexpected answer: %+v", answer)
	}
	if len(answer.Results) != 1 || answer.Results[0].Commit.Hash != "a1" {
		t.Errorf("unexpected context: %+v", answer.Results)
	}
}

func TestClientAskGenerationFailure(t *testing.T) {
	client := setupClientTest(t, WithProvider(&stubProvider{err: errors.New("offline")}))

	answer, err := client.Ask(context.Background(), "anything", 1)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !answer.Failed {
		t.Error("expected failed answer")
	}
	if answer.Text != "Error generating answer: offline" {
		t.Errorf("text = %q", answer.Text)
	}
}

func TestClientCachePath(t *testing.T) {
	logPath := writeTestLog(t)
	cachePath := filepath.Join(t.TempDir(), "vectors.zst")

	first, err := New(context.Background(), WithLogPath(logPath), WithCachePath(cachePath))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_ = first.Close()

	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("expected cache file: %v", err)
	}

	second, err := New(context.Background(), WithLogPath(logPath), WithCachePath(cachePath))
	if err != nil {
		t.Fatalf("reopen client: %v", err)
	}
	defer second.Close()

	results, err := second.Search(context.Background(), "timeout retry logic", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results[0].Commit.Hash != "c3" {
		t.Errorf("expected c3 from cached index, got %s", results[0].Commit.Hash)
	}
}

func TestClientMissingLog(t *testing.T) {
	_, err := New(context.Background(), WithLogPath(filepath.Join(t.TempDir(), "missing.log")))
	if err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestClientEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diffs.log")
	if err := os.WriteFile(path, []byte("no commits here\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(context.Background(), WithLogPath(path))
	if !errors.Is(err, internal.ErrNoCommits) {
		t.Fatalf("expected ErrNoCommits, got %v", err)
	}
}
