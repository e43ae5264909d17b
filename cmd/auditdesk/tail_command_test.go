package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"auditdesk/internal/api"
	"auditdesk/internal/cursors"
	"auditdesk/internal/testsupport"
)

func TestTailShowsLastLines(t *testing.T) {
	env := setupCLITestEnv(t, false)
	logPath := filepath.Join(env.baseDir, "app.log")
	testsupport.WriteLog(t, logPath, "one", "two", "three", "four")

	out, _, err := runCLI(t, []string{"tail", "-n", "2", logPath}, "", env.configPath)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if out != "three\nfour\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTailFromOffsetJSON(t *testing.T) {
	env := setupCLITestEnv(t, false)
	logPath := filepath.Join(env.baseDir, "app.log")
	first := testsupport.WriteLog(t, logPath, "alpha")
	total := testsupport.AppendLog(t, logPath, "beta")

	out, _, err := runCLI(t, []string{"tail", "--offset", "6", "--json", logPath}, "", env.configPath)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if first != 6 {
		t.Fatalf("fixture length %d", first)
	}
	var resp api.TailResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if resp.Text != "beta\n" || resp.Length != total {
		t.Fatalf("unexpected chunk %+v", resp)
	}
}

func TestTailMissingFileFails(t *testing.T) {
	env := setupCLITestEnv(t, false)
	_, _, err := runCLI(t, []string{"tail", "--offset", "0", filepath.Join(env.baseDir, "absent.log")}, "", env.configPath)
	if err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestTailResumeUsesBookmark(t *testing.T) {
	env := setupCLITestEnv(t, false)
	logPath := filepath.Join(env.baseDir, "app.log")
	testsupport.WriteLog(t, logPath, "old-1", "old-2")

	if _, _, err := runCLI(t, []string{"tail", "--resume", logPath}, "", env.configPath); err != nil {
		t.Fatalf("first resume: %v", err)
	}
	testsupport.AppendLog(t, logPath, "new-1")

	out, _, err := runCLI(t, []string{"tail", "--resume", logPath}, "", env.configPath)
	if err != nil {
		t.Fatalf("second resume: %v", err)
	}
	if out != "new-1\n" {
		t.Fatalf("expected only new text, got %q", out)
	}

	store, err := cursors.Open(env.cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	saved, ok, err := store.Get(context.Background(), logPath)
	if err != nil || !ok {
		t.Fatalf("bookmark missing: ok=%v err=%v", ok, err)
	}
	if saved.Offset != uint64(len("old-1\nold-2\nnew-1\n")) {
		t.Fatalf("unexpected bookmark offset %d", saved.Offset)
	}

	out, _, err = runCLI(t, []string{"cursors", "list"}, "", env.configPath)
	if err != nil {
		t.Fatalf("cursors list: %v", err)
	}
	requireContains(t, out, "app.log")

	out, _, err = runCLI(t, []string{"cursors", "forget", logPath}, "", env.configPath)
	if err != nil {
		t.Fatalf("cursors forget: %v", err)
	}
	requireContains(t, out, "Forgot bookmark")

	out, _, err = runCLI(t, []string{"cursors", "list"}, "", env.configPath)
	if err != nil {
		t.Fatalf("cursors list: %v", err)
	}
	requireContains(t, out, "No saved bookmarks")
}

func TestTailFollowPrintsAppendedText(t *testing.T) {
	env := setupCLITestEnv(t, false)
	logPath := filepath.Join(env.baseDir, "follow.log")
	testsupport.WriteLog(t, logPath, "start")

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	stdout := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- executeCLI(ctx, nil, stdout, &syncBuffer{}, []string{"tail", "--follow", "--save", logPath}, "", env.configPath)
	}()

	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "start") })
	testsupport.AppendLog(t, logPath, "appended")
	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "appended") })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("tail --follow: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tail --follow did not stop after cancel")
	}

	store, err := cursors.Open(env.cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	saved, ok, err := store.Get(context.Background(), logPath)
	if err != nil || !ok {
		t.Fatalf("bookmark missing: ok=%v err=%v", ok, err)
	}
	if saved.Offset != uint64(len("start\nappended\n")) {
		t.Fatalf("unexpected bookmark offset %d", saved.Offset)
	}
}

func TestTailViaDaemon(t *testing.T) {
	env := setupCLITestEnv(t, true)
	logPath := filepath.Join(env.baseDir, "daemon.log")
	testsupport.WriteLog(t, logPath, "a", "b", "c")

	out, _, err := runCLI(t, []string{"tail", "-n", "1", "--via-daemon", logPath}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tail via daemon: %v", err)
	}
	if out != "c\n" {
		t.Fatalf("unexpected output %q", out)
	}
	if got := env.daemon.Service().Stats().ChunksServed; got == 0 {
		t.Fatal("daemon served no chunks")
	}
}

func TestTailFollowContinuesUnfinishedLine(t *testing.T) {
	env := setupCLITestEnv(t, false)
	logPath := filepath.Join(env.baseDir, "partial.log")
	if err := os.WriteFile(logPath, []byte("one\ntw"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	stdout := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- executeCLI(ctx, nil, stdout, &syncBuffer{}, []string{"tail", "-f", "-n", "5", logPath}, "", env.configPath)
	}()

	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "tw") })
	appendRaw(t, logPath, "o\n")
	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "two\n") })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("tail -f: %v", err)
	}
	if got := stdout.String(); got != "one\ntwo\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestTailFollowViaDaemonWaitsForSplitCharacter(t *testing.T) {
	env := setupCLITestEnv(t, true)
	logPath := filepath.Join(env.baseDir, "split.log")
	testsupport.WriteLog(t, logPath, "ok")

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	stdout := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- executeCLI(ctx, nil, stdout, &syncBuffer{}, []string{"tail", "-f", "--offset", "3", "--via-daemon", logPath}, env.socketPath, env.configPath)
	}()

	appendRaw(t, logPath, "\xc3")
	time.Sleep(300 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("tail -f stopped on an unfinished character: %v", err)
	default:
	}
	appendRaw(t, logPath, "\xa9\n")
	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "é\n") })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("tail -f via daemon: %v", err)
	}
}

func appendRaw(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatal(err)
	}
}
