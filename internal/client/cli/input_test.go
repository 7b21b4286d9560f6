package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPromptLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("river@example.com\n"))
	var out bytes.Buffer
	got, err := promptLine(in, "Email", &out)
	if err != nil || got != "river@example.com" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestPromptLineEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := promptLine(in, "Email", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestPromptMultilineStopsOnBlankLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("first paragraph\nsecond line\n\nignored\n"))
	var out bytes.Buffer
	got, err := promptMultiline(in, "Content", &out)
	if err != nil {
		t.Fatal(err)
	}
	want := "first paragraph\nsecond line"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPromptPasswordError(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}

	var out bytes.Buffer
	if _, err := promptPassword(&out); err == nil {
		t.Fatal("expected error")
	}
}

func TestPromptPasswordReadsWithoutEcho(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return []byte("sekrit123"), nil
	}

	var out bytes.Buffer
	got, err := promptPassword(&out)
	if err != nil {
		t.Fatal(err)
	}
	if got != "sekrit123" {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(out.String(), "sekrit123") {
		t.Error("password echoed to output")
	}
}
