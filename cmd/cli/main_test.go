package main

import (
	"bytes"
	"io"
	"os"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			A int `json:"a"`
		}{A: 1})
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams(`{"amount": 12.5, "journal_id": "abc"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["amount"] != 12.5 || params["journal_id"] != "abc" {
		t.Fatalf("unexpected params: %#v", params)
	}
}

func TestParseParamsEmpty(t *testing.T) {
	params, err := parseParams("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(params) != 0 {
		t.Fatalf("expected empty params, got %#v", params)
	}
}

func TestParseParamsInvalid(t *testing.T) {
	if _, err := parseParams("{nope"); err == nil {
		t.Fatal("expected error for malformed params")
	}
}
