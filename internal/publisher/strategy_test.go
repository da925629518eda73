package publisher

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunChainFirstSuccessStops(t *testing.T) {
	var ran []string
	chain := []Strategy{
		{Name: "a", Run: func() error { ran = append(ran, "a"); return errors.New("no element") }},
		{Name: "b", Run: func() error { ran = append(ran, "b"); return nil }},
		{Name: "c", Run: func() error { ran = append(ran, "c"); return nil }},
	}

	if !runChain(testLogger(), "fill_title", chain) {
		t.Fatal("expected chain to succeed")
	}
	if len(ran) != 2 || ran[0] != "a" || ran[1] != "b" {
		t.Errorf("unexpected run order: %v", ran)
	}
}

func TestRunChainExhausted(t *testing.T) {
	calls := 0
	chain := []Strategy{
		{Name: "a", Run: func() error { calls++; return errors.New("fail") }},
		{Name: "b", Run: func() error { calls++; return errors.New("fail") }},
	}

	if runChain(testLogger(), "confirm_publish", chain) {
		t.Fatal("expected chain to fail")
	}
	if calls != 2 {
		t.Errorf("expected every strategy tried, got %d calls", calls)
	}
}

func TestRunChainEmpty(t *testing.T) {
	if runChain(testLogger(), "noop", nil) {
		t.Fatal("empty chain must report failure")
	}
}
