package runner

import (
	"strings"
	"testing"
)

func TestLineWriterSplitsLines(t *testing.T) {
	var got []string
	w := NewLineWriter(func(line string) { got = append(got, line) })

	_, _ = w.Write([]byte("first\nsec"))
	_, _ = w.Write([]byte("ond\r\nthird"))
	if len(got) != 2 {
		t.Fatalf("expected 2 lines before flush, got %d: %v", len(got), got)
	}
	w.Flush()

	want := []string{"first", "second", "third"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines = %v, want %v", got, want)
	}
}

func TestLineWriterFlushEmpty(t *testing.T) {
	calls := 0
	w := NewLineWriter(func(string) { calls++ })
	w.Flush()
	if calls != 0 {
		t.Fatalf("expected no calls, got %d", calls)
	}
}

func TestScanLinesLongLine(t *testing.T) {
	long := strings.Repeat("y", 3<<20)
	var got []string
	if err := ScanLines(strings.NewReader(long+"\r\nnext\n"), func(line string) { got = append(got, line) }); err != nil {
		t.Fatalf("ScanLines: %v", err)
	}
	if len(got) != 2 || got[0] != long || got[1] != "next" {
		t.Fatalf("unexpected lines: %d", len(got))
	}
}

func TestScanLines(t *testing.T) {
	var got []string
	if err := ScanLines(strings.NewReader("a\nb\n\nc"), func(line string) { got = append(got, line) }); err != nil {
		t.Fatalf("ScanLines: %v", err)
	}
	if strings.Join(got, ",") != "a,b,,c" {
		t.Fatalf("unexpected lines: %q", got)
	}
}
