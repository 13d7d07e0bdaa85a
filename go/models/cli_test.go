package models

import (
	"bytes"
	"flag"
	"strings"
	"testing"
)

func TestPrintFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Bool("v", false, "verbose output")
	fs.String("trace", "", strings.Repeat("word ", 30))
	var flags []*flag.Flag
	fs.VisitAll(func(f *flag.Flag) { flags = append(flags, f) })

	var buf bytes.Buffer
	PrintFlags(&buf, flags)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !strings.HasPrefix(lines[0], "  -trace ") {
		t.Fatalf("bad first line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[len(lines)-1], "  -v ") || !strings.Contains(lines[len(lines)-1], "(false)") {
		t.Fatalf("bad last line: %q", lines[len(lines)-1])
	}
	if len(lines) < 3 {
		t.Fatal("long usage was not wrapped")
	}
	for _, l := range lines {
		if len(l) > 80 {
			t.Fatalf("line longer than 80 columns: %q", l)
		}
	}
}
