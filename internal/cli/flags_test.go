package cli

import (
	"flag"
	"io"
	"strings"
	"testing"
)

func TestHelpFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := AddHelpVersionFlags(fs)

	if err := fs.Parse([]string{"-h"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.Help {
		t.Fatalf("expected help flag set")
	}
}

func TestVersionFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := AddHelpVersionFlags(fs)

	if err := fs.Parse([]string{"--version"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !flags.Version {
		t.Fatalf("expected version flag set")
	}
}

func TestWriteOptionAligns(t *testing.T) {
	var builder strings.Builder
	WriteOption(&builder, "--timeout DURATION", "Response deadline")

	line := builder.String()
	if !strings.HasPrefix(line, "  --timeout DURATION") {
		t.Fatalf("unexpected line %q", line)
	}
	if !strings.HasSuffix(line, "Response deadline\n") {
		t.Fatalf("unexpected line %q", line)
	}
}
