// Package cli holds small helpers shared across crosstalk's subcommands.
package cli

import (
	"flag"
	"fmt"
	"io"
)

type HelpVersionFlags struct {
	Help    bool
	Version bool
}

// AddHelpVersionFlags registers the conventional -h/--help and --version
// flags on a flag set.
func AddHelpVersionFlags(fs *flag.FlagSet) *HelpVersionFlags {
	flags := &HelpVersionFlags{}
	if fs == nil {
		return flags
	}
	fs.BoolVar(&flags.Help, "help", false, "Show help")
	fs.BoolVar(&flags.Help, "h", false, "Show help")
	fs.BoolVar(&flags.Version, "version", false, "Print version and exit")
	return flags
}

// WriteOption prints one aligned option line in a help screen.
func WriteOption(out io.Writer, name, desc string) {
	fmt.Fprintf(out, "  %-24s %s\n", name, desc)
}
