package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"crosstalk/internal/cli"
	"crosstalk/internal/exchange"
)

func runSend(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk send", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printSendHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printSendHelp(out)
		return exitCodeSuccess
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return exitCodeUsage
	}
	target := fs.Arg(0)
	text, err := readTextArg(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeUsage
	}

	rt, err := newRuntime(common, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer rt.close()

	if err := rt.coordinator.Send(context.Background(), target, text); err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeForError(err)
	}
	return exitCodeSuccess
}

func runBroadcast(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk broadcast", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printBroadcastHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printBroadcastHelp(out)
		return exitCodeSuccess
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitCodeUsage
	}
	text, err := readTextArg(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeUsage
	}

	rt, err := newRuntime(common, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer rt.close()

	results, err := rt.coordinator.Broadcast(context.Background(), text)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	return reportBroadcast(results, out, errOut)
}

// reportBroadcast prints one line per target. Partial delivery is normal;
// any failed target turns the exit code into a transmit failure.
func reportBroadcast(results []exchange.Result, out, errOut io.Writer) int {
	code := exitCodeSuccess
	for _, result := range results {
		if result.Err != nil {
			fmt.Fprintf(errOut, "failed %s: %v\n", result.Target, result.Err)
			code = exitCodeTransmit
			continue
		}
		fmt.Fprintf(out, "delivered %s\n", result.Target)
	}
	return code
}

func printSendHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk send [options] <target> <text|->")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Deliver text to a session without waiting for a response")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	printCommonOptions(out)
}

func printBroadcastHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk broadcast [options] <text|->")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Deliver text to every session except this one")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	printCommonOptions(out)
}

func printCommonOptions(out io.Writer) {
	cli.WriteOption(out, "--config PATH", "Config file (default: ~/.config/crosstalk/config.yaml)")
	cli.WriteOption(out, "--self NAME", "This session's name (default: $CROSSTALK_SELF, then tmux)")
	cli.WriteOption(out, "--log-level LEVEL", "Log level: debug, info, warn, error")
	cli.WriteOption(out, "--help", "Show this help message")
}
