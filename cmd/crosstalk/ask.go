package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"crosstalk/internal/cli"
)

func runAsk(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk ask", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	timeoutFlag := fs.Duration("timeout", 0, "Response deadline (default: config timeout_ms)")
	pollFlag := fs.Duration("poll-interval", 0, "Delay between capture samples (default: config poll_interval_ms)")
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printAskHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printAskHelp(out)
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
	coordinator := rt.coordinator
	if *timeoutFlag > 0 || *pollFlag > 0 {
		opts := rt.cfg.ExchangeOptions()
		if *timeoutFlag > 0 {
			opts.Timeout = *timeoutFlag
		}
		if *pollFlag > 0 {
			opts.PollInterval = *pollFlag
		}
		coordinator = newCoordinator(rt, opts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	response, err := coordinator.Ask(ctx, target, text)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeForError(err)
	}
	fmt.Fprintln(out, response)
	return exitCodeSuccess
}

func runRead(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk read", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printReadHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printReadHelp(out)
		return exitCodeSuccess
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitCodeUsage
	}
	target := fs.Arg(0)

	rt, err := newRuntime(common, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer rt.close()

	capture, exists, err := rt.coordinator.Read(context.Background(), target)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	if !exists {
		fmt.Fprintf(errOut, "session %q not found\n", target)
		return exitCodeNotFound
	}
	fmt.Fprint(out, capture)
	return exitCodeSuccess
}

func printAskHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk ask [options] <target> <text|->")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Deliver text to a session and await its response")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	cli.WriteOption(out, "--timeout DURATION", "Response deadline (default: config timeout_ms)")
	cli.WriteOption(out, "--poll-interval DURATION", "Delay between capture samples")
	printCommonOptions(out)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  crosstalk ask coder 'what file are you editing?'")
	fmt.Fprintf(out, "  crosstalk ask --timeout %s reviewer 'done yet?'\n", 2*time.Minute)
}

func printReadHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk read [options] <target>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Print a session's current output without sending anything")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	printCommonOptions(out)
}
