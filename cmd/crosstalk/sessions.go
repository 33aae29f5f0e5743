package main

import (
	"flag"
	"fmt"
	"io"

	"crosstalk/internal/cli"
	"crosstalk/internal/registry"
)

func runSessions(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk sessions", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printSessionsHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printSessionsHelp(out)
		return exitCodeSuccess
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return exitCodeUsage
	}

	rt, err := newRuntime(common, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer rt.close()

	sessions, err := rt.driver.ListSessions()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	names, err := registry.Open(rt.cfg.StateDir, rt.logger)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer names.Close()

	for _, session := range sessions {
		line := session
		if descriptor, ok := names.Get(session); ok {
			line += "\t" + descriptor
		}
		if session == rt.self {
			line += "\t(self)"
		}
		fmt.Fprintln(out, line)
	}
	return exitCodeSuccess
}

func runName(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk name", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	clearFlag := fs.Bool("clear", false, "Remove the session's descriptor")
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printNameHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printNameHelp(out)
		return exitCodeSuccess
	}
	if fs.NArg() < 1 || fs.NArg() > 2 || (*clearFlag && fs.NArg() != 1) {
		fs.Usage()
		return exitCodeUsage
	}
	session := fs.Arg(0)

	rt, err := newRuntime(common, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer rt.close()

	names, err := registry.Open(rt.cfg.StateDir, rt.logger)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer names.Close()

	if *clearFlag {
		if err := names.Set(session, ""); err != nil {
			fmt.Fprintln(errOut, err)
			return exitCodeTransmit
		}
		return exitCodeSuccess
	}
	if fs.NArg() == 2 {
		if err := names.Set(session, fs.Arg(1)); err != nil {
			fmt.Fprintln(errOut, err)
			return exitCodeTransmit
		}
		return exitCodeSuccess
	}

	descriptor, ok := names.Get(session)
	if !ok {
		fmt.Fprintf(errOut, "no descriptor for %q\n", session)
		return exitCodeNotFound
	}
	fmt.Fprintln(out, descriptor)
	return exitCodeSuccess
}

func printSessionsHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk sessions [options]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "List sessions on the tmux server with their descriptors")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	printCommonOptions(out)
}

func printNameHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk name [options] <session> [descriptor]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Get or set a human-memorable descriptor for a session")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	cli.WriteOption(out, "--clear", "Remove the session's descriptor")
	printCommonOptions(out)
}
