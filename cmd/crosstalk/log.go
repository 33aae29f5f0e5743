package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"crosstalk/internal/cli"
	"crosstalk/internal/history"
)

func runLog(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk log", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	limitFlag := fs.Int("limit", 20, "Maximum entries to show")
	rawFlag := fs.Bool("raw", false, "Print full message blocks")
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printLogHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printLogHelp(out)
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

	store, err := history.Open(rt.cfg.StateDir)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer store.Close()

	entries, err := store.Recent(*limitFlag)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	for _, entry := range entries {
		if *rawFlag {
			fmt.Fprintln(out, entry.Raw)
			fmt.Fprintln(out, "")
			continue
		}
		fmt.Fprintln(out, formatLogEntry(entry))
	}
	return exitCodeSuccess
}

func formatLogEntry(entry history.Entry) string {
	seq := "-"
	if entry.HasSeq {
		seq = strconv.Itoa(entry.Seq)
	}
	return fmt.Sprintf("%s  %-20s %-18s seq=%s",
		entry.ObservedAt.UTC().Format(time.RFC3339), entry.Sender, entry.Kind, seq)
}

func printLogHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk log [options]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Show recently observed protocol messages, newest first")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	cli.WriteOption(out, "--limit N", "Maximum entries to show (default: 20)")
	cli.WriteOption(out, "--raw", "Print full message blocks")
	printCommonOptions(out)
}
