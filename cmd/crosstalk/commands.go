package main

import (
	"fmt"
	"io"
	"os"

	"crosstalk/internal/cli"
	"crosstalk/internal/version"
)

type command interface {
	Run(args []string) int
}

type runFunc func(args []string, out, errOut io.Writer) int

type commandDeps struct {
	Stdout       io.Writer
	Stderr       io.Writer
	RunSend      runFunc
	RunAsk       runFunc
	RunEmit      runFunc
	RunRead      runFunc
	RunBroadcast runFunc
	RunSessions  runFunc
	RunName      runFunc
	RunLog       runFunc
	RunMonitor   runFunc
}

func defaultCommandDeps() commandDeps {
	return commandDeps{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		RunSend:      runSend,
		RunAsk:       runAsk,
		RunEmit:      runEmit,
		RunRead:      runRead,
		RunBroadcast: runBroadcast,
		RunSessions:  runSessions,
		RunName:      runName,
		RunLog:       runLog,
		RunMonitor:   runMonitor,
	}
}

type subCommand struct {
	deps commandDeps
	run  runFunc
}

func (c subCommand) Run(args []string) int {
	return c.run(args, c.deps.Stdout, c.deps.Stderr)
}

type helpCommand struct {
	deps commandDeps
	code int
}

func (c helpCommand) Run(args []string) int {
	out := c.deps.Stdout
	if c.code != exitCodeSuccess {
		out = c.deps.Stderr
	}
	printRootHelp(out)
	return c.code
}

type versionCommand struct {
	deps commandDeps
}

func (c versionCommand) Run(args []string) int {
	fmt.Fprintf(c.deps.Stdout, "crosstalk %s\n", version.Get())
	return exitCodeSuccess
}

type unknownCommand struct {
	deps commandDeps
	name string
}

func (c unknownCommand) Run(args []string) int {
	fmt.Fprintf(c.deps.Stderr, "unknown command %q\n\n", c.name)
	printRootHelp(c.deps.Stderr)
	return exitCodeUsage
}

func resolveCommand(args []string, deps commandDeps) (command, []string) {
	if len(args) == 0 {
		return helpCommand{deps: deps, code: exitCodeUsage}, nil
	}
	switch args[0] {
	case "send":
		return subCommand{deps: deps, run: deps.RunSend}, args[1:]
	case "ask":
		return subCommand{deps: deps, run: deps.RunAsk}, args[1:]
	case "emit":
		return subCommand{deps: deps, run: deps.RunEmit}, args[1:]
	case "read":
		return subCommand{deps: deps, run: deps.RunRead}, args[1:]
	case "broadcast":
		return subCommand{deps: deps, run: deps.RunBroadcast}, args[1:]
	case "sessions":
		return subCommand{deps: deps, run: deps.RunSessions}, args[1:]
	case "name":
		return subCommand{deps: deps, run: deps.RunName}, args[1:]
	case "log":
		return subCommand{deps: deps, run: deps.RunLog}, args[1:]
	case "monitor":
		return subCommand{deps: deps, run: deps.RunMonitor}, args[1:]
	case "help", "-h", "--help":
		return helpCommand{deps: deps, code: exitCodeSuccess}, nil
	case "version", "-v", "--version":
		return versionCommand{deps: deps}, nil
	}
	return unknownCommand{deps: deps, name: args[0]}, nil
}

func printRootHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk <command> [options]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Message other terminal sessions through the shared tmux server")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	cli.WriteOption(out, "send <target> <text|->", "Deliver text to a session without waiting")
	cli.WriteOption(out, "ask <target> <text|->", "Deliver text and await the response")
	cli.WriteOption(out, "emit <kind> [target]", "Send a structured protocol message")
	cli.WriteOption(out, "read <target>", "Print a session's current output")
	cli.WriteOption(out, "broadcast <text|->", "Deliver text to every other session")
	cli.WriteOption(out, "sessions", "List sessions and their descriptors")
	cli.WriteOption(out, "name <session> [descriptor]", "Get or set a session descriptor")
	cli.WriteOption(out, "log", "Show recently observed messages")
	cli.WriteOption(out, "monitor", "Watch all sessions and stream messages")
	cli.WriteOption(out, "version", "Print version and exit")
	cli.WriteOption(out, "help", "Show this help message")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Exit codes:")
	fmt.Fprintln(out, "  0  Success")
	fmt.Fprintln(out, "  1  Usage error")
	fmt.Fprintln(out, "  2  Session not found")
	fmt.Fprintln(out, "  3  Transmit or IO failure")
	fmt.Fprintln(out, "  4  Timed out awaiting response")
}
