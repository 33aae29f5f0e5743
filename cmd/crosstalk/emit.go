package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"crosstalk/internal/cli"
	"crosstalk/internal/protocol"
)

type emitFlags struct {
	status          string
	task            string
	progress        string
	taskContext     string
	priority        string
	errorText       string
	recoverable     bool
	needsAssistance bool
	summary         string
	retained        string
	taskState       string
	all             bool
	await           bool
}

func runEmit(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk emit", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	flags := &emitFlags{}
	fs.StringVar(&flags.status, "status", "", "Work or liveness state")
	fs.StringVar(&flags.task, "task", "", "Task description")
	fs.StringVar(&flags.progress, "progress", "", "Progress note (status)")
	fs.StringVar(&flags.taskContext, "context", "", "Handoff context (handoff)")
	fs.StringVar(&flags.priority, "priority", "", "Handoff priority: low, medium, high")
	fs.StringVar(&flags.errorText, "error", "", "Error description (error)")
	fs.BoolVar(&flags.recoverable, "recoverable", false, "Error is recoverable")
	fs.BoolVar(&flags.needsAssistance, "needs-assistance", false, "Error needs another session's help")
	fs.StringVar(&flags.summary, "summary", "", "Compaction summary (compaction)")
	fs.StringVar(&flags.retained, "retained", "", "Comma-separated retained items (compaction)")
	fs.StringVar(&flags.taskState, "task-state", "", "Current task state (compaction)")
	fs.BoolVar(&flags.all, "all", false, "Broadcast to every other session")
	fs.BoolVar(&flags.await, "await", false, "Await and print the target's response")
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printEmitHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printEmitHelp(out)
		return exitCodeSuccess
	}
	if flags.all && flags.await {
		fmt.Fprintln(errOut, "--all and --await are mutually exclusive")
		return exitCodeUsage
	}
	wantArgs := 2
	if flags.all {
		wantArgs = 1
	}
	if fs.NArg() != wantArgs {
		fs.Usage()
		return exitCodeUsage
	}
	kind := fs.Arg(0)

	rt, err := newRuntime(common, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer rt.close()
	if rt.self == "" {
		fmt.Fprintln(errOut, "sender identity required (--self or $CROSSTALK_SELF)")
		return exitCodeUsage
	}

	message, err := buildMessage(kind, rt.self, flags)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flags.all {
		results, err := rt.coordinator.BroadcastMessage(ctx, message)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return exitCodeTransmit
		}
		return reportBroadcast(results, out, errOut)
	}

	target := fs.Arg(1)
	if flags.await {
		response, err := rt.coordinator.AskMessage(ctx, target, message)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return exitCodeForError(err)
		}
		fmt.Fprintln(out, response)
		return exitCodeSuccess
	}
	if err := rt.coordinator.SendMessage(ctx, target, message); err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeForError(err)
	}
	return exitCodeSuccess
}

// buildMessage maps a kind keyword plus flags onto a typed protocol message.
// Enum flags are validated here so a typo fails as a usage error instead of
// silently becoming a default on the wire.
func buildMessage(kind, self string, flags *emitFlags) (protocol.Message, error) {
	switch kind {
	case "status":
		status, err := parseEnum("status", flags.status, string(protocol.StatusIdle),
			string(protocol.StatusIdle), string(protocol.StatusWorking),
			string(protocol.StatusBlocked), string(protocol.StatusCompleted))
		if err != nil {
			return nil, err
		}
		return protocol.NewStatusUpdate(self, protocol.Status(status), flags.task, flags.progress), nil
	case "handoff":
		if strings.TrimSpace(flags.task) == "" {
			return nil, fmt.Errorf("--task is required for handoff")
		}
		priority, err := parseEnum("priority", flags.priority, string(protocol.PriorityMedium),
			string(protocol.PriorityLow), string(protocol.PriorityMedium), string(protocol.PriorityHigh))
		if err != nil {
			return nil, err
		}
		return protocol.NewTaskHandoff(self, flags.task, flags.taskContext, protocol.Priority(priority)), nil
	case "error":
		if strings.TrimSpace(flags.errorText) == "" {
			return nil, fmt.Errorf("--error is required for error")
		}
		return protocol.NewErrorNotice(self, flags.errorText, flags.recoverable, flags.needsAssistance), nil
	case "heartbeat":
		status, err := parseEnum("status", flags.status, string(protocol.HeartbeatAlive),
			string(protocol.HeartbeatAlive), string(protocol.HeartbeatBusy), string(protocol.HeartbeatIdle))
		if err != nil {
			return nil, err
		}
		return protocol.NewHeartbeat(self, protocol.HeartbeatStatus(status), flags.task), nil
	case "compaction":
		if strings.TrimSpace(flags.summary) == "" {
			return nil, fmt.Errorf("--summary is required for compaction")
		}
		return protocol.NewContextCompaction(self, flags.summary, splitList(flags.retained), flags.taskState), nil
	}
	return nil, fmt.Errorf("unknown kind %q (want status, handoff, error, heartbeat, or compaction)", kind)
}

func parseEnum(name, value, fallback string, allowed ...string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback, nil
	}
	for _, candidate := range allowed {
		if value == candidate {
			return value, nil
		}
	}
	return "", fmt.Errorf("invalid --%s %q (want %s)", name, value, strings.Join(allowed, ", "))
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func printEmitHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk emit [options] <kind> <target>")
	fmt.Fprintln(out, "       crosstalk emit --all [options] <kind>")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Send a structured protocol message")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Kinds:")
	cli.WriteOption(out, "status", "Report work state (--status, --task, --progress)")
	cli.WriteOption(out, "handoff", "Hand a task over (--task, --context, --priority)")
	cli.WriteOption(out, "error", "Report a failure (--error, --recoverable, --needs-assistance)")
	cli.WriteOption(out, "heartbeat", "Report liveness (--status, --task)")
	cli.WriteOption(out, "compaction", "Announce a context compaction (--summary, --retained, --task-state)")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	cli.WriteOption(out, "--all", "Broadcast to every other session")
	cli.WriteOption(out, "--await", "Await and print the target's response")
	printCommonOptions(out)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Examples:")
	fmt.Fprintln(out, "  crosstalk emit --status working --task 'wiring the parser' status coder")
	fmt.Fprintln(out, "  crosstalk emit --all --status busy heartbeat")
}
