package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crosstalk/internal/cli"
	"crosstalk/internal/history"
	"crosstalk/internal/monitor"
	"crosstalk/internal/registry"
)

func runMonitor(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("crosstalk monitor", flag.ContinueOnError)
	fs.SetOutput(errOut)
	common := addCommonFlags(fs)
	listenFlag := fs.String("listen", "", "HTTP listen address (default: config monitor_listen)")
	intervalFlag := fs.Duration("interval", 0, "Sweep interval (default: config monitor_interval_ms)")
	helpVersion := cli.AddHelpVersionFlags(fs)
	fs.Usage = func() { printMonitorHelp(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return exitCodeUsage
	}
	if helpVersion.Help {
		printMonitorHelp(out)
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

	names, err := registry.Open(rt.cfg.StateDir, rt.logger)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return exitCodeTransmit
	}
	defer names.Close()
	if err := names.Watch(); err != nil {
		rt.logger.Warn("registry watch unavailable", map[string]string{"error": err.Error()})
	}

	listen := rt.cfg.MonitorListen
	if *listenFlag != "" {
		listen = *listenFlag
	}
	interval := rt.cfg.MonitorInterval()
	if *intervalFlag > 0 {
		interval = *intervalFlag
	}

	hub := monitor.NewHub()
	tailer := monitor.NewTailer(rt.driver, store, hub, rt.logger, monitor.TailerOptions{
		Interval:     interval,
		CaptureLines: rt.cfg.CaptureLines,
		Self:         rt.self,
	})

	server := &http.Server{
		Addr:              listen,
		Handler:           monitor.NewServeMux(hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		rt.logger.Info("monitor listening", map[string]string{"addr": listen})
		serverErr <- server.ListenAndServe()
	}()
	go func() {
		events, cancel := hub.Subscribe(0)
		defer cancel()
		for event := range events {
			label := event.Session
			if descriptor, ok := names.Get(event.Session); ok {
				label += " (" + descriptor + ")"
			}
			fmt.Fprintf(out, "%s  %s  %s\n",
				event.ObservedAt.Format(time.RFC3339), label, event.Message.Kind())
		}
	}()

	tailerDone := make(chan error, 1)
	go func() { tailerDone <- tailer.Run(ctx) }()

	code := exitCodeSuccess
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(errOut, err)
			code = exitCodeTransmit
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	<-tailerDone
	return code
}

func printMonitorHelp(out io.Writer) {
	fmt.Fprintln(out, "Usage: crosstalk monitor [options]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Watch every session for protocol messages, record them, and stream")
	fmt.Fprintln(out, "them over websocket at /events")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	cli.WriteOption(out, "--listen ADDR", "HTTP listen address (default: config monitor_listen)")
	cli.WriteOption(out, "--interval DURATION", "Sweep interval (default: config monitor_interval_ms)")
	printCommonOptions(out)
}
