package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"crosstalk/internal/config"
	"crosstalk/internal/exchange"
	"crosstalk/internal/logging"
	"crosstalk/internal/mux"
)

// commonFlags are accepted by every subcommand that touches the channel.
type commonFlags struct {
	configPath string
	self       string
	logLevel   string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	flags := &commonFlags{}
	fs.StringVar(&flags.configPath, "config", "", "Config file (default: ~/.config/crosstalk/config.yaml)")
	fs.StringVar(&flags.self, "self", "", "This session's name (default: $CROSSTALK_SELF, then tmux)")
	fs.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	return flags
}

type appRuntime struct {
	cfg         config.Config
	logger      *logging.Logger
	driver      *mux.TmuxDriver
	coordinator *exchange.Coordinator
	self        string

	closeLog func() error
}

// Injection points for tests; the CLI otherwise talks to a real tmux server
// and the process environment.
var newDriver = mux.NewTmuxDriver

var stdin io.Reader = os.Stdin

var getenv = os.Getenv

func newRuntime(flags *commonFlags, errOut io.Writer) (*appRuntime, error) {
	path := strings.TrimSpace(flags.configPath)
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	levelText := cfg.LogLevel
	if flags.logLevel != "" {
		levelText = flags.logLevel
	}
	level, ok := logging.ParseLevel(levelText)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", levelText)
	}

	var logOutput io.Writer = errOut
	closeLog := func() error { return nil }
	if cfg.LogFile != "" {
		writer, err := logging.OpenFileWriter(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		logOutput = writer
		closeLog = writer.Close
	}
	logger := logging.NewLoggerWithOutput(level, logOutput)

	driver := newDriver()
	self := resolveSelf(flags.self, driver)
	coordinator := exchange.New(driver, self, cfg.ExchangeOptions(), logger)

	return &appRuntime{
		cfg:         cfg,
		logger:      logger,
		driver:      driver,
		coordinator: coordinator,
		self:        self,
		closeLog:    closeLog,
	}, nil
}

// newCoordinator rebuilds the coordinator with per-invocation overrides.
func newCoordinator(rt *appRuntime, opts exchange.Options) *exchange.Coordinator {
	return exchange.New(rt.driver, rt.self, opts, rt.logger)
}

func (rt *appRuntime) close() {
	if rt.closeLog != nil {
		rt.closeLog()
	}
}

// resolveSelf picks this session's identity: explicit flag, then environment,
// then asking tmux which session the process runs in.
func resolveSelf(flagValue string, driver *mux.TmuxDriver) string {
	if value := strings.TrimSpace(flagValue); value != "" {
		return value
	}
	if value := strings.TrimSpace(getenv("CROSSTALK_SELF")); value != "" {
		return value
	}
	if name, err := driver.CurrentSession(); err == nil {
		return name
	}
	return ""
}

// readTextArg resolves a positional text argument, with "-" meaning stdin.
func readTextArg(arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	contents, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read text from stdin: %w", err)
	}
	text := strings.TrimRight(string(contents), "\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text is required")
	}
	return text, nil
}
