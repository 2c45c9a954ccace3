// Command ragindex builds, restores, queries and validates retrieval indexes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/totto/penpot-wizard-sub002/internal/config"
	"github.com/totto/penpot-wizard-sub002/internal/domain"
	logpkg "github.com/totto/penpot-wizard-sub002/internal/logger"
	"github.com/totto/penpot-wizard-sub002/internal/version"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `Usage: ragindex [-config file.yaml] <command> [flags] [args]

Commands:
  validate <archive> <cases.json>   run test cases against an archive
  interactive [dir]                 pick a run config (default ./validation) and validate
  build <corpus.json> <out.gz>      build an archive from a corpus
  query <archive> <text>            search an archive
  serve <archive>                   serve an archive over HTTP
  version                           print build information
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ragindex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	cfgPath := fs.String("config", "", "path to a YAML config file (default: config/$ENV.yaml)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "version" {
		fmt.Fprintf(stdout, "ragindex %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return exitOK
	}

	env := config.GetEnv()
	cfg, err := loadConfig(env, *cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "ragindex: %v\n", err)
		return exitUsage
	}

	logEnv := "cli"
	if env == "prod" {
		logEnv = env
	}
	logger, err := logpkg.NewLogger(logEnv, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(stderr, "ragindex: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	commands := map[string]func(context.Context, *app, []string) error{
		"validate":    cmdValidate,
		"interactive": cmdInteractive,
		"build":       cmdBuild,
		"query":       cmdQuery,
		"serve":       cmdServe,
	}
	handler, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(stderr, "ragindex: unknown command %q\n\n", cmd)
		fs.Usage()
		return exitUsage
	}

	a, err := newApp(ctx, cfg, logger, stdout, stderr)
	if err != nil {
		logger.Error("Startup failed", zap.Error(err))
		return exitCode(err)
	}
	defer a.Close()

	if err := handler(ctx, a, rest); err != nil {
		var ue usageError
		switch {
		case errors.As(err, &ue):
			fmt.Fprintf(stderr, "ragindex %s: %s\n\n", cmd, ue.msg)
			fs.Usage()
		case errors.Is(err, errValidationFailed):
		default:
			logger.Error("Command failed", zap.String("command", cmd), zap.Error(err))
		}
		return exitCode(err)
	}
	return exitOK
}

func loadConfig(env, path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(env)
}

// usageError reports bad command-line arguments.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// errValidationFailed marks a completed run with failing cases.
var errValidationFailed = errors.New("validation failed")

func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue), errors.Is(err, domain.ErrConfiguration):
		return exitUsage
	default:
		return exitFailure
	}
}
