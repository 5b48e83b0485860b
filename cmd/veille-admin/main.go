package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/target/veille-api/config"
	"github.com/target/veille-api/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

func main() {
	cfg, cfgErr := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.IsDev)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	if cfgErr != nil {
		logger.ErrorContext(context.Background(), "load config", "error", cfgErr)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"research": {
			name:        "research",
			description: "Run one research job from a subject file or --subject and persist it",
			run:         runResearch,
		},
		"list": {
			name:        "list",
			description: "List persisted research jobs, most recent first",
			run:         runList,
		},
		"show": {
			name:        "show",
			description: "Print one research job as JSON or text (optionally projected with --query)",
			run:         runShow,
		},
		"latest": {
			name:        "latest",
			description: "Print the most recently completed research job",
			run:         runLatest,
		},
		"delete": {
			name:        "delete",
			description: "Delete the artifacts of one research job",
			run:         runDelete,
		},
		"check-config": {
			name:        "check-config",
			description: "Verify credential, output directory and engine defaults before deploying",
			run:         runCheckConfig,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: veille-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-14s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// openServices wires the same research pipeline the HTTP service runs on.
func openServices(ctx *commandContext) (*bootstrap.ServiceContainer, error) {
	cfg := ctx.Config
	// One-shot commands have no scrape endpoint.
	cfg.Observability.Metrics.Enabled = false
	return bootstrap.NewServices(ctx.Ctx, &bootstrap.ServiceDeps{
		Config: &cfg,
		Logger: ctx.Logger,
	})
}

func closeServices(ctx *commandContext, services *bootstrap.ServiceContainer) {
	if err := services.Close(); err != nil {
		ctx.Logger.Warn("close services failed", "error", err)
	}
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
