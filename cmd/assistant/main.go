// Command assistant is a terminal local-discovery assistant: place search
// around the current location, favorites, and Gemini travel advice.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/FACorreiaa/loci-local-assistant/pkg/config"
	"github.com/FACorreiaa/loci-local-assistant/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(stdout, usage())
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	log := logger.New(stderr, cfg.Observability.LogFormat, cfg.Observability.Level())
	slog.SetDefault(log)

	deps, err := InitDependencies(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize dependencies", slog.Any("error", err))
		return 1
	}
	defer deps.Cleanup()

	if cfg.Observability.MetricsEnabled {
		shutdown, err := startUtilityServer(ctx, cfg.Observability.MetricsAddr, deps)
		if err != nil {
			log.Error("failed to start metrics server", slog.Any("error", err))
		} else {
			defer shutdown()
		}
	}

	a := newApp(deps, stdin, stdout, lipgloss.HasDarkBackground)
	err = a.dispatch(ctx, args)
	return exitCode(err, stderr)
}

// exitCode reports err to the user and returns the process exit status.
func exitCode(err error, stderr io.Writer) int {
	var uerr usageError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errReported):
		return 1
	case errors.As(err, &uerr):
		fmt.Fprintf(stderr, "%s\n\n%s", uerr.msg, usage())
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	}
	fmt.Fprintln(stderr, userMessage(err))
	return 1
}
