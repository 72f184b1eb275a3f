package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"moneybook/internal/cli"
	"moneybook/internal/config"
	applog "moneybook/internal/log"
	"moneybook/internal/notify"
	"moneybook/internal/services"
)

// env is the state shared by every subcommand: global flags, the terminal
// streams and how markdown reaches the screen.
type env struct {
	dataDir string
	backend string
	locale  string

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	// render turns markdown into terminal output.
	render func(md string) (string, error)
	// load returns the configuration before flags are applied.
	load func() *config.Config
}

func newEnv(in io.Reader, out, errOut io.Writer) *env {
	return &env{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		render: renderMarkdown,
		load:   config.Load,
	}
}

func (e *env) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.dataDir, "data", "", "data directory (default $DATA_DIR)")
	f.StringVar(&e.backend, "backend", "", "storage backend: memory, file or sqlite (default $DATA_BACKEND)")
	f.StringVar(&e.locale, "locale", "", "display language, e.g. km-KH or en (default $LOCALE)")
}

func (e *env) commands() []subcommands.Command {
	return []subcommands.Command{
		&addCmd{env: e},
		&listCmd{env: e},
		&summaryCmd{env: e},
		&deleteCmd{env: e},
	}
}

// config applies the global flags over the environment.
func (e *env) config() (*config.Config, error) {
	if err := cli.LoadEnvFile(); err != nil {
		return nil, err
	}
	cfg := e.load()
	if e.backend != "" {
		cfg.DataBackend = e.backend
	}
	if e.dataDir != "" {
		cfg.DataDir = e.dataDir
		cfg.SQLiteDBPath = filepath.Join(e.dataDir, "ledger.db")
	}
	if e.locale != "" {
		cfg.Locale = e.locale
	}
	// Toasts are printed by the terminal notifier; a broker is not needed.
	cfg.NotifyBackend = "log"
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open wires the ledger with notifications printed to the terminal.
func (e *env) open(ctx context.Context) (*cli.App, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentCLI,
		Output:    e.errOut,
	})
	return cli.Open(ctx, cfg, logger.Slog(), notify.Func(e.toast))
}

func (e *env) toast(_ context.Context, message string, severity notify.Severity) {
	mark := "•"
	switch severity {
	case notify.Success:
		mark = "✓"
	case notify.Error:
		mark = "✗"
	case notify.Warning:
		mark = "!"
	}
	fmt.Fprintf(e.errOut, "%s %s\n", mark, message)
}

// confirm asks on the terminal; y and yes are the only affirmative answers.
func (e *env) confirm() services.Confirmer {
	return services.ConfirmFunc(func(_ context.Context, message string) bool {
		fmt.Fprintf(e.out, "%s [y/N]: ", message)
		line, err := e.in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(e.out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

func (e *env) printMarkdown(md string) {
	out, err := e.render(md)
	if err != nil {
		fmt.Fprintln(e.out, md)
		return
	}
	fmt.Fprint(e.out, out)
}

func (e *env) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(e.errOut, err)
	return subcommands.ExitFailure
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
