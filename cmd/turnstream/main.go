package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strongdm/turnstream/internal/config"
	"github.com/strongdm/turnstream/internal/dialect"
	"github.com/strongdm/turnstream/internal/version"
)

// app is the state shared by subcommands once PersistentPreRunE has run.
type app struct {
	settings *config.Settings
	log      zerolog.Logger
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer

	envFile     string
	logLevel    string
	dialectName string
	dialectDir  string
	dialectFile string
}

func signalCancelContext() (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(context.Background())
	sigCh := make(chan os.Signal, 1)
	stopCh := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			cancel(fmt.Errorf("stopped by signal %s", sig.String()))
		case <-stopCh:
		}
	}()
	cleanup := func() {
		signal.Stop(sigCh)
		close(stopCh)
		cancel(nil)
	}
	return ctx, cleanup
}

func main() {
	ctx, cleanup := signalCancelContext()
	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "turnstream",
		Short:         "Decode streamed chat completions into content, reasoning and tool calls",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("log-level") {
				s.LogLevel = a.logLevel
			}
			if flags.Changed("dialect") {
				s.Dialect = a.dialectName
			}
			if flags.Changed("dialect-dir") {
				s.DialectDir = a.dialectDir
			}
			a.settings = s
			a.log = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr}).
				Level(s.Level()).
				With().
				Timestamp().
				Logger()
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading TURNSTREAM_* variables")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&a.dialectName, "dialect", "openai", "dialect name")
	pf.StringVar(&a.dialectDir, "dialect-dir", "dialects", "directory searched for dialect files")
	pf.StringVar(&a.dialectFile, "dialect-file", "", "load the dialect from this file instead of by name")

	root.AddCommand(a.replayCmd(), a.chatCmd(), a.dialectsCmd(), versionCmd(stdout))
	return root
}

func versionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skip settings validation so version always works.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "turnstream %s\n", version.Version)
		},
	}
}

func (a *app) registry() (*dialect.Registry, error) {
	reg := dialect.NewRegistry()
	loaded, err := reg.LoadDir(a.settings.DialectDir)
	if err != nil {
		return nil, err
	}
	if len(loaded) > 0 {
		a.log.Debug().Strs("files", loaded).Msg("dialect files loaded")
	}
	return reg, nil
}

// dialect resolves --dialect-file, else the configured dialect name.
func (a *app) dialect() (dialect.Config, error) {
	if a.dialectFile != "" {
		return dialect.LoadFile(a.dialectFile)
	}
	reg, err := a.registry()
	if err != nil {
		return dialect.Config{}, err
	}
	return reg.Lookup(a.settings.Dialect)
}
