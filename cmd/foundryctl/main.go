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
)

// ioStreams wires stdout/stderr for commands and becomes injectable in tests.
type ioStreams struct {
	out io.Writer
	err io.Writer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	streams := ioStreams{out: os.Stdout, err: os.Stderr}
	if err := runCLI(ctx, os.Args[1:], streams); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(streams.err, err)
		}
		os.Exit(1)
	}
}

func runCLI(ctx context.Context, argv []string, streams ioStreams) error {
	global := flag.NewFlagSet("foundryctl", flag.ContinueOnError)
	global.SetOutput(streams.err)
	configPath := global.String("config", "", "Path to YAML settings file (environment variables take precedence).")
	global.Usage = func() {
		fmt.Fprintln(streams.err, "foundryctl - agent platform control surface")
		fmt.Fprintln(streams.err, "\nUsage:")
		fmt.Fprintln(streams.err, "  foundryctl [global flags] <command> [args]")
		fmt.Fprintln(streams.err, "\nCommands:")
		fmt.Fprintln(streams.err, "  run     Create an agent, stream one run, and print the final answer")
		fmt.Fprintln(streams.err, "  replay  Render a recorded run transcript")
		fmt.Fprintln(streams.err, "\nGlobal Flags:")
		global.PrintDefaults()
		fmt.Fprintln(streams.err, "\nRun 'foundryctl <command> -h' for command-specific usage.")
	}
	if err := global.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	args := global.Args()
	if len(args) == 0 {
		global.Usage()
		return fmt.Errorf("missing command")
	}
	sub := args[0]
	rest := args[1:]
	switch sub {
	case "run":
		return runCommand(ctx, rest, *configPath, streams)
	case "replay":
		return replayCommand(ctx, rest, streams)
	case "help", "-h", "--help":
		global.Usage()
		return nil
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", sub)
	}
}
