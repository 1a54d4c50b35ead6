package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/cexll/foundrykit/pkg/stream"
	"github.com/cexll/foundrykit/pkg/transcript"
)

func replayCommand(ctx context.Context, argv []string, streams ioStreams) error {
	set := flag.NewFlagSet("replay", flag.ContinueOnError)
	set.SetOutput(streams.err)
	set.Usage = func() {
		fmt.Fprintln(streams.err, "Usage: foundryctl replay <transcript.jsonl>")
		fmt.Fprintln(streams.err, "\nRenders a transcript recorded with 'foundryctl run -transcript'.")
	}
	if err := set.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if set.NArg() != 1 {
		set.Usage()
		return errors.New("replay requires exactly one transcript path")
	}
	err := transcript.Replay(ctx, set.Arg(0), stream.NewRenderer(streams.out))
	if errors.Is(err, stream.ErrStreamAborted) {
		fmt.Fprintln(streams.err, "transcript ends before the run finished")
		return nil
	}
	return err
}
