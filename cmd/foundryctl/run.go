package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cexll/foundrykit/pkg/config"
	"github.com/cexll/foundrykit/pkg/foundry"
	"github.com/cexll/foundrykit/pkg/stream"
	"github.com/cexll/foundrykit/pkg/telemetry"
	"github.com/cexll/foundrykit/pkg/transcript"
)

// clientFactory is replaced in tests.
var clientFactory = func(endpoint, apiKey string) (*foundry.Client, error) {
	// Streaming runs can exceed any sane response timeout; bound dials only.
	return foundry.NewClient(endpoint, apiKey, foundry.WithHTTPClient(&http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			ResponseHeaderTimeout: 60 * time.Second,
		},
	}))
}

func runCommand(ctx context.Context, argv []string, cfgPath string, streams ioStreams) error {
	set := flag.NewFlagSet("run", flag.ContinueOnError)
	set.SetOutput(streams.err)
	var (
		nameFlag         = set.String("name", "foundryctl-agent", "Agent name to register on the platform.")
		instructionsFlag = set.String("instructions", "You are a helpful agent.", "Agent instructions.")
		modelFlag        = set.String("model", "", "Override the model deployment from config.")
		researchFlag     = set.Bool("research", false, "Attach the hosted deep-research tool.")
		transcriptFlag   = set.String("transcript", "", "Record the run stream to this JSONL file.")
		keepFlag         = set.Bool("keep", false, "Keep the agent after the run instead of deleting it.")
		otlpFlag         = set.String("otlp", "", "OTLP trace collector endpoint (host:port). Disabled when empty.")
	)
	set.Usage = func() {
		fmt.Fprintln(streams.err, "Usage: foundryctl run [flags] \"prompt\"")
		fmt.Fprintln(streams.err, "\nFlags:")
		set.PrintDefaults()
		fmt.Fprintln(streams.err, "\nExamples:")
		fmt.Fprintln(streams.err, "  foundryctl run \"summarize the quarterly numbers\"")
		fmt.Fprintln(streams.err, "  foundryctl run -research -transcript run.jsonl \"state of quantum hardware in 2026\"")
	}
	if err := set.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	prompt := strings.TrimSpace(strings.Join(set.Args(), " "))
	if prompt == "" {
		return errors.New("run requires a prompt")
	}

	settings, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	required := []string{config.EnvEndpoint, config.EnvAPIKey, config.EnvModelDeployment}
	if *researchFlag {
		required = append(required, config.EnvDeepResearchDeployment, config.EnvGroundingConnection)
	}
	if err := settings.Require(required...); err != nil {
		return err
	}

	if *otlpFlag != "" {
		manager, err := telemetry.NewManager(ctx, telemetry.Config{
			ServiceName: "foundryctl",
			Endpoint:    *otlpFlag,
			Insecure:    true,
		})
		if err != nil {
			return err
		}
		telemetry.SetDefault(manager)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			manager.Shutdown(shutdownCtx)
		}()
	}

	client, err := clientFactory(settings.Endpoint, settings.APIKey)
	if err != nil {
		return err
	}
	model := *modelFlag
	if model == "" {
		model = settings.ModelDeployment
	}

	params := foundry.AgentParams{
		Model:        model,
		Name:         *nameFlag,
		Instructions: *instructionsFlag,
	}
	if *researchFlag {
		conn, err := client.GetConnection(ctx, settings.GroundingConnection)
		if err != nil {
			return fmt.Errorf("resolve grounding connection: %w", err)
		}
		params.Tools = append(params.Tools, foundry.DeepResearchTool(conn.ID, settings.DeepResearchDeployment))
	}

	agent, err := client.CreateAgent(ctx, params)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	if !*keepFlag {
		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := client.DeleteAgent(cleanupCtx, agent.ID); err != nil {
				fmt.Fprintf(streams.err, "delete agent %s: %v\n", agent.ID, err)
			}
		}()
	}
	fmt.Fprintf(streams.err, "agent %s ready (model %s)\n", agent.ID, agent.Model)

	thread, err := client.CreateThread(ctx)
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}
	if _, err := client.CreateMessage(ctx, thread.ID, "user", prompt); err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	var handler stream.Handler = stream.NewRenderer(streams.out)
	if *transcriptFlag != "" {
		recorder, err := transcript.NewRecorder(*transcriptFlag, handler)
		if err != nil {
			return err
		}
		defer func() {
			if err := recorder.Close(); err != nil {
				fmt.Fprintf(streams.err, "close transcript: %v\n", err)
			}
		}()
		handler = recorder
	}

	if err := client.StreamRun(ctx, thread.ID, agent.ID, handler); err != nil {
		return fmt.Errorf("stream run: %w", err)
	}

	final, err := client.GetLastMessageByRole(ctx, thread.ID, "assistant")
	if err != nil {
		if errors.Is(err, foundry.ErrNoMessage) {
			fmt.Fprintln(streams.err, "run produced no assistant message")
			return nil
		}
		return fmt.Errorf("fetch final message: %w", err)
	}
	writeFinalMessage(streams.out, final)
	return nil
}

func writeFinalMessage(out io.Writer, msg foundry.Message) {
	fmt.Fprintln(out, "\n--- final message ---")
	fmt.Fprintln(out, msg.Text())
	if citations := msg.URLCitations(); len(citations) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, c := range citations {
			if c.Title != "" {
				fmt.Fprintf(out, "  - %s (%s)\n", c.Title, c.URL)
			} else {
				fmt.Fprintf(out, "  - %s\n", c.URL)
			}
		}
	}
}
