package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cexll/foundrykit/pkg/stream"
	"github.com/cexll/foundrykit/pkg/transcript"
)

func testStreams() (ioStreams, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return ioStreams{out: out, err: errOut}, out, errOut
}

func TestRunCLIUnknownCommand(t *testing.T) {
	streams, _, errOut := testStreams()
	err := runCLI(context.Background(), []string{"bogus"}, streams)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bogus")
	require.Contains(t, errOut.String(), "Usage:")
}

func TestRunCLIMissingCommand(t *testing.T) {
	streams, _, _ := testStreams()
	err := runCLI(context.Background(), nil, streams)
	require.Error(t, err)
}

func TestRunCLIHelp(t *testing.T) {
	streams, _, errOut := testStreams()
	require.NoError(t, runCLI(context.Background(), []string{"help"}, streams))
	require.Contains(t, errOut.String(), "replay")
}

func TestRunCommandRequiresPrompt(t *testing.T) {
	streams, _, _ := testStreams()
	err := runCommand(context.Background(), nil, "", streams)
	require.Error(t, err)
	require.Contains(t, err.Error(), "prompt")
}

func TestRunCommandReportsMissingSettings(t *testing.T) {
	t.Setenv("FOUNDRY_ENDPOINT", "")
	t.Setenv("FOUNDRY_API_KEY", "")
	t.Setenv("FOUNDRY_MODEL_DEPLOYMENT", "")
	streams, _, _ := testStreams()
	err := runCommand(context.Background(), []string{"hello"}, "", streams)
	require.Error(t, err)
	require.Contains(t, err.Error(), "FOUNDRY_ENDPOINT")
	require.Contains(t, err.Error(), "FOUNDRY_API_KEY")
	require.Contains(t, err.Error(), "FOUNDRY_MODEL_DEPLOYMENT")
}

// fakePlatform serves the handful of routes one run touches.
func fakePlatform(t *testing.T) (*httptest.Server, *struct{ agentDeleted bool }) {
	t.Helper()
	state := &struct{ agentDeleted bool }{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /assistants", func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Model string `json:"model"`
			Name  string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		json.NewEncoder(w).Encode(map[string]string{"id": "asst_1", "name": params.Name, "model": params.Model})
	})
	mux.HandleFunc("DELETE /assistants/asst_1", func(w http.ResponseWriter, r *http.Request) {
		state.agentDeleted = true
	})
	mux.HandleFunc("POST /threads", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "thread_1"})
	})
	mux.HandleFunc("POST /threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"msg_1","role":"user","content":[{"type":"text","text":{"value":"q"}}]}`))
	})
	mux.HandleFunc("POST /threads/thread_1/runs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: thread.message.delta\ndata: {\"delta\":{\"content\":[{\"type\":\"text\",\"text\":{\"value\":\"answer text\"}}]}}\n\n"))
		w.Write([]byte("event: done\ndata: [DONE]\n\n"))
	})
	mux.HandleFunc("GET /threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"msg_2","role":"assistant","content":[
			{"type":"text","text":{"value":"answer text","annotations":[
				{"type":"url_citation","url_citation":{"url":"https://example.test/src","title":"Src"}}
			]}}
		]}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, state
}

func TestRunCommandEndToEnd(t *testing.T) {
	srv, state := fakePlatform(t)
	t.Setenv("FOUNDRY_ENDPOINT", srv.URL)
	t.Setenv("FOUNDRY_API_KEY", "test-key")
	t.Setenv("FOUNDRY_MODEL_DEPLOYMENT", "gpt-4o")

	transcriptPath := filepath.Join(t.TempDir(), "run.jsonl")
	streams, out, errOut := testStreams()
	err := runCommand(context.Background(),
		[]string{"-transcript", transcriptPath, "what", "is", "up"}, "", streams)
	require.NoError(t, err, errOut.String())

	require.Contains(t, out.String(), "answer text")
	require.Contains(t, out.String(), "agent run complete")
	require.Contains(t, out.String(), "--- final message ---")
	require.Contains(t, out.String(), "Src (https://example.test/src)")
	require.True(t, state.agentDeleted)

	// the transcript replays the same stream
	var replayOut bytes.Buffer
	require.NoError(t, transcript.Replay(context.Background(), transcriptPath, stream.NewRenderer(&replayOut)))
	require.Contains(t, replayOut.String(), "answer text")
}

func TestReplayCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	rec, err := transcript.NewRecorder(path, stream.NewRenderer(&bytes.Buffer{}))
	require.NoError(t, err)
	rec.OnTextDelta("recorded output")
	rec.OnDone()
	require.NoError(t, rec.Close())

	streams, out, _ := testStreams()
	require.NoError(t, runCLI(context.Background(), []string{"replay", path}, streams))
	require.Contains(t, out.String(), "recorded output")
}

func TestReplayCommandTruncatedTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")
	rec, err := transcript.NewRecorder(path, stream.NewRenderer(&bytes.Buffer{}))
	require.NoError(t, err)
	rec.OnTextDelta("partial")
	require.NoError(t, rec.Close())

	streams, out, errOut := testStreams()
	require.NoError(t, runCLI(context.Background(), []string{"replay", path}, streams))
	require.Contains(t, out.String(), "partial")
	require.Contains(t, errOut.String(), "ends before the run finished")
}

func TestReplayCommandArgCount(t *testing.T) {
	streams, _, _ := testStreams()
	err := runCLI(context.Background(), []string{"replay"}, streams)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "transcript"))
}
