// ABOUTME: Tests for the edi-chat command tree and chat loop
// ABOUTME: Runs commands against an httptest endpoint with in-memory or temp-dir storage

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/edi-chat/internal/config"
	"github.com/2389/edi-chat/internal/widget"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// endpoint is a scripted question endpoint that records what it was asked.
type endpoint struct {
	mu        sync.Mutex
	questions []string
	status    int
	body      map[string]any
}

func (e *endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	e.mu.Lock()
	e.questions = append(e.questions, req.Question)
	status, body := e.status, e.body
	e.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if body == nil {
		body = map[string]any{
			"answer":    "answer to " + req.Question,
			"followups": []string{"Tell me more", "Fees?"},
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (e *endpoint) Questions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.questions...)
}

func startEndpoint(t *testing.T, e *endpoint) string {
	t.Helper()
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv.URL
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvEndpointURL, "")
	t.Setenv(config.EnvTitle, "")
	t.Setenv(config.EnvAccent, "")
}

// writeConfig writes a YAML config pointing at url and returns its path.
func writeConfig(t *testing.T, url, driver string) string {
	t.Helper()
	dir := t.TempDir()
	content := "widget:\n" +
		"  endpoint_url: \"" + url + "\"\n" +
		"  suggestions:\n" +
		"    - \"What are the admission requirements?\"\n" +
		"storage:\n" +
		"  driver: \"" + driver + "\"\n" +
		"  path: \"" + filepath.Join(dir, "widget.db") + "\"\n"
	path := filepath.Join(dir, "widget.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func TestRunChat_Conversation(t *testing.T) {
	clearEnv(t)
	e := &endpoint{}
	cfgPath := writeConfig(t, startEndpoint(t, e), "memory")

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	w, err := widget.New(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer w.Close()

	input := strings.Join([]string{
		"What is EDI?",
		"/f 2",
		"/copy",
		"/s 1",
		"/f 9",
		"/session",
		"/bogus",
		"",
		"/quit",
		"never asked",
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runChat(t.Context(), strings.NewReader(input), &out, w, false))

	assert.Equal(t, []string{
		"What is EDI?",
		"Fees?",
		"What are the admission requirements?",
	}, e.Questions())

	text := out.String()
	assert.Contains(t, text, config.DefaultTitle)
	assert.Contains(t, text, "edi › "+config.DefaultGreeting)
	assert.Contains(t, text, "[s1] What are the admission requirements?")
	assert.Contains(t, text, "you › What is EDI?\n")
	assert.Contains(t, text, "edi › answer to What is EDI?\n")
	assert.Contains(t, text, "[f2] Fees?\n")
	assert.Contains(t, text, "you › Fees?\n")
	assert.Contains(t, text, "\nanswer to Fees?\n", "/copy prints the raw answer")
	assert.Contains(t, text, "Usage: /f N where N is 1-2")
	assert.Contains(t, text, "session: "+w.SessionID()+" (memory only)")
	assert.Contains(t, text, "Unknown command /bogus")
	assert.NotContains(t, text, "never asked")
	assert.NotContains(t, text, "Typing…", "non-interactive output has no placeholder")
}

func TestRunChat_FollowupWithoutAnswer(t *testing.T) {
	clearEnv(t)
	e := &endpoint{}
	cfg, err := config.Load(writeConfig(t, startEndpoint(t, e), "memory"))
	require.NoError(t, err)
	w, err := widget.New(t.Context(), cfg, nil)
	require.NoError(t, err)
	defer w.Close()

	var out bytes.Buffer
	require.NoError(t, runChat(t.Context(), strings.NewReader("/f 1\n/copy\n/help\n"), &out, w, false))

	assert.Empty(t, e.Questions())
	assert.Contains(t, out.String(), "No follow-up suggestions to pick from.")
	assert.Contains(t, out.String(), "No answer to copy yet.")
	assert.Contains(t, out.String(), "Commands:")
}

func TestAsk_Raw(t *testing.T) {
	clearEnv(t)
	e := &endpoint{}
	cfgPath := writeConfig(t, startEndpoint(t, e), "memory")

	stdout, _, err := execute(t, "ask", "--config", cfgPath, "--raw", "What", "is", "EDI?")
	require.NoError(t, err)

	assert.Equal(t, "answer to What is EDI?\n", stdout)
	assert.Equal(t, []string{"What is EDI?"}, e.Questions())
}

func TestAsk_Painted(t *testing.T) {
	clearEnv(t)
	e := &endpoint{}
	cfgPath := writeConfig(t, startEndpoint(t, e), "memory")

	stdout, _, err := execute(t, "ask", "--config", cfgPath, "Fees?")
	require.NoError(t, err)

	assert.Contains(t, stdout, "you › Fees?\n")
	assert.Contains(t, stdout, "edi › answer to Fees?\n")
	assert.Contains(t, stdout, "[f1] Tell me more\n")
}

func TestAsk_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    map[string]any
		wantErr string
	}{
		{
			name:    "server error message",
			status:  http.StatusInternalServerError,
			body:    map[string]any{"error": "bad request"},
			wantErr: "no answer: bad request",
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			body:    map[string]any{},
			wantErr: "~1 minute",
		},
		{
			name:    "missing answer field",
			status:  http.StatusOK,
			body:    map[string]any{},
			wantErr: "no answer field found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			e := &endpoint{status: tt.status, body: tt.body}
			cfgPath := writeConfig(t, startEndpoint(t, e), "memory")

			_, _, err := execute(t, "ask", "--config", cfgPath, "question")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAsk_EndpointFlagOverridesConfig(t *testing.T) {
	clearEnv(t)
	used := &endpoint{}
	cfgPath := writeConfig(t, "http://127.0.0.1:1/unused", "memory")

	stdout, _, err := execute(t, "ask", "--config", cfgPath, "--endpoint", startEndpoint(t, used), "--raw", "hi")
	require.NoError(t, err)

	assert.Equal(t, "answer to hi\n", stdout)
	assert.Equal(t, []string{"hi"}, used.Questions())
}

func TestAsk_RequiresQuestion(t *testing.T) {
	_, _, err := execute(t, "ask")
	assert.Error(t, err)

	clearEnv(t)
	cfgPath := writeConfig(t, "http://127.0.0.1:1/ask", "memory")
	_, _, err = execute(t, "ask", "--config", cfgPath, "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question is empty")
}

func TestSession_PersistsAndClears(t *testing.T) {
	clearEnv(t)
	cfgPath := writeConfig(t, "http://127.0.0.1:1/ask", "sqlite")

	first, stderr, err := execute(t, "session", "--config", cfgPath)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	first = strings.TrimSpace(first)
	assert.Len(t, first, 36)

	again, _, err := execute(t, "session", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, first, strings.TrimSpace(again))

	out, _, err := execute(t, "session", "clear", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "session cleared\n", out)

	fresh, _, err := execute(t, "session", "--config", cfgPath)
	require.NoError(t, err)
	assert.NotEqual(t, first, strings.TrimSpace(fresh))
}

func TestSession_MemoryDriverWarns(t *testing.T) {
	clearEnv(t)
	cfgPath := writeConfig(t, "http://127.0.0.1:1/ask", "memory")

	_, stderr, err := execute(t, "session", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "not persisted")
}

func TestLoad_MissingExplicitConfig(t *testing.T) {
	_, _, err := execute(t, "session", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}

func TestLoad_InvalidLogLevelFlag(t *testing.T) {
	clearEnv(t)
	cfgPath := writeConfig(t, "http://127.0.0.1:1/ask", "memory")

	_, _, err := execute(t, "session", "--config", cfgPath, "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "edi-chat "+widget.Version+"\n", stdout)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	logger.Debug("hidden")
	logger.Info("shown", "key", "value")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "value", record["key"])

	buf.Reset()
	logger = setupLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	logger.With("component", "test").Info("hidden")
	logger.With("component", "test").Warn("careful", "n", 1)
	assert.Contains(t, buf.String(), "WRN careful component=test n=1\n")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestChipNumber(t *testing.T) {
	tests := []struct {
		arg    string
		n      int
		want   int
		wantOK bool
	}{
		{arg: "1", n: 3, want: 1, wantOK: true},
		{arg: "3", n: 3, want: 3, wantOK: true},
		{arg: "0", n: 3},
		{arg: "4", n: 3},
		{arg: "x", n: 3},
		{arg: "", n: 3},
	}
	for _, tt := range tests {
		got, ok := chipNumber(tt.arg, tt.n)
		assert.Equal(t, tt.wantOK, ok, "arg %q", tt.arg)
		assert.Equal(t, tt.want, got, "arg %q", tt.arg)
	}
}
