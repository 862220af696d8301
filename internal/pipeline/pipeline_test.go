package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/command"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/credentials"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/executor"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/homeassistant"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/intent"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type eventLog struct {
	mu     sync.Mutex
	events []audit.Event
}

func (l *eventLog) Record(_ context.Context, e audit.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) find(eventType string) (audit.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.Type == eventType {
			return e, true
		}
	}
	return audit.Event{}, false
}

// fakeHA is a Home Assistant stand-in that records every request.
type fakeHA struct {
	mu       sync.Mutex
	requests []string
	bodies   []map[string]any
	status   int
}

func (f *fakeHA) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	var body map[string]any
	if b, _ := io.ReadAll(r.Body); len(b) > 0 {
		_ = json.Unmarshal(b, &body)
	}
	f.bodies = append(f.bodies, body)

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte("upstream exploded"))
		return
	}
	if r.URL.Path == "/api/states" {
		_, _ = w.Write([]byte(`[{"entity_id": "light.kitchen", "state": "on"}]`))
		return
	}
	_, _ = w.Write([]byte(`[]`))
}

func (f *fakeHA) setStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = code
}

func (f *fakeHA) body(i int) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[i]
}

func (f *fakeHA) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

type harness struct {
	pipeline *Pipeline
	ha       *fakeHA
	provider *credentials.Provider
	events   *eventLog
}

func newHarness(t *testing.T, ceiling int) *harness {
	t.Helper()

	ha := &fakeHA{}
	srv := httptest.NewServer(ha)
	t.Cleanup(srv.Close)

	events := &eventLog{}
	store := credentials.StoreFunc(func(context.Context, string) ([]byte, error) {
		return []byte(`{"url": "` + srv.URL + `", "token": "tok"}`), nil
	})
	provider := credentials.NewProvider(store, "jarvis/homeassistant", credentials.WithRecorder(events))

	ex := executor.New(homeassistant.New(time.Second), executor.Options{Recorder: events})
	p := New(command.NewValidator(ceiling, events), ex, provider, Options{
		Recorder: events,
		Now:      func() time.Time { return fixedNow },
	})

	return &harness{pipeline: p, ha: ha, provider: provider, events: events}
}

func TestProcessText_EndToEnd(t *testing.T) {
	h := newHarness(t, 0)

	resp, err := h.pipeline.ProcessText(context.Background(), "turn on the living room lights", RequestInfo{SourceIP: "10.0.0.5"})
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}

	if !resp.Success {
		t.Fatalf("ProcessText() failed: %s (%s)", resp.Error, resp.ErrorCode)
	}
	if resp.Intent != string(intent.TurnOnLight) {
		t.Errorf("Intent = %q, want turn_on_light", resp.Intent)
	}
	if resp.Parameters[intent.ParamRoom] != "living room" {
		t.Errorf("room = %v, want living room", resp.Parameters[intent.ParamRoom])
	}
	if resp.Target != "light.living_room_lights" {
		t.Errorf("Target = %q", resp.Target)
	}
	if resp.SessionID == "" || !resp.Timestamp.Equal(fixedNow) {
		t.Errorf("SessionID = %q, Timestamp = %v", resp.SessionID, resp.Timestamp)
	}

	if diff := cmp.Diff([]string{"POST /api/services/light/turn_on"}, h.ha.seen()); diff != "" {
		t.Errorf("upstream requests mismatch (-want +got):\n%s", diff)
	}
	if got := h.ha.body(0)["entity_id"]; got != "light.living_room_lights" {
		t.Errorf("entity_id = %v", got)
	}

	want := []string{
		audit.EventCommandReceived,
		audit.EventIntentParsed,
		audit.EventConfigRetrieved,
		audit.EventCommandExecuting,
		audit.EventCommandSuccess,
	}
	if diff := cmp.Diff(want, h.events.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessText_UnknownShortCircuits(t *testing.T) {
	h := newHarness(t, 0)

	resp, err := h.pipeline.ProcessText(context.Background(), "make me a sandwich", RequestInfo{})
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}

	if resp.Success {
		t.Fatal("unknown command succeeded")
	}
	if resp.ErrorCode != CodeUnknownCommand {
		t.Errorf("ErrorCode = %q, want %q", resp.ErrorCode, CodeUnknownCommand)
	}
	if resp.Intent != string(intent.Unknown) {
		t.Errorf("Intent = %q", resp.Intent)
	}
	if resp.Parameters[intent.ParamOriginalCommand] != "make me a sandwich" {
		t.Errorf("original_command = %v", resp.Parameters[intent.ParamOriginalCommand])
	}
	if len(h.ha.seen()) != 0 {
		t.Errorf("upstream contacted: %v", h.ha.seen())
	}
	if h.provider.Fetches() != 0 {
		t.Errorf("credentials fetched %d times, want 0", h.provider.Fetches())
	}
	if _, ok := h.events.find(audit.EventUnknownCommand); !ok {
		t.Error("no UNKNOWN_COMMAND event")
	}
}

func TestProcessText_Screening(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantCode  Code
		wantEvent string
		wantSev   audit.Severity
	}{
		{
			name:      "shell injection",
			text:      "turn on the lights; rm -rf /",
			wantCode:  CodeInvalidInput,
			wantEvent: audit.EventSuspiciousInput,
			wantSev:   audit.SeverityHigh,
		},
		{
			name:      "sql upper case",
			text:      "DROP TABLE users",
			wantCode:  CodeInvalidInput,
			wantEvent: audit.EventSuspiciousInput,
			wantSev:   audit.SeverityHigh,
		},
		{
			name:      "too long",
			text:      "turn on the lights " + strings.Repeat("please ", 800),
			wantCode:  CodeInvalidInput,
			wantEvent: audit.EventInputTooLong,
			wantSev:   audit.SeverityMedium,
		},
		{
			name:     "blank",
			text:     "   ",
			wantCode: CodeMissingBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 0)

			resp, err := h.pipeline.ProcessText(context.Background(), tt.text, RequestInfo{})
			if err != nil {
				t.Fatalf("ProcessText() error = %v", err)
			}
			if resp.Success || resp.ErrorCode != tt.wantCode {
				t.Errorf("Response = %+v, want code %s", resp, tt.wantCode)
			}
			if len(h.ha.seen()) != 0 {
				t.Errorf("upstream contacted: %v", h.ha.seen())
			}
			if tt.wantEvent == "" {
				return
			}
			e, ok := h.events.find(tt.wantEvent)
			if !ok {
				t.Fatalf("no %s event in %v", tt.wantEvent, h.events.types())
			}
			if e.Severity != tt.wantSev {
				t.Errorf("severity = %s, want %s", e.Severity, tt.wantSev)
			}
			if _, ok := h.events.find(audit.EventCommandRejected); !ok {
				t.Error("no COMMAND_REJECTED event")
			}
		})
	}
}

func TestScreen_CountsRunes(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantTooLong bool
	}{
		{"multi-byte under limit", "turn on the " + strings.Repeat("温", 2000) + " lights", false},
		{"multi-byte at limit", strings.Repeat("é", 5000), false},
		{"multi-byte over limit", strings.Repeat("é", 5001), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := screen(tt.text, DefaultMaxInputLength); got.tooLong != tt.wantTooLong {
				t.Errorf("screen() tooLong = %v, want %v", got.tooLong, tt.wantTooLong)
			}
		})
	}
}

func TestProcessText_MultiByteInputPassesScreening(t *testing.T) {
	h := newHarness(t, 0)

	resp, err := h.pipeline.ProcessText(context.Background(), "turn on the "+strings.Repeat("温", 2000)+" lights", RequestInfo{})
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if resp.ErrorCode == CodeInvalidInput {
		t.Fatalf("multi-byte input rejected: %+v", resp)
	}
	if _, ok := h.events.find(audit.EventInputTooLong); ok {
		t.Error("unexpected INPUT_TOO_LONG event")
	}
	e, ok := h.events.find(audit.EventCommandReceived)
	if !ok {
		t.Fatal("no COMMAND_RECEIVED event")
	}
	if got := e.Context["command_length"]; got != 2019 {
		t.Errorf("command_length = %v, want 2019", got)
	}
}

func TestProcessText_TooLongReportsRunes(t *testing.T) {
	h := newHarness(t, 0)

	resp, err := h.pipeline.ProcessText(context.Background(), strings.Repeat("温", DefaultMaxInputLength+1), RequestInfo{})
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if resp.ErrorCode != CodeInvalidInput {
		t.Fatalf("ErrorCode = %q, want %q", resp.ErrorCode, CodeInvalidInput)
	}
	e, ok := h.events.find(audit.EventInputTooLong)
	if !ok {
		t.Fatal("no INPUT_TOO_LONG event")
	}
	if got := e.Context["input_length"]; got != DefaultMaxInputLength+1 {
		t.Errorf("input_length = %v, want %d", got, DefaultMaxInputLength+1)
	}
}

func TestProcessText_StatusQuery(t *testing.T) {
	h := newHarness(t, 0)

	resp, err := h.pipeline.ProcessText(context.Background(), "check the status of the lights", RequestInfo{})
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if !resp.Success {
		t.Fatalf("ProcessText() failed: %s", resp.Error)
	}
	if diff := cmp.Diff([]string{"GET /api/states"}, h.ha.seen()); diff != "" {
		t.Errorf("upstream requests mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessCommand(t *testing.T) {
	tests := []struct {
		name         string
		cmd          command.Command
		upstream     int
		wantSuccess  bool
		wantCode     Code
		wantUpstream []string
	}{
		{
			name:         "valid toggle",
			cmd:          command.Command{Action: "toggle", Target: "switch.fan"},
			wantSuccess:  true,
			wantUpstream: []string{"POST /api/services/switch/toggle"},
		},
		{
			name:     "missing target",
			cmd:      command.Command{Action: "turn_on"},
			wantCode: CodeInvalidCommand,
		},
		{
			name:     "disallowed action",
			cmd:      command.Command{Action: "delete_database", Target: "x"},
			wantCode: CodeInvalidCommand,
		},
		{
			name:     "unsupported type",
			cmd:      command.Command{Action: "turn_on", Target: "light.x", Type: "zigbee"},
			wantCode: CodeUnsupportedType,
		},
		{
			name:         "upstream failure",
			cmd:          command.Command{Action: "turn_on", Target: "light.x"},
			upstream:     http.StatusInternalServerError,
			wantCode:     CodeUpstreamError,
			wantUpstream: []string{"POST /api/services/light/turn_on"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 0)
			h.ha.setStatus(tt.upstream)

			resp, err := h.pipeline.ProcessCommand(context.Background(), tt.cmd, RequestInfo{})
			if err != nil {
				t.Fatalf("ProcessCommand() error = %v", err)
			}
			if resp.Success != tt.wantSuccess || resp.ErrorCode != tt.wantCode {
				t.Errorf("Response = {Success:%v ErrorCode:%q Error:%q}, want {%v %q}",
					resp.Success, resp.ErrorCode, resp.Error, tt.wantSuccess, tt.wantCode)
			}
			if diff := cmp.Diff(tt.wantUpstream, h.ha.seen()); diff != "" {
				t.Errorf("upstream requests mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProcessCommand_UpstreamDetails(t *testing.T) {
	h := newHarness(t, 0)
	h.ha.setStatus(http.StatusBadGateway)

	resp, err := h.pipeline.ProcessCommand(context.Background(),
		command.Command{Action: "lock", Target: "lock.front_door"}, RequestInfo{})
	if err != nil {
		t.Fatalf("ProcessCommand() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway || resp.Details != "upstream exploded" {
		t.Errorf("Response = %+v", resp)
	}
	if e, ok := h.events.find(audit.EventCommandFailed); !ok || e.Severity != audit.SeverityHigh {
		t.Errorf("HA_COMMAND_FAILED event = %+v, %v", e, ok)
	}
}

func TestProcess_ConfigurationError(t *testing.T) {
	events := &eventLog{}
	store := credentials.StoreFunc(func(context.Context, string) ([]byte, error) {
		return []byte(`{"url": "http://ha:8123"}`), nil
	})
	provider := credentials.NewProvider(store, "id", credentials.WithRecorder(events))
	ex := executor.New(homeassistant.New(time.Second), executor.Options{})
	p := New(command.NewValidator(0, nil), ex, provider, Options{Recorder: events})

	resp, err := p.ProcessCommand(context.Background(), command.Command{Action: "turn_on", Target: "light.x"}, RequestInfo{})
	if !errors.Is(err, credentials.ErrConfiguration) || resp != nil {
		t.Errorf("ProcessCommand() = %v, %v; want nil, ErrConfiguration", resp, err)
	}

	resp, err = p.ProcessText(context.Background(), "turn off the kitchen lights", RequestInfo{})
	if !errors.Is(err, credentials.ErrConfiguration) || resp != nil {
		t.Errorf("ProcessText() = %v, %v; want nil, ErrConfiguration", resp, err)
	}

	if e, ok := events.find(audit.EventConfigError); !ok || e.Severity != audit.SeverityHigh {
		t.Errorf("HA_CONFIG_ERROR event = %+v, %v", e, ok)
	}
}

func TestProcessBatch_SharesSession(t *testing.T) {
	h := newHarness(t, 3)

	cmd := command.Command{Action: "turn_on", Target: "light.kitchen"}
	batch, err := h.pipeline.ProcessBatch(context.Background(), []command.Command{cmd, cmd, cmd, cmd, cmd}, RequestInfo{})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	if batch.Success {
		t.Error("batch Success = true, want false")
	}
	if batch.Succeeded != 3 || batch.Failed != 2 {
		t.Errorf("Succeeded/Failed = %d/%d, want 3/2", batch.Succeeded, batch.Failed)
	}
	for i, r := range batch.Results {
		if r.SessionID != batch.SessionID {
			t.Errorf("result %d session = %q, want %q", i, r.SessionID, batch.SessionID)
		}
		wantOK := i < 3
		if r.Success != wantOK {
			t.Errorf("result %d Success = %v, want %v", i, r.Success, wantOK)
		}
	}
	if got := len(h.ha.seen()); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
	if e, ok := h.events.find(audit.EventRateLimitExceeded); !ok || e.SessionID != batch.SessionID {
		t.Errorf("RATE_LIMIT_EXCEEDED event = %+v, %v", e, ok)
	}
}

func TestProcessBatch_TooLarge(t *testing.T) {
	h := newHarness(t, 0)
	h.pipeline.maxBatchSize = 2

	cmds := make([]command.Command, 3)
	_, err := h.pipeline.ProcessBatch(context.Background(), cmds, RequestInfo{})
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("ProcessBatch() error = %v, want ErrBatchTooLarge", err)
	}
	if len(h.ha.seen()) != 0 {
		t.Errorf("upstream contacted: %v", h.ha.seen())
	}
}

func TestResponse_JSONEnvelope(t *testing.T) {
	resp := &Response{
		Result:    executor.Result{Success: false, Error: "Command validation failed"},
		ErrorCode: CodeInvalidCommand,
		SessionID: "s-1",
		Timestamp: fixedNow,
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := map[string]any{
		"success":    false,
		"error":      "Command validation failed",
		"error_code": "INVALID_COMMAND",
		"session_id": "s-1",
		"timestamp":  "2026-03-01T12:00:00Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}
}
