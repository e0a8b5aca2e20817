package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/voxgest/voxgest/internal/chat"
	"github.com/voxgest/voxgest/internal/command"
	"github.com/voxgest/voxgest/internal/gesture"
	"github.com/voxgest/voxgest/internal/health"
	"github.com/voxgest/voxgest/internal/observe"
	"github.com/voxgest/voxgest/internal/turn"
	"github.com/voxgest/voxgest/internal/voice"
	audiomock "github.com/voxgest/voxgest/pkg/audio/mock"
	"github.com/voxgest/voxgest/pkg/provider/llm"
	llmmock "github.com/voxgest/voxgest/pkg/provider/llm/mock"
	sttmock "github.com/voxgest/voxgest/pkg/provider/stt/mock"
	classifymock "github.com/voxgest/voxgest/pkg/provider/classify/mock"
	"github.com/voxgest/voxgest/pkg/types"
	visionmock "github.com/voxgest/voxgest/pkg/vision/mock"
)

// testEnv bundles a fully wired Server with the mocks behind it.
type testEnv struct {
	srv   *Server
	ts    *httptest.Server
	coord *turn.Coordinator
	gen   *llmmock.Generator
}

// newTestEnv wires a Server over mock sources and providers. Sessions read
// from blocking mock devices, so capture loops idle until stopped.
func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	coord := turn.NewCoordinator(nil)

	vs := voice.NewSession(&audiomock.Source{}, &sttmock.Recognizer{Text: "hello"}, func(u types.Utterance) {
		coord.PushUtterance(u)
	})
	ga := gesture.NewAnalyzer(&visionmock.Source{}, &classifymock.Classifier{}, func(g types.ConfirmedGesture) {
		coord.PushGesture(g)
	})

	gen := &llmmock.Generator{Response: llm.Response{Content: "the answer", Model: "test-model"}}
	svc := chat.NewService(gen, nil, coord, chat.NewHistory(0), chat.Config{})

	cfg := Config{
		Voice:    vs,
		Gestures: ga,
		Coord:    coord,
		Chat:     svc,
		Metrics:  metrics,
		Health:   health.New(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := NewServer(ctx, cfg)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		if cfg.Voice != nil {
			cfg.Voice.Stop()
		}
		if cfg.Gestures != nil {
			cfg.Gestures.Stop()
		}
	})

	return &testEnv{srv: srv, ts: ts, coord: coord, gen: gen}
}

// doJSON performs a request and decodes the JSON response into out.
func doJSON(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestStatus_AllModalitiesWired(t *testing.T) {
	env := newTestEnv(t, nil)

	var res statusResponse
	code := doJSON(t, "GET", env.ts.URL+"/api/status", "", &res)
	if code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	if !res.Voice.Available || res.Voice.Listening {
		t.Errorf("voice = %+v, want available and not listening", res.Voice)
	}
	if !res.Gesture.Available || res.Gesture.CameraActive {
		t.Errorf("gesture = %+v, want available and camera inactive", res.Gesture)
	}
	if !res.Chat.Available {
		t.Error("chat should be available")
	}
	if res.TurnState != turn.StateCapturing {
		t.Errorf("turn_state = %q, want %q", res.TurnState, turn.StateCapturing)
	}
}

func TestStatus_NothingConfigured(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Voice = nil
		cfg.Gestures = nil
		cfg.Chat = nil
	})

	var res statusResponse
	doJSON(t, "GET", env.ts.URL+"/api/status", "", &res)
	if res.Voice.Available || res.Gesture.Available || res.Chat.Available {
		t.Errorf("response = %+v, want nothing available", res)
	}
}

func TestVoice_UnconfiguredReturns503(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.Voice = nil })

	for _, ep := range []struct{ method, path string }{
		{"POST", "/api/voice/start"},
		{"POST", "/api/voice/stop"},
		{"POST", "/api/voice/resume"},
		{"GET", "/api/voice/get-text"},
	} {
		if code := doJSON(t, ep.method, env.ts.URL+ep.path, "", nil); code != http.StatusServiceUnavailable {
			t.Errorf("%s %s = %d, want 503", ep.method, ep.path, code)
		}
	}
}

func TestVoice_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	var res map[string]string
	doJSON(t, "POST", env.ts.URL+"/api/voice/start", "", &res)
	if res["status"] != "started" {
		t.Fatalf("start status = %q, want started", res["status"])
	}

	doJSON(t, "POST", env.ts.URL+"/api/voice/start", "", &res)
	if res["status"] != "already_listening" {
		t.Fatalf("second start status = %q, want already_listening", res["status"])
	}

	var poll pollResponse
	doJSON(t, "GET", env.ts.URL+"/api/voice/get-text", "", &poll)
	if poll.Status != "no_text" {
		t.Fatalf("poll status = %q, want no_text", poll.Status)
	}

	env.coord.PushUtterance(types.Utterance{Text: "hello world"})
	doJSON(t, "GET", env.ts.URL+"/api/voice/get-text", "", &poll)
	if poll.Status != "text_available" || poll.Text != "hello world" {
		t.Fatalf("poll = %+v, want text_available 'hello world'", poll)
	}

	doJSON(t, "POST", env.ts.URL+"/api/voice/stop", "", &res)
	if res["status"] != "stopped" {
		t.Fatalf("stop status = %q, want stopped", res["status"])
	}

	doJSON(t, "GET", env.ts.URL+"/api/voice/get-text", "", &poll)
	if poll.Status != "stopped" {
		t.Fatalf("poll after stop = %q, want stopped", poll.Status)
	}
}

func TestVoice_ResumeRestartsListening(t *testing.T) {
	env := newTestEnv(t, nil)

	var res map[string]string
	doJSON(t, "POST", env.ts.URL+"/api/voice/resume", "", &res)
	if res["status"] != "started" {
		t.Fatalf("resume status = %q, want started", res["status"])
	}
	doJSON(t, "POST", env.ts.URL+"/api/voice/resume", "", &res)
	if res["status"] != "already_listening" {
		t.Fatalf("second resume status = %q, want already_listening", res["status"])
	}
}

func TestCamera_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	var res map[string]string
	doJSON(t, "POST", env.ts.URL+"/api/camera/start", "", &res)
	if res["status"] != "started" {
		t.Fatalf("start status = %q, want started", res["status"])
	}
	doJSON(t, "POST", env.ts.URL+"/api/camera/start", "", &res)
	if res["status"] != "already_active" {
		t.Fatalf("second start status = %q, want already_active", res["status"])
	}

	var poll pollResponse
	doJSON(t, "GET", env.ts.URL+"/api/gesture/get-text", "", &poll)
	if poll.Status != "no_text" {
		t.Fatalf("poll status = %q, want no_text", poll.Status)
	}

	env.coord.PushGesture(types.ConfirmedGesture{Type: types.GestureOpenPalm, Text: "Hello"})
	doJSON(t, "GET", env.ts.URL+"/api/gesture/get-text", "", &poll)
	if poll.Status != "text_available" || poll.Text != "Hello" {
		t.Fatalf("poll = %+v, want text_available 'Hello'", poll)
	}

	doJSON(t, "POST", env.ts.URL+"/api/camera/stop", "", &res)
	if res["status"] != "stopped" {
		t.Fatalf("stop status = %q, want stopped", res["status"])
	}

	doJSON(t, "GET", env.ts.URL+"/api/gesture/get-text", "", &poll)
	if poll.Status != "stopped" {
		t.Fatalf("poll after stop = %q, want stopped", poll.Status)
	}
}

func TestChat_GeneratesReply(t *testing.T) {
	env := newTestEnv(t, nil)

	var res chatResponse
	code := doJSON(t, "POST", env.ts.URL+"/api/chat", `{"message":"what is 6x7?","source":"text"}`, &res)
	if code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	if res.Status != "ok" || res.Answer != "the answer" {
		t.Fatalf("response = %+v, want ok/'the answer'", res)
	}
	if res.Model != "test-model" {
		t.Errorf("model = %q, want test-model", res.Model)
	}
	if env.gen.CallCount() != 1 {
		t.Errorf("generator called %d times, want 1", env.gen.CallCount())
	}
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	if code := doJSON(t, "POST", env.ts.URL+"/api/chat", `{"message":"","source":"text"}`, nil); code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", code)
	}
	if code := doJSON(t, "POST", env.ts.URL+"/api/chat", `not json`, nil); code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want 400", code)
	}
}

func TestChat_VoiceCommandShortCircuits(t *testing.T) {
	executed := false
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Commands = command.New([]command.Command{{
			Name:    "stop-listening",
			Phrases: []string{"stop listening"},
			Action: func(context.Context) (string, error) {
				executed = true
				return "stopped", nil
			},
		}})
	})

	var res chatResponse
	doJSON(t, "POST", env.ts.URL+"/api/chat", `{"message":"stop listening","source":"voice"}`, &res)
	if res.Status != "command_executed" {
		t.Fatalf("status = %q, want command_executed", res.Status)
	}
	if !executed {
		t.Error("command action did not run")
	}
	if env.gen.CallCount() != 0 {
		t.Errorf("generator called %d times, want 0", env.gen.CallCount())
	}

	// The same text typed rather than spoken goes to the model.
	doJSON(t, "POST", env.ts.URL+"/api/chat", `{"message":"stop listening","source":"text"}`, &res)
	if res.Status != "ok" {
		t.Fatalf("status = %q, want ok", res.Status)
	}
	if env.gen.CallCount() != 1 {
		t.Errorf("generator called %d times, want 1", env.gen.CallCount())
	}
}

func TestChat_BracketsGeneration(t *testing.T) {
	env := newTestEnv(t, nil)

	doJSON(t, "POST", env.ts.URL+"/api/chat", `{"message":"hi","source":"text"}`, nil)

	deadline := time.Now().Add(time.Second)
	for env.coord.State() != turn.StateCapturing {
		if time.Now().After(deadline) {
			t.Fatal("coordinator did not return to capturing after chat")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReset_ClearsHistory(t *testing.T) {
	env := newTestEnv(t, nil)

	doJSON(t, "POST", env.ts.URL+"/api/chat", `{"message":"hi","source":"text"}`, nil)

	var res map[string]string
	if code := doJSON(t, "POST", env.ts.URL+"/api/reset", "", &res); code != http.StatusOK {
		t.Fatalf("reset status code = %d, want 200", code)
	}

	var st statusResponse
	doJSON(t, "GET", env.ts.URL+"/api/status", "", &st)
	if st.Chat.HistoryLen != 0 {
		t.Errorf("history_len = %d, want 0", st.Chat.HistoryLen)
	}
}

func TestRoutes_HealthAndMetricsExposed(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(env.ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}
