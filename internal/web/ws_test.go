package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	audiobridge "github.com/voxgest/voxgest/pkg/audio/bridge"
	"github.com/voxgest/voxgest/pkg/types"
	visionbridge "github.com/voxgest/voxgest/pkg/vision/bridge"
)

// dialWS connects to a /ws endpoint of the test server.
func dialWS(t *testing.T, httpURL, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(httpURL, "http") + path
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func wsWrite(t *testing.T, conn *websocket.Conn, typ websocket.MessageType, data []byte) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Write(ctx, typ, data); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func TestAudioWS_FeedsBridge(t *testing.T) {
	bridge := audiobridge.New(16000)
	env := newTestEnv(t, func(cfg *Config) { cfg.AudioIn = bridge })

	conn := dialWS(t, env.ts.URL, "/ws/audio")
	pcm := []byte{0x10, 0x00, 0x20, 0x00}
	wsWrite(t, conn, websocket.MessageBinary, pcm)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	frame, err := bridge.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(frame.Data) != string(pcm) {
		t.Errorf("frame data = %v, want %v", frame.Data, pcm)
	}
	if frame.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", frame.SampleRate)
	}
}

func TestAudioWS_UnconfiguredReturns503(t *testing.T) {
	env := newTestEnv(t, nil) // no AudioIn bridge

	resp, err := http.Get(env.ts.URL + "/ws/audio")
	if err != nil {
		t.Fatalf("GET /ws/audio: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestVideoWS_FeedsBridgeWithDims(t *testing.T) {
	bridge := visionbridge.New()
	env := newTestEnv(t, func(cfg *Config) { cfg.VideoIn = bridge })

	conn := dialWS(t, env.ts.URL, "/ws/video")
	wsWrite(t, conn, websocket.MessageText, []byte(`{"width":640,"height":480}`))
	jpeg := []byte{0xff, 0xd8, 0xff, 0xd9}
	wsWrite(t, conn, websocket.MessageBinary, jpeg)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	frame, err := bridge.ReadFrame(ctx)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(frame.Data) != string(jpeg) {
		t.Errorf("frame data = %v, want %v", frame.Data, jpeg)
	}
	if frame.Width != 640 || frame.Height != 480 {
		t.Errorf("dims = %dx%d, want 640x480", frame.Width, frame.Height)
	}
}

func TestEventsWS_PushesQueueItems(t *testing.T) {
	env := newTestEnv(t, nil)

	// Queued before the client connects; delivered on the initial drain.
	env.coord.PushUtterance(types.Utterance{Text: "hello world"})

	conn := dialWS(t, env.ts.URL, "/ws/events")

	readEvent := func() event {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return ev
	}

	ev := readEvent()
	if ev.Type != "utterance" || ev.Text != "hello world" {
		t.Fatalf("event = %+v, want utterance 'hello world'", ev)
	}

	// Queued while connected; delivered via the wake signal.
	env.coord.PushGesture(types.ConfirmedGesture{Type: types.GestureVictory, Text: "Victory"})

	ev = readEvent()
	if ev.Type != "gesture" || ev.Text != "Victory" || ev.Gesture != "victory" {
		t.Fatalf("event = %+v, want gesture victory 'Victory'", ev)
	}
}
