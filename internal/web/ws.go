package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// wsWriteTimeout bounds a single event write so one stalled client cannot
// wedge the pusher goroutine.
const wsWriteTimeout = 5 * time.Second

// eventPollInterval is the fallback drain cadence for /ws/events. The queue
// wake channel coalesces signals, so a periodic sweep catches items whose
// wake fired while a previous batch was being written.
const eventPollInterval = 250 * time.Millisecond

// videoDims is the optional text frame a camera client sends before its
// binary JPEG frames to label their dimensions.
type videoDims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// event is one /ws/events push message.
type event struct {
	Type    string `json:"type"`    // "utterance" or "gesture"
	Text    string `json:"text"`
	Gesture string `json:"gesture,omitempty"`
}

func (s *Server) acceptWS(w http.ResponseWriter, r *http.Request, kind string) (*websocket.Conn, string, bool) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("web: websocket accept failed", "kind", kind, "error", err)
		return nil, "", false
	}
	id := uuid.NewString()
	if s.metrics != nil {
		s.metrics.ConnectedClients.Add(r.Context(), 1)
	}
	slog.Info("web: websocket connected", "kind", kind, "conn_id", id)
	return conn, id, true
}

func (s *Server) closeWS(conn *websocket.Conn, kind, id string) {
	if s.metrics != nil {
		s.metrics.ConnectedClients.Add(context.Background(), -1)
	}
	slog.Info("web: websocket closed", "kind", kind, "conn_id", id)
	conn.Close(websocket.StatusNormalClosure, "")
}

// handleAudioWS ingests raw PCM16 frames from the browser microphone.
// Binary frames are pushed into the audio bridge; text frames are ignored.
func (s *Server) handleAudioWS(w http.ResponseWriter, r *http.Request) {
	if s.audioIn == nil {
		http.Error(w, "voice recognition is not configured", http.StatusServiceUnavailable)
		return
	}
	conn, id, ok := s.acceptWS(w, r, "audio")
	if !ok {
		return
	}
	defer s.closeWS(conn, "audio", id)

	for {
		typ, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		if typ == websocket.MessageBinary {
			s.audioIn.Push(data)
		}
	}
}

// handleVideoWS ingests JPEG frames from the browser camera. A client may
// send a JSON text frame {"width":W,"height":H} to label the dimensions of
// the binary frames that follow.
func (s *Server) handleVideoWS(w http.ResponseWriter, r *http.Request) {
	if s.videoIn == nil {
		http.Error(w, "gesture classification is not configured", http.StatusServiceUnavailable)
		return
	}
	conn, id, ok := s.acceptWS(w, r, "video")
	if !ok {
		return
	}
	defer s.closeWS(conn, "video", id)

	var dims videoDims
	for {
		typ, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		switch typ {
		case websocket.MessageText:
			if err := json.Unmarshal(data, &dims); err != nil {
				slog.Debug("web: bad video dims frame", "conn_id", id, "error", err)
			}
		case websocket.MessageBinary:
			s.videoIn.Push(data, dims.Width, dims.Height)
		}
	}
}

// handleEventsWS pushes queue items to the client as they arrive, as an
// alternative to polling the get-text endpoints.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, id, ok := s.acceptWS(w, r, "events")
	if !ok {
		return
	}
	defer s.closeWS(conn, "events", id)

	ctx := r.Context()
	ticker := time.NewTicker(eventPollInterval)
	defer ticker.Stop()

	for {
		if err := s.pushEvents(ctx, conn); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-s.coord.Utterances().Wake():
		case <-s.coord.Gestures().Wake():
		case <-ticker.C:
		}
	}
}

// pushEvents drains both queues and writes one message per item.
func (s *Server) pushEvents(ctx context.Context, conn *websocket.Conn) error {
	for {
		u, ok := s.coord.PopUtterance()
		if !ok {
			break
		}
		if err := writeEvent(ctx, conn, event{Type: "utterance", Text: u.Text}); err != nil {
			return err
		}
	}
	for {
		g, ok := s.coord.PopGesture()
		if !ok {
			break
		}
		ev := event{Type: "gesture", Text: g.Text, Gesture: string(g.Type)}
		if err := writeEvent(ctx, conn, ev); err != nil {
			return err
		}
	}
	return nil
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
