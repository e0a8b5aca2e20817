// Package web is the HTTP shell over the capture pipelines.
//
// It exposes the REST surface the browser front-end drives (start/stop per
// modality, long-poll drains for the utterance and gesture queues, the chat
// endpoint that brackets generation with the turn-taking coordinator) plus
// three websockets: /ws/audio and /ws/video for raw frame ingest from the
// browser microphone and camera, and /ws/events as a push alternative to the
// long-poll endpoints. A deployment should drain each queue through one
// surface only; long-poll and event push compete for the same items.
package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxgest/voxgest/internal/chat"
	"github.com/voxgest/voxgest/internal/command"
	"github.com/voxgest/voxgest/internal/gesture"
	"github.com/voxgest/voxgest/internal/health"
	"github.com/voxgest/voxgest/internal/observe"
	"github.com/voxgest/voxgest/internal/turn"
	"github.com/voxgest/voxgest/internal/voice"
	audiobridge "github.com/voxgest/voxgest/pkg/audio/bridge"
	visionbridge "github.com/voxgest/voxgest/pkg/vision/bridge"
)

// Server holds the wired pipeline components behind the HTTP surface.
// Modalities whose provider is not configured stay nil; their endpoints
// answer 503 so the front-end can grey the control out.
type Server struct {
	voice    *voice.Session
	gestures *gesture.Analyzer
	coord    *turn.Coordinator
	chat     *chat.Service
	commands *command.Filter
	metrics  *observe.Metrics
	health   *health.Handler

	audioIn *audiobridge.Source
	videoIn *visionbridge.Source

	// baseCtx parents the capture loops started from HTTP handlers, so that
	// a session outlives the request that started it but not the app.
	baseCtx context.Context
}

// Config carries the component wiring for a [Server]. Voice, Gestures, Chat,
// Commands, AudioIn, and VideoIn may be nil; Coord, Metrics, and Health must
// be set.
type Config struct {
	Voice    *voice.Session
	Gestures *gesture.Analyzer
	Coord    *turn.Coordinator
	Chat     *chat.Service
	Commands *command.Filter
	Metrics  *observe.Metrics
	Health   *health.Handler
	AudioIn  *audiobridge.Source
	VideoIn  *visionbridge.Source
}

// NewServer creates a Server. baseCtx bounds the lifetime of capture
// sessions started through the API.
func NewServer(baseCtx context.Context, cfg Config) *Server {
	return &Server{
		voice:    cfg.Voice,
		gestures: cfg.Gestures,
		coord:    cfg.Coord,
		chat:     cfg.Chat,
		commands: cfg.Commands,
		metrics:  cfg.Metrics,
		health:   cfg.Health,
		audioIn:  cfg.AudioIn,
		videoIn:  cfg.VideoIn,
		baseCtx:  baseCtx,
	}
}

// Routes returns the full handler tree with the observability middleware
// applied to the API surface. Health probes and the metrics scrape bypass
// the middleware so probe traffic stays out of the request histograms.
func (s *Server) Routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/voice/start", s.handleVoiceStart)
	api.HandleFunc("POST /api/voice/stop", s.handleVoiceStop)
	api.HandleFunc("POST /api/voice/resume", s.handleVoiceResume)
	api.HandleFunc("GET /api/voice/get-text", s.handleVoiceGetText)
	api.HandleFunc("POST /api/camera/start", s.handleCameraStart)
	api.HandleFunc("POST /api/camera/stop", s.handleCameraStop)
	api.HandleFunc("GET /api/gesture/get-text", s.handleGestureGetText)
	api.HandleFunc("POST /api/chat", s.handleChat)
	api.HandleFunc("POST /api/reset", s.handleReset)
	api.HandleFunc("GET /api/status", s.handleStatus)

	root := http.NewServeMux()
	root.Handle("/api/", observe.Middleware(s.metrics)(api))
	root.HandleFunc("GET /ws/audio", s.handleAudioWS)
	root.HandleFunc("GET /ws/video", s.handleVideoWS)
	root.HandleFunc("GET /ws/events", s.handleEventsWS)
	root.Handle("GET /metrics", promhttp.Handler())
	s.health.Register(root)
	return root
}

// statusResponse is the body of GET /api/status.
type statusResponse struct {
	Voice struct {
		Available bool `json:"available"`
		Listening bool `json:"listening"`
	} `json:"voice"`
	Gesture struct {
		Available    bool `json:"available"`
		CameraActive bool `json:"camera_active"`
	} `json:"gesture"`
	Chat struct {
		Available  bool `json:"available"`
		HistoryLen int  `json:"history_len"`
	} `json:"chat"`
	TurnState turn.State `json:"turn_state"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var res statusResponse
	res.Voice.Available = s.voice != nil
	if s.voice != nil {
		res.Voice.Listening = s.voice.IsListening()
	}
	res.Gesture.Available = s.gestures != nil
	if s.gestures != nil {
		res.Gesture.CameraActive = s.gestures.IsActive()
	}
	res.Chat.Available = s.chat != nil
	if s.chat != nil {
		res.Chat.HistoryLen = s.chat.HistoryLen()
	}
	res.TurnState = s.coord.State()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVoiceStart(w http.ResponseWriter, _ *http.Request) {
	if s.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "voice recognition is not configured")
		return
	}
	status := s.voice.Start(s.baseCtx)
	if status == voice.StatusStarted && s.metrics != nil {
		s.metrics.ActiveVoiceSessions.Add(s.baseCtx, 1)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleVoiceStop(w http.ResponseWriter, _ *http.Request) {
	if s.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "voice recognition is not configured")
		return
	}
	// The session's stop callback owns the gauge decrement; it also covers
	// sessions that end on the inactivity timeout or a spoken command.
	s.voice.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// handleVoiceResume restarts listening after a spoken answer. It is the same
// idempotent Start as /api/voice/start; the separate route mirrors the
// front-end's intent.
func (s *Server) handleVoiceResume(w http.ResponseWriter, _ *http.Request) {
	if s.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "voice recognition is not configured")
		return
	}
	status := s.voice.Start(s.baseCtx)
	if status == voice.StatusStarted && s.metrics != nil {
		s.metrics.ActiveVoiceSessions.Add(s.baseCtx, 1)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

// pollResponse is the long-poll body shared by the voice and gesture
// get-text endpoints.
type pollResponse struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
}

func (s *Server) handleVoiceGetText(w http.ResponseWriter, _ *http.Request) {
	if s.voice == nil {
		writeError(w, http.StatusServiceUnavailable, "voice recognition is not configured")
		return
	}
	if !s.voice.IsListening() {
		writeJSON(w, http.StatusOK, pollResponse{Status: "stopped"})
		return
	}
	if u, ok := s.coord.PopUtterance(); ok {
		writeJSON(w, http.StatusOK, pollResponse{Status: "text_available", Text: u.Text})
		return
	}
	writeJSON(w, http.StatusOK, pollResponse{Status: "no_text"})
}

func (s *Server) handleCameraStart(w http.ResponseWriter, _ *http.Request) {
	if s.gestures == nil {
		writeError(w, http.StatusServiceUnavailable, "gesture classification is not configured")
		return
	}
	if s.gestures.Start(s.baseCtx) {
		if s.metrics != nil {
			s.metrics.ActiveGestureSessions.Add(s.baseCtx, 1)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "already_active"})
}

func (s *Server) handleCameraStop(w http.ResponseWriter, _ *http.Request) {
	if s.gestures == nil {
		writeError(w, http.StatusServiceUnavailable, "gesture classification is not configured")
		return
	}
	// Stop is idempotent and the stop callback owns the gauge decrement.
	s.gestures.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) handleGestureGetText(w http.ResponseWriter, _ *http.Request) {
	if s.gestures == nil {
		writeError(w, http.StatusServiceUnavailable, "gesture classification is not configured")
		return
	}
	if !s.gestures.IsActive() {
		// The capture loop stops itself after the inactivity timeout; the
		// front-end uses this status to reset its camera button.
		writeJSON(w, http.StatusOK, pollResponse{Status: "stopped"})
		return
	}
	if g, ok := s.coord.PopGesture(); ok {
		writeJSON(w, http.StatusOK, pollResponse{Status: "text_available", Text: g.Text})
		return
	}
	writeJSON(w, http.StatusOK, pollResponse{Status: "no_text"})
}

// chatRequest is the body of POST /api/chat. Source tags where the message
// came from ("text", "voice", "gesture"); voice messages are first checked
// against the spoken-command filter.
type chatRequest struct {
	Message string `json:"message"`
	Source  string `json:"source"`
}

// chatResponse is the body of POST /api/chat. Audio, when present, is
// base64-encoded 16-bit mono PCM for the front-end to play back.
type chatResponse struct {
	Status     string `json:"status"`
	Answer     string `json:"answer,omitempty"`
	Thinking   string `json:"thinking,omitempty"`
	Model      string `json:"model,omitempty"`
	Audio      string `json:"audio,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "no language model is configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "empty message")
		return
	}

	if s.commands != nil && req.Source == "voice" {
		handled, err := s.commands.Check(r.Context(), req.Message)
		if handled {
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, chatResponse{Status: "command_executed"})
			return
		}
	}

	reply, err := s.chat.Send(r.Context(), req.Message)
	if err != nil {
		slog.Error("web: chat generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "generation failed")
		return
	}

	res := chatResponse{
		Status:   "ok",
		Answer:   reply.Text,
		Thinking: reply.Thinking,
		Model:    reply.Model,
	}
	if reply.Audio != nil {
		res.Audio = base64.StdEncoding.EncodeToString(reply.Audio.PCM)
		res.SampleRate = reply.Audio.SampleRate
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "no language model is configured")
		return
	}
	s.chat.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the JSON error body used across the API.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Debug("web: response encode failed", "error", err)
	}
}
