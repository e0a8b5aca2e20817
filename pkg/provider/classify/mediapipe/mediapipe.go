// Package mediapipe provides a gesture classifier backed by a MediaPipe
// gesture recognizer sidecar.
//
// MediaPipe's gesture recognition models ship with Python and C++
// runtimes; the sidecar wraps one of them behind a small HTTP endpoint
// (POST /classify, multipart image upload, JSON response). The Classifier
// here is the Go-side client for that endpoint.
package mediapipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voxgest/voxgest/pkg/provider/classify"
	"github.com/voxgest/voxgest/pkg/types"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultMaxHands = 2
)

// Compile-time assertion that Classifier implements classify.Classifier.
var _ classify.Classifier = (*Classifier)(nil)

// Option is a functional option for configuring a Classifier.
type Option func(*Classifier)

// WithMaxHands caps the number of hands the sidecar reports per frame.
// Defaults to 2.
func WithMaxHands(n int) Option {
	return func(c *Classifier) { c.maxHands = n }
}

// WithMinConfidence sets the detection confidence floor forwarded to the
// sidecar. Observations below it are never returned. Zero leaves the
// sidecar's own default in place.
func WithMinConfidence(score float64) Option {
	return func(c *Classifier) { c.minConfidence = score }
}

// WithHTTPClient overrides the HTTP client used for classification requests.
// The default client has a 5 s timeout; classification runs per camera frame
// so a slow sidecar should fail fast rather than queue.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Classifier) { c.httpClient = hc }
}

// Classifier implements classify.Classifier against a MediaPipe sidecar.
type Classifier struct {
	serverURL     string
	maxHands      int
	minConfidence float64
	httpClient    *http.Client
}

// New creates a Classifier pointed at a sidecar base URL
// (e.g., "http://localhost:9090"). Options are applied after defaults.
func New(serverURL string, opts ...Option) (*Classifier, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("mediapipe: serverURL must not be empty")
	}
	c := &Classifier{
		serverURL:  strings.TrimRight(serverURL, "/"),
		maxHands:   defaultMaxHands,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// handResult is one detected hand in the sidecar's JSON response.
type handResult struct {
	Gesture    string           `json:"gesture"`
	Handedness string           `json:"handedness"`
	Score      float64          `json:"score"`
	Landmarks  []types.Landmark `json:"landmarks"`
}

// Classify POSTs the encoded frame to the sidecar's /classify endpoint as
// multipart/form-data and converts the per-hand results into observations.
// A frame with no visible hands yields an empty slice and a nil error.
func (c *Classifier) Classify(ctx context.Context, frame types.VideoFrame) ([]types.GestureObservation, error) {
	if len(frame.Data) == 0 {
		return nil, fmt.Errorf("mediapipe: empty frame")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("mediapipe: create form file: %w", err)
	}
	if _, err := fw.Write(frame.Data); err != nil {
		return nil, fmt.Errorf("mediapipe: write frame data: %w", err)
	}
	if c.maxHands > 0 {
		if err := mw.WriteField("max_hands", fmt.Sprintf("%d", c.maxHands)); err != nil {
			return nil, fmt.Errorf("mediapipe: write max_hands field: %w", err)
		}
	}
	if c.minConfidence > 0 {
		if err := mw.WriteField("min_confidence", fmt.Sprintf("%g", c.minConfidence)); err != nil {
			return nil, fmt.Errorf("mediapipe: write min_confidence field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("mediapipe: close multipart writer: %w", err)
	}

	endpoint := c.serverURL + "/classify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("mediapipe: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mediapipe: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mediapipe: sidecar returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mediapipe: read response body: %w", err)
	}

	var result struct {
		Hands []handResult `json:"hands"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("mediapipe: parse JSON response: %w", err)
	}

	observations := make([]types.GestureObservation, 0, len(result.Hands))
	for _, h := range result.Hands {
		observations = append(observations, types.GestureObservation{
			Type:       normalizeGesture(h.Gesture),
			Hand:       normalizeHandedness(h.Handedness),
			Confidence: h.Score,
			Landmarks:  h.Landmarks,
		})
	}
	return observations, nil
}

// normalizeGesture maps MediaPipe's canonical category names ("Open_Palm",
// "Thumb_Up", ...) to the lowercase GestureType constants. Unknown or empty
// categories become GestureNone.
func normalizeGesture(category string) types.GestureType {
	switch strings.ToLower(category) {
	case "open_palm":
		return types.GestureOpenPalm
	case "victory":
		return types.GestureVictory
	case "thumb_up":
		return types.GestureThumbUp
	case "pointing_up":
		return types.GesturePointingUp
	case "closed_fist":
		return types.GestureClosedFist
	case "thumb_down":
		return types.GestureThumbDown
	case "iloveyou", "i_love_you":
		return types.GestureILoveYou
	default:
		return types.GestureNone
	}
}

// normalizeHandedness lowercases the sidecar's handedness label.
func normalizeHandedness(label string) types.Handedness {
	switch strings.ToLower(label) {
	case "left":
		return types.HandLeft
	case "right":
		return types.HandRight
	default:
		return types.HandUnknown
	}
}
