// Package types defines the shared types used across all voxgest packages.
//
// These types form the lingua franca between the capture sources, the
// segmentation and confirmation engines, the provider adapters, and the web
// shell. They are intentionally minimal — each package defines its own domain
// types, but cross-cutting data structures live here to avoid circular imports.
package types

import "time"

// AudioFrame represents a single fixed-size block of captured audio.
// Frames are the atomic unit of audio transport: the capture source produces
// them at a fixed cadence and the voice segmenter consumes them one at a time.
type AudioFrame struct {
	// Data is raw 16-bit signed little-endian PCM. Always mono.
	Data []byte

	// SampleRate in Hz (e.g., 16000 for STT input).
	SampleRate int

	// Channels is the number of audio channels. The capture pipeline is
	// mono end to end, so this is 1 everywhere outside of tests.
	Channels int

	// Timestamp marks when this frame was captured, relative to session start.
	Timestamp time.Duration
}

// SampleCount returns the number of PCM samples in the frame.
func (f AudioFrame) SampleCount() int {
	return len(f.Data) / 2
}

// Duration returns the playback duration of the frame, or zero when the
// sample rate is unset.
func (f AudioFrame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.SampleCount()) * time.Second / time.Duration(f.SampleRate)
}

// VideoFrame is a single captured camera image, already encoded.
type VideoFrame struct {
	// Data is the encoded image (JPEG from the browser bridge).
	Data []byte

	// Width and Height are the image dimensions in pixels.
	Width  int
	Height int

	// Timestamp marks when the frame was captured.
	Timestamp time.Time
}

// GestureType identifies a hand gesture class reported by the classifier.
// The values mirror the MediaPipe gesture recognizer's canonical category
// names, lowercased.
type GestureType string

const (
	GestureOpenPalm   GestureType = "open_palm"
	GestureVictory    GestureType = "victory"
	GestureThumbUp    GestureType = "thumb_up"
	GesturePointingUp GestureType = "pointing_up"
	GestureClosedFist GestureType = "closed_fist"
	GestureThumbDown  GestureType = "thumb_down"
	GestureILoveYou   GestureType = "i_love_you"

	// GestureNone is reported when a hand is visible but no known gesture
	// matches. The confirmation engine ignores it.
	GestureNone GestureType = "none"
)

// Handedness indicates which hand produced a gesture observation.
type Handedness string

const (
	HandLeft    Handedness = "left"
	HandRight   Handedness = "right"
	HandUnknown Handedness = ""
)

// Landmark is a single normalised hand landmark coordinate.
// Coordinates are in the [0, 1] range relative to the frame dimensions; Z is
// depth relative to the wrist, with negative values toward the camera.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GestureObservation is one per-frame gesture classification result.
// Observations are immutable once produced; the confirmation engine owns them
// for the lifetime of its sliding window.
type GestureObservation struct {
	// Type is the classified gesture.
	Type GestureType `json:"type"`

	// Hand reports which hand produced the gesture, when known.
	Hand Handedness `json:"hand"`

	// Confidence is the classifier's score for Type (0.0–1.0).
	Confidence float64 `json:"confidence"`

	// Landmarks holds the 21 hand landmarks, when the classifier reports them.
	Landmarks []Landmark `json:"landmarks,omitempty"`

	// DetectedAt is when the observation entered the confirmation window.
	// Set by the confirmation engine on intake, not by the classifier.
	DetectedAt time.Time `json:"-"`
}

// ConfirmedGesture is a gesture that survived majority-vote confirmation.
type ConfirmedGesture struct {
	// Type is the confirmed gesture class.
	Type GestureType

	// Text is the phrase the gesture maps to, ready to be sent to the
	// conversation backend as user input.
	Text string

	// ConfirmedAt is when the confirmation rule fired.
	ConfirmedAt time.Time
}

// Utterance is one recognized spoken segment.
type Utterance struct {
	// Text is the recognized speech content.
	Text string

	// Duration is the length of the underlying speech segment.
	Duration time.Duration

	// RecognizedAt is when recognition completed.
	RecognizedAt time.Time
}
