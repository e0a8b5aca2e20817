package whisper

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// decodeWAV extracts the raw PCM payload and channel count from a RIFF/WAV
// container holding 16-bit PCM. Only the fmt and data chunks are interpreted;
// other chunks are skipped.
func decodeWAV(wav []byte) (pcm []byte, channels int, err error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a RIFF/WAVE container")
	}

	channels = 1
	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(wav) {
			return nil, 0, fmt.Errorf("truncated %q chunk", id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("fmt chunk too short")
			}
			if format := binary.LittleEndian.Uint16(wav[body : body+2]); format != 1 {
				return nil, 0, fmt.Errorf("unsupported audio format %d (want PCM)", format)
			}
			if bits := binary.LittleEndian.Uint16(wav[body+14 : body+16]); bits != 16 {
				return nil, 0, fmt.Errorf("unsupported bit depth %d (want 16)", bits)
			}
			channels = int(binary.LittleEndian.Uint16(wav[body+2 : body+4]))
		case "data":
			return wav[body : body+size], channels, nil
		}

		// Chunks are word-aligned; odd sizes carry a pad byte.
		pos = body + size + size%2
	}

	return nil, 0, errors.New("no data chunk found")
}

// pcmToFloat32 converts 16-bit signed little-endian PCM audio to float32
// samples normalised to the range [-1.0, 1.0]. The input length must be
// even (two bytes per sample); any trailing odd byte is silently ignored.
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := range n {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// pcmToFloat32Mono down-mixes multi-channel 16-bit PCM to mono float32 by
// averaging all channels per frame. If channels is 1 this is equivalent to
// pcmToFloat32.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels <= 1 {
		return pcmToFloat32(pcm)
	}
	samplesPerChannel := len(pcm) / (2 * channels)
	mono := make([]float32, samplesPerChannel)
	for i := range samplesPerChannel {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
