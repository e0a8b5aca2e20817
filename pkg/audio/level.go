package audio

import (
	"encoding/binary"
	"math"
)

// MeanAbs returns the mean absolute amplitude of a 16-bit signed little-endian
// PCM buffer, expressed in PCM sample units (0–32 768). This is the volume
// heuristic the voice segmenter compares against its threshold. Returns 0 for
// buffers shorter than one sample; a trailing odd byte is ignored.
func MeanAbs(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		sum += math.Abs(float64(sample))
	}
	return sum / float64(n)
}

// RMS returns the root-mean-square energy of a 16-bit signed little-endian
// PCM buffer, in PCM sample units. Returns 0 for buffers shorter than one
// sample.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		v := float64(sample)
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
