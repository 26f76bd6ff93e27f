// ABOUTME: Audio input interface definition
// ABOUTME: Common interface for microphone backends
package input

import "github.com/Resonate-Protocol/voice-relay/pkg/audio"

// SampleFunc receives captured samples. It runs on the device thread and
// must not block; the slice is only valid for the duration of the call.
type SampleFunc func(samples []int16)

// Input opens capture streams
type Input interface {
	// Open acquires the microphone. On error nothing is left open.
	Open(format audio.Format, onSamples SampleFunc, monitor bool) (Stream, error)
}

// Stream is one open capture session on the device
type Stream interface {
	// Close stops capture and releases the device
	Close() error
}
