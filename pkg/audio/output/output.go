// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import "context"

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Render plays samples and returns once they have finished playing
	// or ctx is done
	Render(ctx context.Context, samples []int16) error

	// Close releases output resources
	Close() error
}
