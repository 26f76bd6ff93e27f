// ABOUTME: Audio output package for rendering decoded chunks
// ABOUTME: Provides Output interface and oto implementation
// Package output provides audio playback for decoded voice chunks.
//
// Render blocks until the chunk has finished playing, so callers can chain
// chunks strictly one after another.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 1)
//	err = out.Render(ctx, samples)
package output
