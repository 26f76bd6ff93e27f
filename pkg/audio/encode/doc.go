// ABOUTME: Audio encoder package for encoding PCM codec frames
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus
// Package encode provides frame encoders for the codecs carried in chunks.
//
// Supports: PCM (16-bit little-endian), Opus
//
// An encoder consumes exactly FrameSamples() interleaved samples per call.
//
// Example:
//
//	encoder, err := encode.New(format)
//	data, err := encoder.Encode(samples)
package encode
