// ABOUTME: Audio decoder package for chunk codec frames
// ABOUTME: Provides Decoder interface and implementations for PCM, Opus
// Package decode provides frame decoders for the codecs carried in chunks.
//
// Supports: PCM (16-bit little-endian), Opus
//
// Example:
//
//	decoder, err := decode.New(format)
//	samples, err := decoder.Decode(frame)
package decode
