// ABOUTME: Audio fundamentals package shared by capture and playback
// ABOUTME: Defines Format and PCM sample conversion helpers
// Package audio provides the PCM types used on both ends of a voice chunk.
//
// Samples are interleaved signed 16-bit values. A Format names the codec used
// inside chunks together with the PCM layout the codec is configured for:
//
//	format := audio.DefaultFormat() // opus, 48kHz, mono
//	n := format.SamplesFor(audio.ChunkDuration)
package audio
