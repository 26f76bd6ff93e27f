// ABOUTME: Audio input package for microphone capture
// ABOUTME: Provides Input interface and malgo implementation with self-monitoring
// Package input opens the microphone and delivers interleaved S16 samples
// from the device callback.
//
// When monitoring is requested the same device also plays its input straight
// back to the local output, so the speaker hears themselves without a relay
// round trip. Monitoring never touches the network.
//
// Example:
//
//	mic := input.NewMalgo()
//	stream, err := mic.Open(format, func(s []int16) { ring.Write(s) }, true)
//	defer stream.Close()
package input
