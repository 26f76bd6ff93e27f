// ABOUTME: Voice relay wire protocol package
// ABOUTME: Defines binary audio frames and JSON control messages
// Package protocol implements the voice relay wire protocol.
//
// Audio travels in binary websocket frames of the form
// [type:1][payload:N]. The relay forwards audio frames verbatim; only the
// type byte is ever looked at. Control messages are JSON text frames
// wrapped in a Message envelope.
//
// Example:
//
//	frame := protocol.EncodeAudioChunk(payload)
//	typ, payload, err := protocol.DecodeFrame(frame)
package protocol
