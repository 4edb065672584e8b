// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import (
	"bytes"
	"encoding/binary"
)

const (
	audioBytesPerSample = 2 // LINEAR16 → 2 bytes per sample
	audioBitsPerSample  = 16
	audioPCMFormat      = 1 // WAV PCM format tag
)

// EncodeWAV wraps raw LINEAR16 PCM in a WAV container. Used when the capture
// transport negotiates a raw PCM stream and the finalized blob needs a
// playable container before upload.
func EncodeWAV(pcmData []byte, sampleRate uint32, channels uint16) []byte {
	var buf bytes.Buffer
	bps := sampleRate * uint32(channels) * audioBytesPerSample

	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcmData)))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(audioPCMFormat))
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	binary.Write(&buf, binary.LittleEndian, bps)
	binary.Write(&buf, binary.LittleEndian, uint16(audioBytesPerSample*channels))
	binary.Write(&buf, binary.LittleEndian, uint16(audioBitsPerSample))

	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcmData)))
	buf.Write(pcmData)

	return buf.Bytes()
}
