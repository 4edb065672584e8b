// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package capture_api

import (
	"sync"

	internal_capture "github.com/echonotes/web-backend/internal/capture"
)

// remoteStream adapts one of the browser's device streams to the recorder's
// stream contract. The actual device lives on the client; frames arrive over
// the websocket and are fed in by the connection's read loop. Stop cannot
// reach the remote device synchronously, so it acknowledges immediately and
// the read loop drops frames that arrive after.
type remoteStream struct {
	source internal_capture.StreamSource

	mu     sync.Mutex
	events chan<- internal_capture.Event
	open   bool
}

func newRemoteStream(source internal_capture.StreamSource) *remoteStream {
	return &remoteStream{source: source}
}

func (s *remoteStream) Open(events chan<- internal_capture.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
	s.open = true
	return nil
}

func (s *remoteStream) Stop() {
	s.mu.Lock()
	events := s.events
	wasOpen := s.open
	s.open = false
	s.mu.Unlock()
	if !wasOpen || events == nil {
		return
	}
	// Non-blocking by contract: once the recorder stops consuming, drops
	// are expected.
	select {
	case events <- internal_capture.StreamStoppedEvent{Source: s.source}:
	default:
	}
}

// Feed forwards a frame from the read loop onto the recorder's event
// channel. Frames for a closed stream are dropped, never queued.
func (s *remoteStream) Feed(ev internal_capture.Event) {
	s.mu.Lock()
	events := s.events
	open := s.open
	s.mu.Unlock()
	if !open || events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}
