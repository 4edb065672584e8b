// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/types"
)

// Field defaults the session resets to after a successful submission.
const (
	DefaultTitle = "Title"
	DefaultText  = "Notes"
)

// NoteFile is a binary part of the submission payload.
type NoteFile struct {
	Name string
	Data []byte
}

// CreateNotePayload is the multipart payload handed to the persistence API.
type CreateNotePayload struct {
	Title      string
	Content    string
	Transcript string
	Images     []NoteFile
	Audio      *NoteFile
}

// Persistence is the note-storage collaborator the session submits to.
type Persistence interface {
	CreateNote(ctx context.Context, auth types.SimplePrinciple, payload *CreateNotePayload) error
}

// RecorderFactory builds a fresh recorder for each recording gesture, bound
// to the session's transcript buffer and abort notifier.
type RecorderFactory func(transcript *TranscriptBuffer, onAbort func(error)) *Recorder

// Session owns one note-creation attempt: the user-authored fields, the
// transcript buffer, the pending attachments, the active recorder and the
// finalized audio blob. One live instance per capture connection.
type Session struct {
	logger      commons.Logger
	principal   types.SimplePrinciple
	persistence Persistence
	newRecorder RecorderFactory
	encodeAudio func([]byte) []byte
	onSaved     func()
	notify      func(error)

	mu          sync.Mutex
	title       string
	text        string
	transcript  *TranscriptBuffer
	attachments *Attachments
	recorder    *Recorder
	audioBlob   []byte
	submitting  bool
}

type SessionOption func(*Session)

// WithAudioEncoder installs a container wrap applied to the finalized blob
// when building the payload (the blob itself stays raw).
func WithAudioEncoder(fn func([]byte) []byte) SessionOption {
	return func(s *Session) { s.encodeAudio = fn }
}

// WithSavedCallback signals the caller to refresh its note collection after
// a successful submission.
func WithSavedCallback(fn func()) SessionOption {
	return func(s *Session) { s.onSaved = fn }
}

// WithNotifier installs the non-fatal error notifier used for device-stream
// failures.
func WithNotifier(fn func(error)) SessionOption {
	return func(s *Session) { s.notify = fn }
}

func NewSession(logger commons.Logger, principal types.SimplePrinciple, persistence Persistence,
	newRecorder RecorderFactory, attachments *Attachments, opts ...SessionOption) *Session {
	s := &Session{
		logger:      logger,
		principal:   principal,
		persistence: persistence,
		newRecorder: newRecorder,
		title:       DefaultTitle,
		text:        DefaultText,
		transcript:  NewTranscriptBuffer(),
		attachments: attachments,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
}

func (s *Session) SetText(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// SetTranscript overwrites the transcript buffer, including any committed
// recognition segments. Used when the user edits the transcript directly.
func (s *Session) SetTranscript(text string) {
	s.transcript.Set(text)
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *Session) Transcript() string {
	return s.transcript.String()
}

func (s *Session) AddAttachments(files ...File) {
	s.attachments.Add(files...)
}

// RemoveAttachment removes the attachment at index. Out-of-range indices
// are a silent no-op.
func (s *Session) RemoveAttachment(index int) {
	s.attachments.RemoveAt(index)
}

func (s *Session) Attachments() *Attachments {
	return s.attachments
}

// RecordingState reports the nested recorder's state, Idle when none is
// live.
func (s *Session) RecordingState() string {
	s.mu.Lock()
	recorder := s.recorder
	s.mu.Unlock()
	if recorder == nil {
		return StateIdle
	}
	return recorder.State()
}

// AudioBlob returns the finalized audio of the last recording, nil when no
// recording has completed.
func (s *Session) AudioBlob() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioBlob
}

// StartRecording begins a new recording session. At most one recorder may
// be active; starting while one is live returns ErrRecorderBusy.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	if s.recorder != nil && s.recorder.Active() {
		s.mu.Unlock()
		return ErrRecorderBusy
	}
	recorder := s.newRecorder(s.transcript, s.notifyAbort)
	s.recorder = recorder
	s.mu.Unlock()

	if err := recorder.Start(); err != nil {
		s.mu.Lock()
		s.recorder = nil
		s.mu.Unlock()
		return err
	}
	return nil
}

// StopRecording requests finalization; the blob lands on the session once
// both streams drain.
func (s *Session) StopRecording(ctx context.Context) error {
	s.mu.Lock()
	recorder := s.recorder
	s.mu.Unlock()
	if recorder == nil {
		return nil
	}
	blob, err := recorder.Finalize(ctx)
	if err != nil {
		if errors.Is(err, ErrStreamError) {
			return nil // already surfaced through the abort notifier
		}
		return err
	}
	s.mu.Lock()
	if len(blob) > 0 {
		s.audioBlob = blob
	}
	s.mu.Unlock()
	return nil
}

// Submit assembles and sends the note. It is a no-op when the session is
// empty, ignores duplicate invocations while one is in flight, finalizes an
// in-progress recording first, and only resets the session after the
// persistence call succeeds. On failure the session is left fully intact
// for a manual retry.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil
	}
	recording := s.recorder != nil && s.recorder.Active()
	empty := s.text == "" &&
		s.transcript.String() == "" &&
		!recording &&
		len(s.audioBlob) == 0 &&
		s.attachments.Len() == 0
	if empty {
		s.mu.Unlock()
		return nil
	}
	s.submitting = true
	recorder := s.recorder
	s.mu.Unlock()

	// The in-flight guard is released no matter how submission ends.
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	if recording {
		blob, err := recorder.Finalize(ctx)
		if err != nil && !errors.Is(err, ErrStreamError) {
			return err
		}
		s.mu.Lock()
		if len(blob) > 0 {
			s.audioBlob = blob
		}
		s.mu.Unlock()
	}

	payload := s.buildPayload()
	if err := s.persistence.CreateNote(ctx, s.principal, payload); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	s.reset()
	s.logger.Infof("note submitted: user=%d images=%d audio=%t",
		s.principal.GetUserId(), len(payload.Images), payload.Audio != nil)
	if s.onSaved != nil {
		s.onSaved()
	}
	return nil
}

// Abandon releases all scoped resources without persisting anything. Called
// when the capture connection goes away.
func (s *Session) Abandon() {
	s.mu.Lock()
	recorder := s.recorder
	s.mu.Unlock()
	if recorder != nil {
		recorder.Stop()
	}
	s.attachments.ReleaseAll()
}

func (s *Session) buildPayload() *CreateNotePayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload := &CreateNotePayload{
		Title:      s.title,
		Content:    s.text,
		Transcript: s.transcript.String(),
	}
	for _, item := range s.attachments.Items() {
		payload.Images = append(payload.Images, NoteFile{Name: item.Name, Data: item.Data})
	}
	if len(s.audioBlob) > 0 {
		data := s.audioBlob
		if s.encodeAudio != nil {
			data = s.encodeAudio(data)
		}
		payload.Audio = &NoteFile{Name: "recording.wav", Data: data}
	}
	return payload
}

func (s *Session) reset() {
	s.attachments.ReleaseAll()
	s.mu.Lock()
	s.title = DefaultTitle
	s.text = DefaultText
	s.audioBlob = nil
	s.recorder = nil
	s.mu.Unlock()
	s.transcript.Reset()
}

func (s *Session) notifyAbort(err error) {
	if s.notify != nil {
		s.notify(err)
	}
}
