// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package capture_api

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/echonotes/web-backend/api/middleware"
	"github.com/echonotes/web-backend/config"
	internal_capture "github.com/echonotes/web-backend/internal/capture"
	notes_client "github.com/echonotes/web-backend/pkg/clients/notes"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/types"
)

const outboundChannelSize = 32

// clientMessage is one inbound frame. The browser multiplexes both device
// streams plus the user's field edits over a single socket.
type clientMessage struct {
	Type string `json:"type"`

	// Value carries field edits (title/text/transcript).
	Value string `json:"value,omitempty"`
	// Text carries recognition hypotheses (interim/final).
	Text string `json:"text,omitempty"`
	// Name and Data carry binary payloads (audio chunks, attachments).
	Name string `json:"name,omitempty"`
	Data string `json:"data,omitempty"`
	// Index selects the attachment for detach.
	Index *int `json:"index,omitempty"`

	// Start negotiation: "pcm16" requests server-side WAV containerization.
	Format     string `json:"format,omitempty"`
	SampleRate uint32 `json:"sampleRate,omitempty"`
	Channels   uint16 `json:"channels,omitempty"`
}

type serverMessage struct {
	Type    string `json:"type"`
	State   string `json:"state,omitempty"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Count   int    `json:"count,omitempty"`
}

type captureApi struct {
	cfg         *config.AppConfig
	logger      commons.Logger
	persistence notes_client.NoteServiceClient
	upgrader    websocket.Upgrader
}

func New(cfg *config.AppConfig, logger commons.Logger, persistence notes_client.NoteServiceClient) *captureApi {
	return &captureApi{
		cfg:         cfg,
		logger:      logger,
		persistence: persistence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Capture upgrades to a websocket and runs one capture session for the
// connection's lifetime. The session is abandoned, never persisted, when the
// socket goes away without a submit.
func (api *captureApi) Capture(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing principal"})
		return
	}

	conn, err := api.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	session := newCaptureConn(api, conn, principal)
	session.run(c.Request.Context())
}

// captureConn binds one websocket to one capture session.
type captureConn struct {
	api       *captureApi
	conn      *websocket.Conn
	principal types.SimplePrinciple
	logger    commons.Logger

	audio       *remoteStream
	recognition *remoteStream
	session     *internal_capture.Session

	// outbound is drained by a single writer goroutine so callbacks from
	// other goroutines (abort notifier, warn callback) can push safely.
	outbound chan serverMessage

	sampleRate uint32
	channels   uint16
	rawPCM     bool
}

func newCaptureConn(api *captureApi, conn *websocket.Conn, principal types.SimplePrinciple) *captureConn {
	cc := &captureConn{
		api:         api,
		conn:        conn,
		principal:   principal,
		logger:      api.logger,
		audio:       newRemoteStream(internal_capture.SourceAudio),
		recognition: newRemoteStream(internal_capture.SourceRecognition),
		outbound:    make(chan serverMessage, outboundChannelSize),
		sampleRate:  16000,
		channels:    1,
	}

	previewer, err := internal_capture.NewLocalPreviewer(api.logger, api.cfg.PreviewPath, "/previews")
	if err != nil {
		api.logger.Warnf("previewer unavailable, previews disabled: %v", err)
		previewer = nil
	}
	attachments := internal_capture.NewAttachments(api.logger, previewer, func(count int) {
		cc.push(serverMessage{Type: "warning", Code: "attachment_cap",
			Message: "you can only upload 5 images at a time", Count: count})
	})

	factory := func(transcript *internal_capture.TranscriptBuffer, onAbort func(error)) *internal_capture.Recorder {
		return internal_capture.NewRecorder(api.logger, cc.audio, cc.recognition, transcript,
			internal_capture.WithAbortNotifier(onAbort))
	}

	cc.session = internal_capture.NewSession(api.logger, principal, api.persistence, factory, attachments,
		internal_capture.WithAudioEncoder(cc.encodeAudio),
		internal_capture.WithNotifier(func(err error) {
			cc.push(serverMessage{Type: "error", Code: "stream_error", Message: err.Error()})
		}),
		internal_capture.WithSavedCallback(func() {
			cc.push(serverMessage{Type: "saved"})
		}),
	)
	return cc
}

func (cc *captureConn) run(ctx context.Context) {
	defer cc.conn.Close()
	defer cc.session.Abandon()

	done := make(chan struct{})
	go cc.writeLoop(done)
	defer close(done)

	for {
		var msg clientMessage
		if err := cc.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cc.logger.Debugf("capture socket closed: %v", err)
			}
			return
		}
		cc.dispatch(ctx, msg)
	}
}

func (cc *captureConn) dispatch(ctx context.Context, msg clientMessage) {
	switch msg.Type {
	case "start":
		if msg.SampleRate > 0 {
			cc.sampleRate = msg.SampleRate
		}
		if msg.Channels > 0 {
			cc.channels = msg.Channels
		}
		cc.rawPCM = msg.Format == "pcm16"
		if err := cc.session.StartRecording(); err != nil {
			cc.push(serverMessage{Type: "error", Code: errorCode(err), Message: err.Error()})
			return
		}
		cc.push(serverMessage{Type: "state", State: cc.session.RecordingState()})

	case "stop":
		if err := cc.session.StopRecording(ctx); err != nil {
			cc.push(serverMessage{Type: "error", Code: "stop_failed", Message: err.Error()})
			return
		}
		cc.push(serverMessage{Type: "state", State: cc.session.RecordingState()})
		cc.push(serverMessage{Type: "transcript", Text: cc.session.Transcript()})

	case "audio":
		data, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			cc.push(serverMessage{Type: "error", Code: "bad_frame", Message: "undecodable audio chunk"})
			return
		}
		cc.audio.Feed(internal_capture.AudioChunkEvent{Data: data})

	case "interim":
		cc.recognition.Feed(internal_capture.InterimTranscriptEvent{Text: msg.Text})

	case "final":
		cc.recognition.Feed(internal_capture.FinalTranscriptEvent{Text: msg.Text})

	case "title":
		cc.session.SetTitle(msg.Value)

	case "text":
		cc.session.SetText(msg.Value)

	case "transcript":
		cc.session.SetTranscript(msg.Value)

	case "attach":
		data, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			cc.push(serverMessage{Type: "error", Code: "bad_frame", Message: "undecodable attachment"})
			return
		}
		cc.session.AddAttachments(internal_capture.File{Name: msg.Name, Data: data})

	case "detach":
		if msg.Index != nil {
			cc.session.RemoveAttachment(*msg.Index)
		}

	case "submit":
		if err := cc.session.Submit(ctx); err != nil {
			cc.push(serverMessage{Type: "error", Code: "submission_failed", Message: err.Error()})
		}

	default:
		cc.push(serverMessage{Type: "error", Code: "unknown_message", Message: msg.Type})
	}
}

func (cc *captureConn) encodeAudio(blob []byte) []byte {
	if !cc.rawPCM {
		return blob
	}
	return internal_capture.EncodeWAV(blob, cc.sampleRate, cc.channels)
}

func (cc *captureConn) writeLoop(done <-chan struct{}) {
	for {
		select {
		case msg := <-cc.outbound:
			if err := cc.conn.WriteJSON(msg); err != nil {
				cc.logger.Debugf("capture socket write failed: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

func (cc *captureConn) push(msg serverMessage) {
	select {
	case cc.outbound <- msg:
	default:
		cc.logger.Warnf("outbound capture message dropped: type=%s", msg.Type)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, internal_capture.ErrUnsupportedCapability):
		return "unsupported_capability"
	case errors.Is(err, internal_capture.ErrDeviceAccessDenied):
		return "device_access_denied"
	case errors.Is(err, internal_capture.ErrRecorderBusy):
		return "recorder_busy"
	default:
		return "stream_error"
	}
}
