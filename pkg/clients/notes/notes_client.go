// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package notes_client

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/echonotes/web-backend/config"
	internal_capture "github.com/echonotes/web-backend/internal/capture"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/types"
)

// NoteServiceClient is the HTTP persistence collaborator the capture
// workflow submits through. It speaks the same multipart contract a browser
// client would, authenticated with the principal's bearer token.
type NoteServiceClient interface {
	internal_capture.Persistence
}

type noteServiceClient struct {
	cfg    *config.AppConfig
	logger commons.Logger
	client *resty.Client
}

func NewNoteServiceClient(cfg *config.AppConfig, logger commons.Logger) NoteServiceClient {
	client := resty.New().
		SetBaseURL(cfg.NoteServiceHost).
		SetTimeout(30 * time.Second)
	return &noteServiceClient{
		cfg:    cfg,
		logger: logger,
		client: client,
	}
}

func (c *noteServiceClient) CreateNote(ctx context.Context, auth types.SimplePrinciple, payload *internal_capture.CreateNotePayload) error {
	req := c.client.R().
		SetContext(ctx).
		SetAuthToken(auth.GetToken()).
		SetFormData(map[string]string{
			"title":      payload.Title,
			"content":    payload.Content,
			"transcript": payload.Transcript,
		})

	for _, img := range payload.Images {
		req.SetFileReader("images", img.Name, bytes.NewReader(img.Data))
	}
	if payload.Audio != nil {
		req.SetFileReader("audio", payload.Audio.Name, bytes.NewReader(payload.Audio.Data))
	}

	resp, err := req.Post("/v1/notes")
	if err != nil {
		return fmt.Errorf("note service unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("note service rejected submission: status=%d body=%s",
			resp.StatusCode(), resp.String())
	}
	return nil
}
