// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_note_service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/echonotes/web-backend/config"
	internal_entity "github.com/echonotes/web-backend/internal/entity"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
	storage_files "github.com/echonotes/web-backend/pkg/storages/file-storage"
	"github.com/echonotes/web-backend/pkg/types"
)

var ErrNoteNotFound = errors.New("note not found")

// Upload is a binary part extracted from the multipart request.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

type CreateNoteInput struct {
	Title      string
	Content    string
	Transcript string
	Images     []Upload
	Audio      *Upload
}

type UpdateNoteInput struct {
	Title      string
	Content    string
	Transcript string
	IsFavorite bool
	// ExistingImages are the URLs the client kept; NewImages are appended
	// after them, preserving the original ordering contract.
	ExistingImages []string
	NewImages      []Upload
}

type NoteService interface {
	ListNotes(ctx context.Context, auth types.SimplePrinciple) ([]*internal_entity.Note, error)
	CreateNote(ctx context.Context, auth types.SimplePrinciple, in *CreateNoteInput) (*internal_entity.Note, error)
	UpdateNote(ctx context.Context, auth types.SimplePrinciple, noteId uint64, in *UpdateNoteInput) (*internal_entity.Note, error)
	DeleteNote(ctx context.Context, auth types.SimplePrinciple, noteId uint64) error
}

type noteService struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
	storage  storage_files.Storage
}

func NewNoteService(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector, storage storage_files.Storage) NoteService {
	return &noteService{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
		storage:  storage,
	}
}

// ListNotes returns the caller's notes, newest first.
func (s *noteService) ListNotes(ctx context.Context, auth types.SimplePrinciple) ([]*internal_entity.Note, error) {
	var notes []*internal_entity.Note
	err := s.postgres.DB(ctx).
		Where("user_id = ?", auth.GetUserId()).
		Order("created_date DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for user %d: %w", auth.GetUserId(), err)
	}
	return notes, nil
}

func (s *noteService) CreateNote(ctx context.Context, auth types.SimplePrinciple, in *CreateNoteInput) (*internal_entity.Note, error) {
	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		url, err := s.storage.Put(ctx, blobKey("notes/images", img.Name), img.Data, img.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		images = append(images, url)
	}

	audio := ""
	if in.Audio != nil {
		url, err := s.storage.Put(ctx, blobKey("notes/audio", in.Audio.Name), in.Audio.Data, in.Audio.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store audio: %w", err)
		}
		audio = url
	}

	note := &internal_entity.Note{
		Title:      in.Title,
		Content:    in.Content,
		Transcript: in.Transcript,
		Images:     images,
		Audio:      audio,
		UserId:     auth.GetUserId(),
	}
	if err := s.postgres.DB(ctx).Create(note).Error; err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.logger.Infof("note created: id=%d user=%d images=%d audio=%t",
		note.Id, note.UserId, len(images), audio != "")
	return note, nil
}

func (s *noteService) UpdateNote(ctx context.Context, auth types.SimplePrinciple, noteId uint64, in *UpdateNoteInput) (*internal_entity.Note, error) {
	note, err := s.findOwned(ctx, auth, noteId)
	if err != nil {
		return nil, err
	}

	images := append([]string{}, in.ExistingImages...)
	for _, img := range in.NewImages {
		url, err := s.storage.Put(ctx, blobKey("notes/images", img.Name), img.Data, img.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		images = append(images, url)
	}

	note.Title = in.Title
	note.Content = in.Content
	note.Transcript = in.Transcript
	note.IsFavorite = in.IsFavorite
	note.Images = images

	if err := s.postgres.DB(ctx).Save(note).Error; err != nil {
		return nil, fmt.Errorf("failed to update note %d: %w", noteId, err)
	}
	return note, nil
}

// DeleteNote removes the row, then deletes the stored blobs in parallel.
// Blob deletion is best effort: individual failures are logged, never
// surfaced, so a half-gone object store cannot make the note undeletable.
func (s *noteService) DeleteNote(ctx context.Context, auth types.SimplePrinciple, noteId uint64) error {
	note, err := s.findOwned(ctx, auth, noteId)
	if err != nil {
		return err
	}

	if err := s.postgres.DB(ctx).Delete(note).Error; err != nil {
		return fmt.Errorf("failed to delete note %d: %w", noteId, err)
	}

	urls := append([]string{}, note.Images...)
	if note.Audio != "" {
		urls = append(urls, note.Audio)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			key := s.storage.KeyFromURL(url)
			if key == "" {
				s.logger.Warnf("skipping foreign blob url on note %d: %s", noteId, url)
				return nil
			}
			if err := s.storage.Delete(gctx, key); err != nil {
				s.logger.Warnf("blob cleanup failed for note %d: key=%s err=%v", noteId, key, err)
			}
			return nil
		})
	}
	g.Wait()

	s.logger.Infof("note deleted: id=%d user=%d blobs=%d", noteId, auth.GetUserId(), len(urls))
	return nil
}

func (s *noteService) findOwned(ctx context.Context, auth types.SimplePrinciple, noteId uint64) (*internal_entity.Note, error) {
	var note internal_entity.Note
	err := s.postgres.DB(ctx).
		Where("id = ? AND user_id = ?", noteId, auth.GetUserId()).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load note %d: %w", noteId, err)
	}
	return &note, nil
}

func blobKey(prefix, name string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), filepath.Ext(name))
}
