// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_note_service

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/echonotes/web-backend/config"
	internal_entity "github.com/echonotes/web-backend/internal/entity"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
	"github.com/echonotes/web-backend/pkg/types"
)

const fakeStoreBase = "http://assets.test"

// fakeStorage records every put and delete so tests can assert the blob
// lifecycle without a real object store.
type fakeStorage struct {
	mu        sync.Mutex
	puts      map[string][]byte
	deleted   []string
	putErr    error
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{puts: map[string][]byte{}}
}

func (f *fakeStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts[key] = data
	return fakeStoreBase + "/" + key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func (f *fakeStorage) KeyFromURL(url string) string {
	if !strings.HasPrefix(url, fakeStoreBase+"/") {
		return ""
	}
	return strings.TrimPrefix(url, fakeStoreBase+"/")
}

func (f *fakeStorage) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := append([]string{}, f.deleted...)
	sort.Strings(keys)
	return keys
}

func newTestLogger(t *testing.T) commons.Logger {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-notes"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return logger
}

func newTestService(t *testing.T) (NoteService, *fakeStorage) {
	t.Helper()
	logger := newTestLogger(t)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notes.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	postgres := connectors.NewGormConnector(db, logger)
	if err := postgres.Migrate(&internal_entity.Note{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	storage := newFakeStorage()
	return NewNoteService(&config.AppConfig{}, logger, postgres, storage), storage
}

func principal(userId uint64) types.SimplePrinciple {
	return &types.UserPrinciple{UserId: userId, Email: "someone@example.com"}
}

func TestCreateNoteStoresBlobsAndPersists(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, principal(1), &CreateNoteInput{
		Title:      "groceries",
		Content:    "buy milk",
		Transcript: "buy milk ",
		Images: []Upload{
			{Name: "a.png", ContentType: "image/png", Data: []byte{0x01}},
			{Name: "b.jpg", ContentType: "image/jpeg", Data: []byte{0x02}},
		},
		Audio: &Upload{Name: "recording.wav", ContentType: "audio/wav", Data: []byte{0x03}},
	})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	assert.NotZero(t, note.Id)
	assert.Equal(t, "groceries", note.Title)
	assert.Len(t, note.Images, 2)
	assert.NotEmpty(t, note.Audio)
	assert.False(t, note.CreatedDate.IsZero())
	// Blobs land under their kind prefix, ordered as uploaded.
	assert.Contains(t, note.Images[0], fakeStoreBase+"/notes/images/")
	assert.True(t, strings.HasSuffix(note.Images[0], ".png"))
	assert.True(t, strings.HasSuffix(note.Images[1], ".jpg"))
	assert.Contains(t, note.Audio, fakeStoreBase+"/notes/audio/")
	assert.Len(t, storage.puts, 3)
}

func TestCreateNoteFailsWhenStorageFails(t *testing.T) {
	svc, storage := newTestService(t)
	storage.putErr = errors.New("bucket gone")

	_, err := svc.CreateNote(context.Background(), principal(1), &CreateNoteInput{
		Images: []Upload{{Name: "a.png", Data: []byte{0x01}}},
	})
	assert.Error(t, err)

	notes, err := svc.ListNotes(context.Background(), principal(1))
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	assert.Empty(t, notes)
}

func TestListNotesScopedToUserNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []struct {
		user  uint64
		title string
	}{
		{1, "first"},
		{1, "second"},
		{2, "other user"},
	} {
		if _, err := svc.CreateNote(ctx, principal(in.user), &CreateNoteInput{Title: in.title}); err != nil {
			t.Fatalf("CreateNote failed: %v", err)
		}
	}

	notes, err := svc.ListNotes(ctx, principal(1))
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if assert.Len(t, notes, 2) {
		for _, n := range notes {
			assert.Equal(t, uint64(1), n.UserId)
		}
		assert.False(t, notes[0].CreatedDate.Before(notes[1].CreatedDate))
	}
}

func TestUpdateNoteMergesKeptAndNewImages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, principal(1), &CreateNoteInput{
		Title: "draft",
		Images: []Upload{
			{Name: "keep.png", Data: []byte{0x01}},
			{Name: "drop.png", Data: []byte{0x02}},
		},
	})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	updated, err := svc.UpdateNote(ctx, principal(1), note.Id, &UpdateNoteInput{
		Title:          "final",
		Content:        "done",
		IsFavorite:     true,
		ExistingImages: []string{note.Images[0]},
		NewImages:      []Upload{{Name: "new.png", Data: []byte{0x03}}},
	})
	if err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}

	assert.Equal(t, "final", updated.Title)
	assert.True(t, updated.IsFavorite)
	if assert.Len(t, updated.Images, 2) {
		// Kept images stay in front, new uploads append after.
		assert.Equal(t, note.Images[0], updated.Images[0])
		assert.True(t, strings.HasSuffix(updated.Images[1], ".png"))
		assert.NotEqual(t, note.Images[1], updated.Images[1])
	}
	assert.False(t, updated.UpdatedDate.IsZero())
}

func TestUpdateNoteOfAnotherUserNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, principal(1), &CreateNoteInput{Title: "mine"})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	_, err = svc.UpdateNote(ctx, principal(2), note.Id, &UpdateNoteInput{Title: "theirs"})
	assert.ErrorIs(t, err, ErrNoteNotFound)

	err = svc.DeleteNote(ctx, principal(2), note.Id)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestDeleteNoteRemovesRowAndBlobs(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, principal(1), &CreateNoteInput{
		Title:  "trash me",
		Images: []Upload{{Name: "a.png", Data: []byte{0x01}}},
		Audio:  &Upload{Name: "recording.wav", Data: []byte{0x02}},
	})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	if err := svc.DeleteNote(ctx, principal(1), note.Id); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}

	notes, err := svc.ListNotes(ctx, principal(1))
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	assert.Empty(t, notes)

	var want []string
	for key := range storage.puts {
		want = append(want, key)
	}
	sort.Strings(want)
	assert.Equal(t, want, storage.deletedKeys())
}

func TestDeleteNoteSurvivesBlobCleanupFailure(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, principal(1), &CreateNoteInput{
		Title:  "half gone",
		Images: []Upload{{Name: "a.png", Data: []byte{0x01}}},
	})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	storage.deleteErr = errors.New("object store down")
	assert.NoError(t, svc.DeleteNote(ctx, principal(1), note.Id))

	notes, err := svc.ListNotes(ctx, principal(1))
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	assert.Empty(t, notes)
}

func TestDeleteNoteSkipsForeignBlobURLs(t *testing.T) {
	svc, storage := newTestService(t)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, principal(1), &CreateNoteInput{Title: "linked"})
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	// Simulate an externally hosted image reference.
	note.Images = []string{"https://elsewhere.test/pic.png"}
	updated, err := svc.UpdateNote(ctx, principal(1), note.Id, &UpdateNoteInput{
		Title:          note.Title,
		ExistingImages: note.Images,
	})
	if err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}

	if err := svc.DeleteNote(ctx, principal(1), updated.Id); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	assert.Empty(t, storage.deletedKeys())
}
