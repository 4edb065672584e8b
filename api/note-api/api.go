package note_api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/echonotes/web-backend/api/middleware"
	"github.com/echonotes/web-backend/config"
	internal_note_service "github.com/echonotes/web-backend/internal/services/note"
	"github.com/echonotes/web-backend/pkg/commons"
	"github.com/echonotes/web-backend/pkg/connectors"
	storage_files "github.com/echonotes/web-backend/pkg/storages/file-storage"
)

// maxImagesPerRequest bounds the multipart surface, mirroring the upload
// middleware limit of the original API.
const maxImagesPerRequest = 5

type noteApi struct {
	cfg         *config.AppConfig
	logger      commons.Logger
	noteService internal_note_service.NoteService
}

func New(cfg *config.AppConfig, logger commons.Logger,
	postgres connectors.PostgresConnector, storage storage_files.Storage) *noteApi {
	return &noteApi{
		cfg:         cfg,
		logger:      logger,
		noteService: internal_note_service.NewNoteService(cfg, logger, postgres, storage),
	}
}

func (api *noteApi) GetNotes(c *gin.Context) {
	notes, err := api.noteService.ListNotes(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		api.logger.Errorf("list notes failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error fetching notes"})
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (api *noteApi) CreateNote(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid multipart payload"})
		return
	}

	images, err := readUploads(form.File["images"], maxImagesPerRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	audios, err := readUploads(form.File["audio"], 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	in := &internal_note_service.CreateNoteInput{
		Title:      c.PostForm("title"),
		Content:    c.PostForm("content"),
		Transcript: c.PostForm("transcript"),
		Images:     images,
	}
	if len(audios) > 0 {
		in.Audio = &audios[0]
	}

	note, err := api.noteService.CreateNote(c.Request.Context(), middleware.GetPrincipal(c), in)
	if err != nil {
		api.logger.Errorf("create note failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error creating note"})
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (api *noteApi) UpdateNote(c *gin.Context) {
	noteId, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid note id"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid multipart payload"})
		return
	}

	newImages, err := readUploads(form.File["newImages"], maxImagesPerRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var existingImages []string
	if raw := c.PostForm("existingImages"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &existingImages); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid existingImages"})
			return
		}
	}

	in := &internal_note_service.UpdateNoteInput{
		Title:          c.PostForm("title"),
		Content:        c.PostForm("content"),
		Transcript:     c.PostForm("transcript"),
		IsFavorite:     c.PostForm("isFavorite") == "true",
		ExistingImages: existingImages,
		NewImages:      newImages,
	}

	note, err := api.noteService.UpdateNote(c.Request.Context(), middleware.GetPrincipal(c), noteId, in)
	if err != nil {
		if errors.Is(err, internal_note_service.ErrNoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "note not found"})
			return
		}
		api.logger.Errorf("update note failed: id=%d err=%v", noteId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error updating note"})
		return
	}
	c.JSON(http.StatusOK, note)
}

func (api *noteApi) DeleteNote(c *gin.Context) {
	noteId, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid note id"})
		return
	}

	err = api.noteService.DeleteNote(c.Request.Context(), middleware.GetPrincipal(c), noteId)
	if err != nil {
		if errors.Is(err, internal_note_service.ErrNoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "note not found"})
			return
		}
		api.logger.Errorf("delete note failed: id=%d err=%v", noteId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error deleting note"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "note deleted successfully"})
}

func readUploads(headers []*multipart.FileHeader, max int) ([]internal_note_service.Upload, error) {
	if len(headers) > max {
		return nil, errors.New("too many files in field")
	}
	uploads := make([]internal_note_service.Upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, errors.New("unreadable upload")
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, errors.New("unreadable upload")
		}
		uploads = append(uploads, internal_note_service.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}
