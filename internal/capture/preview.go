// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/echonotes/web-backend/pkg/commons"
)

// localPreviewer materializes previews as files under a scratch directory
// served at baseURL. Release deletes the file, mirroring the revocation of a
// browser object URL.
type localPreviewer struct {
	logger  commons.Logger
	dir     string
	baseURL string
}

func NewLocalPreviewer(logger commons.Logger, dir, baseURL string) (Previewer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory %s: %w", dir, err)
	}
	return &localPreviewer{logger: logger, dir: dir, baseURL: baseURL}, nil
}

func (p *localPreviewer) Preview(name string, data []byte) (string, func(), error) {
	key := uuid.New().String() + filepath.Ext(name)
	path := filepath.Join(p.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to write preview %s: %w", path, err)
	}
	release := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.Warnf("preview cleanup failed: path=%s err=%v", path, err)
		}
	}
	return p.baseURL + "/" + key, release, nil
}
