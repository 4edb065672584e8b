// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import (
	"sync"

	"github.com/echonotes/web-backend/pkg/commons"
)

// SoftAttachmentCap is advisory only: crossing it raises a user-facing
// warning, but attachments beyond the cap are retained. Product has not
// decided whether this should become a hard reject.
const SoftAttachmentCap = 5

// File is a raw attachment handed to the accumulator.
type File struct {
	Name string
	Data []byte
}

// PendingImage is an attachment awaiting submission together with its
// derived preview resource. The preview is scoped to the entry's lifetime
// and is released exactly once, on removal or when the accumulator clears.
type PendingImage struct {
	Name       string
	Data       []byte
	PreviewURL string

	release func()
	once    sync.Once
}

// Release frees the preview resource. Safe to call more than once.
func (p *PendingImage) Release() {
	p.once.Do(func() {
		if p.release != nil {
			p.release()
		}
	})
}

// Previewer derives a revocable preview resource for an attachment. The
// returned release func undoes whatever Preview allocated.
type Previewer interface {
	Preview(name string, data []byte) (url string, release func(), err error)
}

// Attachments is the ordered, mutable collection of pending images.
type Attachments struct {
	logger    commons.Logger
	previewer Previewer
	onWarn    func(count int)

	mu      sync.Mutex
	entries []*PendingImage
	warned  bool
}

// NewAttachments builds an empty accumulator. onWarn fires once when the
// count first crosses the soft cap; it may be nil.
func NewAttachments(logger commons.Logger, previewer Previewer, onWarn func(count int)) *Attachments {
	return &Attachments{
		logger:    logger,
		previewer: previewer,
		onWarn:    onWarn,
	}
}

// Add appends the given files in order, deriving a preview for each. No
// dedup is performed. Files whose preview cannot be derived are skipped
// with a logged warning rather than failing the batch.
func (a *Attachments) Add(files ...File) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, f := range files {
		entry := &PendingImage{Name: f.Name, Data: f.Data}
		if a.previewer != nil {
			url, release, err := a.previewer.Preview(f.Name, f.Data)
			if err != nil {
				a.logger.Warnf("attachment preview failed: name=%s err=%v", f.Name, err)
				continue
			}
			entry.PreviewURL = url
			entry.release = release
		}
		a.entries = append(a.entries, entry)
	}

	if !a.warned && len(a.entries) > SoftAttachmentCap {
		a.warned = true
		if a.onWarn != nil {
			a.onWarn(len(a.entries))
		}
	}
}

// RemoveAt removes the entry at index and releases its preview. Subsequent
// entries shift down. Out-of-range indices are a silent no-op.
func (a *Attachments) RemoveAt(index int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.entries) {
		return
	}
	a.entries[index].Release()
	a.entries = append(a.entries[:index], a.entries[index+1:]...)
}

// Items returns a snapshot of the current entries in order.
func (a *Attachments) Items() []*PendingImage {
	a.mu.Lock()
	defer a.mu.Unlock()
	items := make([]*PendingImage, len(a.entries))
	copy(items, a.entries)
	return items
}

func (a *Attachments) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// ReleaseAll releases every preview and empties the collection. Called on
// submit success and session abandonment so un-revoked previews cannot
// accumulate.
func (a *Attachments) ReleaseAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		e.Release()
	}
	a.entries = nil
	a.warned = false
}
