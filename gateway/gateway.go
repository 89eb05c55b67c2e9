// Package gateway is the only component that talks to the persistence and
// object-storage backends. Every backend failure is caught here and
// converted to a success/failure boolean or nil result; callers never see a
// raw error cross this boundary.
package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aouyang1/tvsettings/settings"
	"github.com/aouyang1/tvsettings/util"
)

// photoPrefix scopes all uploaded objects inside the bucket.
const photoPrefix = "photos/"

// StoredObject is the result of a successful upload: the public retrieval
// URL and the storage path used for later deletion.
type StoredObject struct {
	URL  string
	Path string
}

type Gateway struct {
	rows    *RowStore
	objects ObjectStore
	hub     *Hub
}

func New(rows *RowStore, objects ObjectStore) *Gateway {
	return &Gateway{
		rows:    rows,
		objects: objects,
		hub:     NewHub(),
	}
}

// LoadSettings fetches the single settings row. A missing row and a load
// failure both come back as absent, signaling the caller to initialize
// defaults and save them.
func (g *Gateway) LoadSettings(ctx context.Context) (*settings.Record, bool) {
	record, err := g.rows.Get(ctx)
	if err != nil {
		slog.Warn("settings load failed, treating as absent", "error", err)
		return nil, false
	}
	if record == nil {
		return nil, false
	}
	return record, true
}

// SaveSettings performs the whole-record upsert, stamping UpdatedAt as part
// of the write. On success the new record is broadcast to change
// subscribers.
func (g *Gateway) SaveSettings(ctx context.Context, r *settings.Record) bool {
	r.UpdatedAt = time.Now().UTC()
	if err := g.rows.Upsert(ctx, r); err != nil {
		slog.Warn("settings save failed", "error", err)
		return false
	}
	g.hub.Broadcast(r)
	return true
}

// UploadFile stores a photo under the photos/ prefix with a
// collision-resistant object name and returns its public URL and storage
// path, or nil on failure.
func (g *Gateway) UploadFile(ctx context.Context, filename, contentType string, r io.Reader) *StoredObject {
	key := photoPrefix + objectName(filename)

	url, err := g.objects.Upload(ctx, key, contentType, r)
	if err != nil {
		slog.Warn("storage upload failed", "name", filename, "error", err)
		return nil
	}

	return &StoredObject{URL: url, Path: key}
}

// DeleteFile removes an object by storage path. An empty path or a full
// external URL means the photo was never backend-stored, so there is
// nothing to do and the delete counts as a success.
func (g *Gateway) DeleteFile(ctx context.Context, path string) bool {
	if path == "" || strings.HasPrefix(path, "http") {
		return true
	}

	if err := g.objects.Delete(ctx, path); err != nil {
		slog.Warn("storage delete failed, object orphaned", "path", path, "error", err)
		return false
	}
	return true
}

// SubscribeToChanges registers for push notification of settings changes.
// The callback receives the full new record on every successful save.
func (g *Gateway) SubscribeToChanges(fn func(*settings.Record)) func() {
	return g.hub.Subscribe(fn)
}

// objectName builds a collision-resistant object name from the upload
// timestamp, a random suffix, and the original file extension.
func objectName(filename string) string {
	suffix := uuid.NewString()[:8]
	ext := strings.ToLower(filepath.Ext(filename))
	if !util.SupportedImageExt.Contains(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), suffix, ext)
}
