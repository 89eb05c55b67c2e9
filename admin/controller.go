// Package admin implements the optimistic mutation protocol over the
// settings store: validate input, apply the change locally, persist the
// whole record through the gateway, and roll back to the pre-mutation
// snapshot when the save fails.
package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aouyang1/tvsettings/gateway"
	"github.com/aouyang1/tvsettings/settings"
)

var (
	// ErrSaveFailed reports a failed whole-record save after the in-memory
	// state has been rolled back.
	ErrSaveFailed = errors.New("failed to save settings")
	// ErrImageUnreachable reports a photo URL that did not resolve to a
	// decodable image within the check timeout.
	ErrImageUnreachable = errors.New("image could not be loaded from url")
	// ErrNotFound reports a delete targeting an id not in the record.
	ErrNotFound = errors.New("entry not found")
	// ErrNoUploads reports a multi-file upload where not a single file
	// made it to storage.
	ErrNoUploads = errors.New("no files were uploaded")
)

// Gateway is the persistence surface the controller mutates through.
type Gateway interface {
	LoadSettings(ctx context.Context) (*settings.Record, bool)
	SaveSettings(ctx context.Context, r *settings.Record) bool
	UploadFile(ctx context.Context, filename, contentType string, r io.Reader) *gateway.StoredObject
	DeleteFile(ctx context.Context, path string) bool
}

// FileUpload is one part of a multi-file photo upload.
type FileUpload struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Controller serializes every validate-mutate-persist sequence under one
// mutex, so a second admin action cannot interleave with an in-flight save.
type Controller struct {
	mu    sync.Mutex
	store *settings.Store
	gw    Gateway
	check settings.ImageChecker

	status      SyncState
	statusGen   int
	revertDelay time.Duration
}

func NewController(gw Gateway, check settings.ImageChecker) *Controller {
	if check == nil {
		check = settings.NewHTTPImageChecker()
	}
	return &Controller{
		store:       settings.NewStore(),
		gw:          gw,
		check:       check,
		status:      SyncState{Status: StatusLoading, Label: "loading"},
		revertDelay: savedRevertDelay,
	}
}

// Load pulls the persisted record into the store. On first-ever run the
// gateway reports absent and the defaults are written back with exactly one
// save.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setStatus(StatusLoading, "loading")

	record, ok := c.gw.LoadSettings(ctx)
	if ok {
		c.store.Load(record)
		c.setStatus(StatusConnected, "connected")
		return nil
	}

	// First run - persist the defaults so the playback client has a row to
	// subscribe to.
	c.store.Load(settings.DefaultRecord())
	if !c.gw.SaveSettings(ctx, c.store.Snapshot()) {
		c.setStatus(StatusError, "save failed")
		return ErrSaveFailed
	}
	c.setStatus(StatusConnected, "connected (new)")
	return nil
}

// Snapshot returns a copy of the current record for rendering.
func (c *Controller) Snapshot() *settings.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

// SaveInterval validates and persists a new slideshow interval.
func (c *Controller) SaveInterval(ctx context.Context, seconds int) error {
	if err := settings.ValidateInterval(seconds); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.store.Snapshot()
	c.store.SetInterval(seconds)

	if !c.persist(ctx) {
		c.store.Restore(prev)
		return ErrSaveFailed
	}
	return nil
}

// AddPhotoByURL validates the URL format, verifies the image actually
// loads, then appends and persists the photo.
func (c *Controller) AddPhotoByURL(ctx context.Context, url string) (settings.Photo, error) {
	url = strings.TrimSpace(url)
	if err := settings.ValidatePhotoURL(url); err != nil {
		return settings.Photo{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.setStatus(StatusLoading, "checking image")
	if !c.check.CheckImageURL(ctx, url) {
		c.setStatus(StatusConnected, "connected")
		return settings.Photo{}, ErrImageUnreachable
	}

	prev := c.store.Snapshot()
	photo := settings.Photo{
		ID:   c.store.NextID(),
		URL:  url,
		Type: settings.PhotoTypeURL,
	}
	c.store.AddPhoto(photo)

	if !c.persist(ctx) {
		c.store.Restore(prev)
		return settings.Photo{}, ErrSaveFailed
	}
	return photo, nil
}

// AddPhotosFromFiles uploads files sequentially, skipping any part whose
// declared media type is not image/*. Each successful upload is appended to
// the local list; a single trailing save runs only if at least one upload
// succeeded. Returns the number of photos stored.
func (c *Controller) AddPhotosFromFiles(ctx context.Context, files []FileUpload) (int, error) {
	if len(files) == 0 {
		return 0, &settings.ValidationError{Msg: "no files provided"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.store.Snapshot()
	c.setStatus(StatusLoading, "uploading")

	success := 0
	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			continue
		}

		obj := c.uploadOne(ctx, f)
		if obj == nil {
			continue
		}

		c.store.AddPhoto(settings.Photo{
			ID:   c.store.NextID(),
			URL:  obj.URL,
			Type: settings.PhotoTypeStorage,
			Path: obj.Path,
		})
		success++
	}

	if success == 0 {
		// Nothing uploaded, nothing to save; local state is untouched.
		c.setStatus(StatusConnected, "connected")
		return 0, ErrNoUploads
	}

	if !c.persist(ctx) {
		c.store.Restore(prev)
		return 0, ErrSaveFailed
	}
	return success, nil
}

func (c *Controller) uploadOne(ctx context.Context, f FileUpload) *gateway.StoredObject {
	rc, err := f.Open()
	if err != nil {
		slog.Warn("unable to open upload part", "name", f.Name, "error", err)
		return nil
	}
	defer rc.Close()

	return c.gw.UploadFile(ctx, f.Name, f.ContentType, rc)
}

// DeletePhoto removes a photo by id. Storage-backed photos get exactly one
// storage-delete call with their path; a failed storage delete is logged and
// the record removal still proceeds, leaving the object orphaned.
func (c *Controller) DeletePhoto(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.store.Snapshot()

	photo, _, found := c.store.RemovePhoto(id)
	if !found {
		return ErrNotFound
	}

	if photo.Type == settings.PhotoTypeStorage {
		c.gw.DeleteFile(ctx, photo.Path)
	}

	if !c.persist(ctx) {
		c.store.Restore(prev)
		return ErrSaveFailed
	}
	return nil
}

// AddYoutubeVideo extracts and dedupes the video id, then appends and
// persists the video.
func (c *Controller) AddYoutubeVideo(ctx context.Context, url string) (settings.YoutubeVideo, error) {
	url = strings.TrimSpace(url)
	videoID, err := settings.ValidateYoutubeURL(url)
	if err != nil {
		return settings.YoutubeVideo{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.HasVideo(videoID) {
		return settings.YoutubeVideo{}, &settings.ValidationError{Msg: "video already added"}
	}

	prev := c.store.Snapshot()
	video := settings.YoutubeVideo{
		ID:      c.store.NextID(),
		VideoID: videoID,
		URL:     url,
	}
	c.store.AddVideo(video)

	if !c.persist(ctx) {
		c.store.Restore(prev)
		return settings.YoutubeVideo{}, ErrSaveFailed
	}
	return video, nil
}

func (c *Controller) DeleteYoutubeVideo(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.store.Snapshot()

	if _, _, found := c.store.RemoveVideo(id); !found {
		return ErrNotFound
	}

	if !c.persist(ctx) {
		c.store.Restore(prev)
		return ErrSaveFailed
	}
	return nil
}

// SetBGM overwrites the single background-music slot. Duplicates are fine
// here, the slot just gets replaced.
func (c *Controller) SetBGM(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if _, err := settings.ValidateYoutubeURL(url); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.store.Snapshot()
	c.store.SetBGM(url)

	if !c.persist(ctx) {
		c.store.Restore(prev)
		return ErrSaveFailed
	}
	return nil
}

func (c *Controller) RemoveBGM(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.BGM() == "" {
		return &settings.ValidationError{Msg: "no background music is set"}
	}

	prev := c.store.Snapshot()
	c.store.ClearBGM()

	if !c.persist(ctx) {
		c.store.Restore(prev)
		return ErrSaveFailed
	}
	return nil
}

// persist runs the whole-record save and drives the sync indicator.
// Callers must hold c.mu and roll the store back when it returns false.
func (c *Controller) persist(ctx context.Context) bool {
	c.setStatus(StatusLoading, "saving")
	if !c.gw.SaveSettings(ctx, c.store.Snapshot()) {
		c.setStatus(StatusError, "save failed")
		return false
	}
	c.showSaved()
	return true
}
