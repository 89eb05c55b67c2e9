package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/aouyang1/tvsettings/admin"
	"github.com/aouyang1/tvsettings/gateway"
	"github.com/aouyang1/tvsettings/settings"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryObjectStore struct {
	uploaded map[string]string
	deleted  []string
}

func (m *memoryObjectStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.uploaded[key] = string(data)
	return "https://storage.example.com/" + key, nil
}

func (m *memoryObjectStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

type alwaysValidChecker struct{}

func (alwaysValidChecker) CheckImageURL(ctx context.Context, url string) bool { return true }

func newTestServer(t *testing.T) (*httptest.Server, *admin.Controller, *memoryObjectStore) {
	t.Helper()

	rows, err := gateway.NewRowStore(filepath.Join(t.TempDir(), "tvsettings.db"))
	if err != nil {
		t.Fatalf("failed to create row store: %v", err)
	}
	t.Cleanup(func() { rows.Close() })

	objects := &memoryObjectStore{uploaded: make(map[string]string)}
	gw := gateway.New(rows, objects)
	ctrl := admin.NewController(gw, alwaysValidChecker{})
	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}

	srv := httptest.NewServer(NewWebServer(ctrl, gw).Handler())
	t.Cleanup(srv.Close)

	return srv, ctrl, objects
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestGetSettingsFirstRunDefaults(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/settings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var record settings.Record
	decodeInto(t, resp, &record)

	if record.IntervalSeconds != settings.DefaultIntervalSeconds {
		t.Errorf("expected default interval, got %d", record.IntervalSeconds)
	}
	if len(record.Photos) != 0 || len(record.YoutubeVideos) != 0 {
		t.Errorf("expected empty collections, got %+v", record)
	}
}

func TestStatusAfterFirstRun(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/status", nil)
	var state admin.SyncState
	decodeInto(t, resp, &state)

	if state.Status != admin.StatusConnected || state.Label != "connected (new)" {
		t.Errorf("expected connected (new), got %+v", state)
	}
}

func TestSaveIntervalEndpoint(t *testing.T) {
	srv, ctrl, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/settings/interval", map[string]int{"interval_seconds": 301})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range interval, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, srv.URL+"/settings/interval", map[string]int{"interval_seconds": 30})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for valid interval, got %d", resp.StatusCode)
	}

	if ctrl.Snapshot().IntervalSeconds != 30 {
		t.Errorf("expected interval persisted, got %d", ctrl.Snapshot().IntervalSeconds)
	}
}

func TestAddPhotoByURLEndpoint(t *testing.T) {
	srv, ctrl, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/photos/url", map[string]string{"url": "ftp://example.com/a.png"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad scheme, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/photos/url", map[string]string{"url": "https://example.com/a.png"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	record := ctrl.Snapshot()
	if len(record.Photos) != 1 || record.Photos[0].Type != settings.PhotoTypeURL {
		t.Errorf("expected one url photo, got %+v", record.Photos)
	}
}

func TestVideoEndpoints(t *testing.T) {
	srv, ctrl, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/videos", map[string]string{"url": "https://youtu.be/abc123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var added struct {
		Video settings.YoutubeVideo `json:"video"`
	}
	decodeInto(t, resp, &added)

	resp = doJSON(t, http.MethodPost, srv.URL+"/videos", map[string]string{"url": "https://youtu.be/abc123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate video, got %d", resp.StatusCode)
	}
	if len(ctrl.Snapshot().YoutubeVideos) != 1 {
		t.Errorf("expected exactly one video, got %+v", ctrl.Snapshot().YoutubeVideos)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/videos/%d", srv.URL, added.Video.ID), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for delete, got %d", resp.StatusCode)
	}
	if len(ctrl.Snapshot().YoutubeVideos) != 0 {
		t.Error("expected video removed")
	}
}

func TestDeletePhotoBadID(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/photos/abc", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/photos/424242", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", resp.StatusCode)
	}
}

func TestUploadEndpointFiltersNonImages(t *testing.T) {
	srv, ctrl, objects := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	addPart := func(name, contentType, data string) {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, name))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		part.Write([]byte(data))
	}

	addPart("a.png", "image/png", "pngdata")
	addPart("notes.txt", "text/plain", "textdata")
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/photos/upload", &buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	var result struct {
		Uploaded int `json:"uploaded"`
	}
	decodeInto(t, resp, &result)

	if result.Uploaded != 1 {
		t.Errorf("expected 1 upload, got %d", result.Uploaded)
	}
	if len(objects.uploaded) != 1 {
		t.Errorf("expected 1 stored object, got %v", objects.uploaded)
	}

	record := ctrl.Snapshot()
	if len(record.Photos) != 1 || record.Photos[0].Type != settings.PhotoTypeStorage {
		t.Errorf("expected one storage photo, got %+v", record.Photos)
	}
	if !strings.HasPrefix(record.Photos[0].Path, "photos/") {
		t.Errorf("expected photos/ prefix, got %q", record.Photos[0].Path)
	}
}

func TestDeleteStoragePhotoIssuesStorageDelete(t *testing.T) {
	srv, ctrl, objects := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="a.png"`)
	h.Set("Content-Type", "image/png")
	part, _ := mw.CreatePart(h)
	part.Write([]byte("pngdata"))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/photos/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	resp.Body.Close()

	photo := ctrl.Snapshot().Photos[0]
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/photos/%d", srv.URL, photo.ID), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if len(objects.deleted) != 1 || objects.deleted[0] != photo.Path {
		t.Errorf("expected one storage delete with %q, got %v", photo.Path, objects.deleted)
	}
}

func TestBGMEndpoints(t *testing.T) {
	srv, ctrl, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/bgm", map[string]string{"url": "https://youtu.be/bgm001"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ctrl.Snapshot().BGMURL == "" {
		t.Error("expected bgm set")
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/bgm", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ctrl.Snapshot().BGMURL != "" {
		t.Error("expected bgm cleared")
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/bgm", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 removing unset bgm, got %d", resp.StatusCode)
	}
}

func TestTVURLDerivedFromRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/tv/url", nil)
	var result struct {
		URL string `json:"url"`
	}
	decodeInto(t, resp, &result)

	if result.URL != srv.URL+"/tv" {
		t.Errorf("expected %s/tv, got %q", srv.URL, result.URL)
	}
}
