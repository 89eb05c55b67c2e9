package client

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aouyang1/tvsettings/admin"
	"github.com/aouyang1/tvsettings/api"
	"github.com/aouyang1/tvsettings/gateway"
	"github.com/aouyang1/tvsettings/settings"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type discardObjectStore struct{}

func (discardObjectStore) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	io.Copy(io.Discard, r)
	return "https://storage.example.com/" + key, nil
}

func (discardObjectStore) Delete(ctx context.Context, key string) error { return nil }

func newTestService(t *testing.T) (*httptest.Server, *admin.Controller) {
	t.Helper()

	rows, err := gateway.NewRowStore(filepath.Join(t.TempDir(), "tvsettings.db"))
	if err != nil {
		t.Fatalf("failed to create row store: %v", err)
	}
	t.Cleanup(func() { rows.Close() })

	gw := gateway.New(rows, discardObjectStore{})
	ctrl := admin.NewController(gw, nil)
	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}

	srv := httptest.NewServer(api.NewWebServer(ctrl, gw).Handler())
	t.Cleanup(srv.Close)

	return srv, ctrl
}

func TestGetSettings(t *testing.T) {
	srv, ctrl := newTestService(t)

	if err := ctrl.SaveInterval(context.Background(), 45); err != nil {
		t.Fatalf("failed to save interval: %v", err)
	}

	sc := NewSettingsClient(srv.URL)
	record, err := sc.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if record.IntervalSeconds != 45 {
		t.Errorf("expected interval 45, got %d", record.IntervalSeconds)
	}
}

func TestGetTVURL(t *testing.T) {
	srv, _ := newTestService(t)

	sc := NewSettingsClient(srv.URL)
	url, err := sc.GetTVURL(context.Background())
	if err != nil {
		t.Fatalf("failed to get tv url: %v", err)
	}
	if url != srv.URL+"/tv" {
		t.Errorf("expected %s/tv, got %q", srv.URL, url)
	}
}

func TestSubscribeChangesSeedAndUpdate(t *testing.T) {
	srv, ctrl := newTestService(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	records := make(chan *settings.Record, 4)
	done := make(chan error, 1)

	sc := NewSettingsClient(srv.URL)
	go func() {
		done <- sc.SubscribeChanges(ctx, func(r *settings.Record) {
			records <- r
		})
	}()

	// The feed opens with the current record.
	select {
	case r := <-records:
		if r.IntervalSeconds != settings.DefaultIntervalSeconds {
			t.Errorf("expected seed record with default interval, got %d", r.IntervalSeconds)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for seed record")
	}

	if err := ctrl.SaveInterval(context.Background(), 60); err != nil {
		t.Fatalf("failed to save interval: %v", err)
	}

	select {
	case r := <-records:
		if r.IntervalSeconds != 60 {
			t.Errorf("expected updated interval 60, got %d", r.IntervalSeconds)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for updated record")
	}

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Error("expected subscribe to report cancellation")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for subscribe to return")
	}
}
