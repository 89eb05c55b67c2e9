// Package api is the admin settings web server
package api

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aouyang1/tvsettings/admin"
	"github.com/aouyang1/tvsettings/api/models"
	"github.com/aouyang1/tvsettings/settings"
)

//go:embed web/templates/*
var webFiles embed.FS

// ChangeFeed delivers each saved settings record to playback subscribers.
type ChangeFeed interface {
	SubscribeToChanges(fn func(*settings.Record)) func()
}

type WebServer struct {
	router *gin.Engine
	ctrl   *admin.Controller
	feed   ChangeFeed
}

func NewWebServer(ctrl *admin.Controller, feed ChangeFeed) *WebServer {
	router := gin.Default()

	ws := &WebServer{
		router: router,
		ctrl:   ctrl,
		feed:   feed,
	}

	// Setup routes
	ws.setupRoutes()

	return ws
}

func (ws *WebServer) setupRoutes() {
	templatesFS, err := fs.Sub(webFiles, "web/templates")
	if err != nil {
		log.Fatalf("Failed to create templates filesystem: %v", err)
	}

	// UI routes
	ws.router.GET("/", ws.servePage(templatesFS, "index.html"))
	ws.router.GET("/tv", ws.servePage(templatesFS, "tv.html"))
	ws.router.GET("/ui/photos", ws.handleUIPhotos)
	ws.router.GET("/ui/videos", ws.handleUIVideos)

	// API routes
	ws.router.GET("/settings", ws.handleGetSettings)
	ws.router.PUT("/settings/interval", ws.handleSaveInterval)
	ws.router.POST("/photos/url", ws.handleAddPhotoByURL)
	ws.router.POST("/photos/upload", ws.handleUploadPhotos)
	ws.router.DELETE("/photos/:id", ws.handleDeletePhoto)
	ws.router.POST("/videos", ws.handleAddVideo)
	ws.router.DELETE("/videos/:id", ws.handleDeleteVideo)
	ws.router.PUT("/bgm", ws.handleSetBGM)
	ws.router.DELETE("/bgm", ws.handleRemoveBGM)
	ws.router.GET("/status", ws.handleStatus)
	ws.router.GET("/tv/url", ws.handleTVURL)

	// Change feed for the playback client
	ws.router.GET("/ws", ws.handleChangeFeed)
}

func (ws *WebServer) servePage(templatesFS fs.FS, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := fs.ReadFile(templatesFS, name)
		if err != nil {
			slog.Error("failed to read page", "name", name, "error", err)
			c.String(http.StatusInternalServerError, "Failed to load %s", name)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	}
}

// Handler returns the underlying http handler for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

func (ws *WebServer) Start(addr string) {
	log.Printf("Starting web server on %s", addr)
	if err := ws.router.Run(addr); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}

// writeActionError maps controller errors onto HTTP responses, honoring the
// htmx fragment contract for form-driven requests.
func (ws *WebServer) writeActionError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var vErr *settings.ValidationError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.Is(err, admin.ErrImageUnreachable):
		status = http.StatusBadRequest
	case errors.Is(err, admin.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, admin.ErrSaveFailed), errors.Is(err, admin.ErrNoUploads):
		status = http.StatusBadGateway
	}

	if isHTMX(c) {
		c.String(status, "Error: "+err.Error())
		return
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error()})
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, ws.ctrl.Snapshot())
}

func (ws *WebServer) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, ws.ctrl.SyncStatus())
}

func (ws *WebServer) handleSaveInterval(c *gin.Context) {
	var req models.IntervalRequest

	if isHTMX(c) {
		// htmx posts the bare form field
		v, err := strconv.Atoi(c.PostForm("interval_seconds"))
		if err != nil {
			c.String(http.StatusBadRequest, "Error: interval must be a whole number of seconds")
			return
		}
		req.IntervalSeconds = v
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if err := ws.ctrl.SaveInterval(c.Request.Context(), req.IntervalSeconds); err != nil {
		ws.writeActionError(c, err)
		return
	}

	if isHTMX(c) {
		c.String(http.StatusOK, "Interval saved: %d seconds", req.IntervalSeconds)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Interval saved: %d seconds", req.IntervalSeconds),
	})
}

func (ws *WebServer) handleAddPhotoByURL(c *gin.Context) {
	var req models.PhotoURLRequest

	if isHTMX(c) {
		req.URL = c.PostForm("url")
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	photo, err := ws.ctrl.AddPhotoByURL(c.Request.Context(), req.URL)
	if err != nil {
		ws.writeActionError(c, err)
		return
	}

	if isHTMX(c) {
		ws.renderPhotoGrid(c)
		return
	}
	c.JSON(http.StatusOK, models.PhotoResponse{Photo: photo, Message: "Photo added"})
}

func (ws *WebServer) handleUploadPhotos(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		if isHTMX(c) {
			c.String(http.StatusBadRequest, "Error: No files provided")
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No files provided"})
		return
	}

	headers := form.File["files"]
	uploads := make([]admin.FileUpload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, admin.FileUpload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	count, err := ws.ctrl.AddPhotosFromFiles(c.Request.Context(), uploads)
	if err != nil {
		ws.writeActionError(c, err)
		return
	}

	if isHTMX(c) {
		ws.renderPhotoGrid(c)
		return
	}
	c.JSON(http.StatusOK, models.UploadResponse{
		Uploaded: count,
		Message:  fmt.Sprintf("%d photo(s) uploaded", count),
	})
}

func (ws *WebServer) handleDeletePhoto(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid photo id"})
		return
	}

	if err := ws.ctrl.DeletePhoto(c.Request.Context(), id); err != nil {
		ws.writeActionError(c, err)
		return
	}

	if isHTMX(c) {
		ws.renderPhotoGrid(c)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Photo deleted"})
}

func (ws *WebServer) handleAddVideo(c *gin.Context) {
	var req models.VideoRequest

	if isHTMX(c) {
		req.URL = c.PostForm("url")
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	video, err := ws.ctrl.AddYoutubeVideo(c.Request.Context(), req.URL)
	if err != nil {
		ws.writeActionError(c, err)
		return
	}

	if isHTMX(c) {
		ws.renderVideoGrid(c)
		return
	}
	c.JSON(http.StatusOK, models.VideoResponse{Video: video, Message: "Video added"})
}

func (ws *WebServer) handleDeleteVideo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid video id"})
		return
	}

	if err := ws.ctrl.DeleteYoutubeVideo(c.Request.Context(), id); err != nil {
		ws.writeActionError(c, err)
		return
	}

	if isHTMX(c) {
		ws.renderVideoGrid(c)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Video deleted"})
}

func (ws *WebServer) handleSetBGM(c *gin.Context) {
	var req models.BGMRequest

	if isHTMX(c) {
		req.URL = c.PostForm("url")
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	if err := ws.ctrl.SetBGM(c.Request.Context(), req.URL); err != nil {
		ws.writeActionError(c, err)
		return
	}

	if isHTMX(c) {
		ws.renderBGMStatus(c)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Background music set"})
}

func (ws *WebServer) handleRemoveBGM(c *gin.Context) {
	if err := ws.ctrl.RemoveBGM(c.Request.Context()); err != nil {
		ws.writeActionError(c, err)
		return
	}

	if isHTMX(c) {
		ws.renderBGMStatus(c)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Background music removed"})
}

// handleTVURL computes the sibling playback page address from the current
// request, informational text for the operator to copy.
func (ws *WebServer) handleTVURL(c *gin.Context) {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	c.JSON(http.StatusOK, models.TVURLResponse{
		URL: fmt.Sprintf("%s://%s/tv", scheme, c.Request.Host),
	})
}
