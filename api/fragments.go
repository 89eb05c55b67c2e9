package api

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aouyang1/tvsettings/settings"
)

// HTML fragments consumed by the htmx admin page.

func (ws *WebServer) handleUIPhotos(c *gin.Context) {
	ws.renderPhotoGrid(c)
}

func (ws *WebServer) handleUIVideos(c *gin.Context) {
	ws.renderVideoGrid(c)
}

func (ws *WebServer) renderPhotoGrid(c *gin.Context) {
	record := ws.ctrl.Snapshot()

	out := fmt.Sprintf("<div class=\"grid-header\">Photos (%d)</div>\n", len(record.Photos))
	if len(record.Photos) == 0 {
		out += "<p class=\"empty-msg\">No photos yet</p>\n"
	}
	for _, photo := range record.Photos {
		badge := "URL"
		if photo.Type == settings.PhotoTypeStorage {
			badge = "Storage"
		}
		out += fmt.Sprintf(
			"<div class=\"photo-item\">\n"+
				"  <img src=\"%s\" alt=\"photo %d\" class=\"photo-thumbnail\" />\n"+
				"  <span class=\"photo-badge\">%s</span>\n"+
				"  <button class=\"delete-btn\" hx-delete=\"/photos/%d\" hx-target=\"#photo-list\" hx-swap=\"innerHTML\" hx-confirm=\"Delete this photo?\">&times;</button>\n"+
				"</div>\n",
			html.EscapeString(photo.URL), photo.ID, badge, photo.ID,
		)
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

func (ws *WebServer) renderVideoGrid(c *gin.Context) {
	record := ws.ctrl.Snapshot()

	out := fmt.Sprintf("<div class=\"grid-header\">Videos (%d)</div>\n", len(record.YoutubeVideos))
	if len(record.YoutubeVideos) == 0 {
		out += "<p class=\"empty-msg\">No videos yet</p>\n"
	}
	for _, video := range record.YoutubeVideos {
		out += fmt.Sprintf(
			"<div class=\"photo-item youtube-item\">\n"+
				"  <a href=\"https://www.youtube.com/watch?v=%s\" target=\"_blank\">"+
				"<img src=\"https://img.youtube.com/vi/%s/mqdefault.jpg\" alt=\"video %d\" class=\"photo-thumbnail\" /></a>\n"+
				"  <span class=\"photo-badge badge-youtube\">YouTube</span>\n"+
				"  <button class=\"delete-btn\" hx-delete=\"/videos/%d\" hx-target=\"#video-list\" hx-swap=\"innerHTML\" hx-confirm=\"Delete this video?\">&times;</button>\n"+
				"</div>\n",
			html.EscapeString(video.VideoID), html.EscapeString(video.VideoID), video.ID, video.ID,
		)
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

func (ws *WebServer) renderBGMStatus(c *gin.Context) {
	record := ws.ctrl.Snapshot()

	out := "<span>None</span>"
	if record.BGMURL != "" {
		videoID := settings.ExtractYoutubeID(record.BGMURL)
		out = fmt.Sprintf(
			"<a href=\"https://www.youtube.com/watch?v=%s\" target=\"_blank\">Current background music</a>",
			html.EscapeString(videoID),
		)
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}
