package settings

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"regexp"
	"strings"
	"time"

	// Decoders for the fetch-as-image URL check.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ImageCheckTimeout bounds the fetch-as-image validation of a photo URL.
const ImageCheckTimeout = 5 * time.Second

// ValidationError reports malformed operator input. It never reaches the
// remote backend.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ValidateInterval checks the slideshow interval range.
func ValidateInterval(seconds int) error {
	if seconds < MinIntervalSeconds || seconds > MaxIntervalSeconds {
		return validationErrorf("interval must be between %d and %d seconds, got %d",
			MinIntervalSeconds, MaxIntervalSeconds, seconds)
	}
	return nil
}

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&?/]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^&?/]+)`),
}

// ExtractYoutubeID pulls the video id out of a watch, short, embed, or
// shorts link. Returns an empty string when the URL matches none of them.
func ExtractYoutubeID(url string) string {
	for _, pattern := range youtubePatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// ValidateYoutubeURL extracts the video id or rejects the URL.
func ValidateYoutubeURL(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", validationErrorf("youtube url is required")
	}
	videoID := ExtractYoutubeID(url)
	if videoID == "" {
		return "", validationErrorf("not a valid youtube url: %s", url)
	}
	return videoID, nil
}

// ImageChecker verifies a photo URL actually serves a decodable image.
type ImageChecker interface {
	CheckImageURL(ctx context.Context, url string) bool
}

// HTTPImageChecker fetches the URL and decodes the image header, bounded by
// ImageCheckTimeout. Timeout, transport failure, and decode failure all
// count as invalid.
type HTTPImageChecker struct {
	Client *http.Client
}

func NewHTTPImageChecker() *HTTPImageChecker {
	return &HTTPImageChecker{Client: &http.Client{}}
}

func (c *HTTPImageChecker) CheckImageURL(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, ImageCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	_, _, err = image.DecodeConfig(resp.Body)
	return err == nil
}

// ValidatePhotoURL applies the cheap format check. The network image check
// runs separately so invalid schemes are rejected without any network call.
func ValidatePhotoURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return validationErrorf("image url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return validationErrorf("image url must start with http:// or https://")
	}
	return nil
}
