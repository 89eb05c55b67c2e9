// Package settings holds the in-memory settings record and its validation rules.
package settings

import (
	"time"
)

const (
	DefaultIntervalSeconds = 15
	MinIntervalSeconds     = 3
	MaxIntervalSeconds     = 300
)

// PhotoType distinguishes externally hosted photos from ones uploaded to
// object storage.
type PhotoType string

const (
	PhotoTypeURL     PhotoType = "url"
	PhotoTypeStorage PhotoType = "storage"
)

type Photo struct {
	ID   int64     `json:"id"`
	URL  string    `json:"url"`
	Type PhotoType `json:"type"`
	// Path is the object-storage key, set only for storage photos. Needed
	// for deletion.
	Path string `json:"path,omitempty"`
}

type YoutubeVideo struct {
	ID      int64  `json:"id"`
	VideoID string `json:"videoId"`
	URL     string `json:"url"`
}

// Record is the single persisted settings document for the TV display.
type Record struct {
	IntervalSeconds int            `json:"interval_seconds"`
	Photos          []Photo        `json:"photos"`
	YoutubeVideos   []YoutubeVideo `json:"youtube_videos"`
	BGMURL          string         `json:"bgm_url"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DefaultRecord returns the record persisted on first-ever load.
func DefaultRecord() *Record {
	return &Record{
		IntervalSeconds: DefaultIntervalSeconds,
		Photos:          []Photo{},
		YoutubeVideos:   []YoutubeVideo{},
	}
}

// Clone returns a deep copy so callers can snapshot state before an
// optimistic mutation.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Photos = make([]Photo, len(r.Photos))
	copy(clone.Photos, r.Photos)
	clone.YoutubeVideos = make([]YoutubeVideo, len(r.YoutubeVideos))
	copy(clone.YoutubeVideos, r.YoutubeVideos)
	return &clone
}
