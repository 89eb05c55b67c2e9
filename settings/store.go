package settings

import (
	"time"
)

// Store owns the authoritative in-memory snapshot of the settings record.
// It performs no validation; callers validate before mutating. The store is
// not safe for concurrent use on its own - the admin controller serializes
// access.
type Store struct {
	record *Record

	lastID int64
}

func NewStore() *Store {
	return &Store{record: DefaultRecord()}
}

// Load replaces the record wholesale, used on startup and when an external
// change arrives.
func (s *Store) Load(r *Record) {
	if r == nil {
		r = DefaultRecord()
	}
	if r.Photos == nil {
		r.Photos = []Photo{}
	}
	if r.YoutubeVideos == nil {
		r.YoutubeVideos = []YoutubeVideo{}
	}
	s.record = r
}

// Snapshot returns a deep copy of the current record.
func (s *Store) Snapshot() *Record {
	return s.record.Clone()
}

// Restore puts back a previously taken snapshot, rolling back an optimistic
// mutation whose save failed.
func (s *Store) Restore(r *Record) {
	s.Load(r)
}

// NextID derives a creation-time entity id, bumping on same-millisecond
// collisions so ids stay unique within the record.
func (s *Store) NextID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) SetInterval(seconds int) {
	s.record.IntervalSeconds = seconds
}

func (s *Store) AddPhoto(p Photo) {
	s.record.Photos = append(s.record.Photos, p)
}

// RemovePhoto removes the photo with the given id and returns it along with
// its position, so a failed save can reinsert it where it was.
func (s *Store) RemovePhoto(id int64) (Photo, int, bool) {
	for i, p := range s.record.Photos {
		if p.ID == id {
			s.record.Photos = append(s.record.Photos[:i], s.record.Photos[i+1:]...)
			return p, i, true
		}
	}
	return Photo{}, -1, false
}

func (s *Store) AddVideo(v YoutubeVideo) {
	s.record.YoutubeVideos = append(s.record.YoutubeVideos, v)
}

func (s *Store) RemoveVideo(id int64) (YoutubeVideo, int, bool) {
	for i, v := range s.record.YoutubeVideos {
		if v.ID == id {
			s.record.YoutubeVideos = append(s.record.YoutubeVideos[:i], s.record.YoutubeVideos[i+1:]...)
			return v, i, true
		}
	}
	return YoutubeVideo{}, -1, false
}

// HasVideo reports whether a video with the extracted id is already present.
func (s *Store) HasVideo(videoID string) bool {
	for _, v := range s.record.YoutubeVideos {
		if v.VideoID == videoID {
			return true
		}
	}
	return false
}

func (s *Store) SetBGM(url string) {
	s.record.BGMURL = url
}

func (s *Store) ClearBGM() {
	s.record.BGMURL = ""
}

func (s *Store) BGM() string {
	return s.record.BGMURL
}
