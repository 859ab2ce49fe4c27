// Package catalog caches the analysis backend's browse data (folders, video
// lists, scene payloads) in the local database, so the display stays usable
// across backend hiccups and repeated navigation.
package catalog

import "time"

// Video is one catalog entry within a folder.
type Video struct {
	Folder        string    `json:"folder"`
	Filename      string    `json:"filename"`
	HasScenesJSON bool      `json:"has_scenes_json"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// VideoID is the stable identifier used for timelines and sessions.
func VideoID(folder, filename string) string {
	return folder + "/" + filename
}
