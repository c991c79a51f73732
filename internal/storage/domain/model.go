package domain

import "time"

type Object struct {
	Key          string     `json:"key"`
	Size         int64      `json:"size"`
	ContentType  string     `json:"content_type,omitempty"`
	ETag         string     `json:"etag,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	URL          string     `json:"url,omitempty"`
}
