package models

import "time"

type Document struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ProjectID  *int64    `json:"project_id,omitempty"`
	UploaderID int64     `json:"uploader_id"`
	Type       string    `json:"type"`
	Size       string    `json:"size"`
	ByteSize   int64     `json:"byte_size"`
	Path       string    `json:"path"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type DocumentPatch struct {
	Name      *string
	ProjectID *int64
}
