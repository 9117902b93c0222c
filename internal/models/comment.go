package models

import "time"

// Comment — комментарий к фотографии (MongoDB).
// ID — ObjectID в hex-представлении.
type Comment struct {
	ID        string
	PhotoID   int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
