package models

import "time"

// Photo — загруженная фотография.
// ObjectKey — ключ объекта в бакете, URL — публичная ссылка (может быть пустой).
type Photo struct {
	ID          int64
	OwnerID     int64
	ObjectKey   string
	URL         string
	Description string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
