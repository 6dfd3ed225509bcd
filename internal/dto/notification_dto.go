package dto

import "time"

type NotificationResponse struct {
	Level       string    `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Operation   string    `json:"operation"`
	CreatedAt   time.Time `json:"created_at"`
}
