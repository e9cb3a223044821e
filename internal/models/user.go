package models

import "time"

// User is an album owner authenticated through the external identity
// provider. Only the verified identity lands here; credential handling
// stays outside this service.
type User struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName *string   `db:"display_name" json:"display_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
