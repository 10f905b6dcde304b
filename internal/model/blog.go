package model

import "time"

// Blog is a single post. It always belongs to exactly one Organization:
// OrganizationID is a back-reference for convenience, the owning
// relationship is the Organization's Blogs list.
//
// CreatedAt is set once at creation; UpdatedAt moves on every edit.
type Blog struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	OrganizationID string    `json:"organizationId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
