package community

import "time"

type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"-"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ReactionCount struct {
	ReactionType string `json:"reaction_type"`
	Count        int    `json:"count"`
}

// Post carries the viewer-specific user_reaction alongside the aggregate
// reactions_summary buckets.
type Post struct {
	ID               string          `json:"id"`
	Author           Author          `json:"author"`
	Content          string          `json:"content"`
	Image            string          `json:"image"`
	Track            *string         `json:"track"`
	Comments         []Comment       `json:"comments"`
	ReactionsSummary []ReactionCount `json:"reactions_summary"`
	UserReaction     string          `json:"user_reaction,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Envelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Post  `json:"results"`
}
