package track

import "time"

// Track is the catalog entity. Pos is [lat, lng] and serializes to null when
// the track has no pin coordinate; GPX and Image may likewise be empty.
type Track struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Distance    float64   `json:"distance"`
	Duration    float64   `json:"duration"`
	Elevation   float64   `json:"elevation"`
	Pos         []float64 `json:"pos"`
	GPX         string    `json:"gpx"`
	Image       string    `json:"image"`
	IsFavorite  bool      `json:"is_favorite"`
	CreatedAt   time.Time `json:"created_at"`
}

// Envelope is the paginated collection shape the API returns for lists.
type Envelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Track `json:"results"`
}
