package track

import (
	"context"

	"github.com/aksaraymalaklisi/greentrail/internal/db"
)

type Service struct {
	db    db.Querier
	cache *ListCache
}

func NewService(querier db.Querier, cache *ListCache) *Service {
	return &Service{db: querier, cache: cache}
}

// List returns the catalog with per-viewer favorite flags. viewerID may be
// empty for anonymous requests; the anonymous shape is cached since it is
// identical for every caller.
func (s *Service) List(ctx context.Context, viewerID string, favoritedOnly bool) ([]Track, error) {
	if viewerID == "" && !favoritedOnly {
		var cached []Track
		if s.cache.Get(ctx, &cached) {
			return cached, nil
		}
	}

	query := `
		SELECT t.id, t.label, t.description, t.difficulty, t.distance_m, t.duration_min,
		       t.elevation_gain_m, t.lat, t.lng, t.gpx_url, t.image_url,
		       (f.user_id IS NOT NULL), t.created_at
		FROM tracks t
		LEFT JOIN track_favorites f ON f.track_id = t.id AND f.user_id = $1`
	if favoritedOnly {
		query += `
		WHERE f.user_id IS NOT NULL`
	}
	query += `
		ORDER BY t.label`

	rows, err := s.db.Query(ctx, query, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []Track{}
	for rows.Next() {
		var t Track
		var lat, lng *float64
		if err := rows.Scan(&t.ID, &t.Label, &t.Description, &t.Difficulty, &t.Distance, &t.Duration,
			&t.Elevation, &lat, &lng, &t.GPX, &t.Image, &t.IsFavorite, &t.CreatedAt); err != nil {
			return nil, err
		}
		if lat != nil && lng != nil {
			t.Pos = []float64{*lat, *lng}
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if viewerID == "" && !favoritedOnly {
		s.cache.Set(ctx, tracks)
	}
	return tracks, nil
}

func (s *Service) Get(ctx context.Context, id, viewerID string) (Track, error) {
	row := s.db.QueryRow(ctx, `
		SELECT t.id, t.label, t.description, t.difficulty, t.distance_m, t.duration_min,
		       t.elevation_gain_m, t.lat, t.lng, t.gpx_url, t.image_url,
		       (f.user_id IS NOT NULL), t.created_at
		FROM tracks t
		LEFT JOIN track_favorites f ON f.track_id = t.id AND f.user_id = $2
		WHERE t.id = $1
	`, id, viewerID)

	var t Track
	var lat, lng *float64
	if err := row.Scan(&t.ID, &t.Label, &t.Description, &t.Difficulty, &t.Distance, &t.Duration,
		&t.Elevation, &lat, &lng, &t.GPX, &t.Image, &t.IsFavorite, &t.CreatedAt); err != nil {
		return Track{}, err
	}
	if lat != nil && lng != nil {
		t.Pos = []float64{*lat, *lng}
	}
	return t, nil
}

// AddFavorite is idempotent: favoriting an already-favorited track is a
// no-op on conflict.
func (s *Service) AddFavorite(ctx context.Context, userID, trackID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO track_favorites (user_id, track_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, userID, trackID)
	return err
}

func (s *Service) RemoveFavorite(ctx context.Context, userID, trackID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM track_favorites WHERE user_id=$1 AND track_id=$2
	`, userID, trackID)
	return err
}
