package storage

import (
	"context"

	"github.com/aksaraymalaklisi/greentrail/internal/db"

	"github.com/google/uuid"
)

// Service stores uploaded objects (avatars, post images, GPX files) in
// Postgres and serves them back by id.
type Service struct {
	db db.Querier
}

type Object struct {
	ID          string
	UserID      string
	Kind        string
	ContentType string
	Data        []byte
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

// SaveObject persists the bytes and returns the URL path the object is
// served from.
func (s *Service) SaveObject(ctx context.Context, userID, kind, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, kind, content_type, data)
		VALUES ($1,$2,$3,$4,$5)
	`, id, userID, kind, contentType, data)
	if err != nil {
		return "", err
	}
	return "/api/storage/" + id, nil
}

func (s *Service) GetObject(ctx context.Context, id string) (Object, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, kind, content_type, data
		FROM storage_objects WHERE id = $1
	`, id)

	var obj Object
	if err := row.Scan(&obj.ID, &obj.UserID, &obj.Kind, &obj.ContentType, &obj.Data); err != nil {
		return Object{}, err
	}
	return obj, nil
}
