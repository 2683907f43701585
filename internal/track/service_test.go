package track

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

func trackRows(t Track) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id", "label", "description", "difficulty", "distance_m", "duration_min",
		"elevation_gain_m", "lat", "lng", "gpx_url", "image_url", "is_favorite", "created_at"})
	var lat, lng *float64
	if len(t.Pos) == 2 {
		lat, lng = &t.Pos[0], &t.Pos[1]
	}
	rows.AddRow(t.ID, t.Label, t.Description, t.Difficulty, t.Distance, t.Duration,
		t.Elevation, lat, lng, t.GPX, t.Image, t.IsFavorite, t.CreatedAt)
	return rows
}

func TestListWithViewerFavorites(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT t.id, t.label`).
		WithArgs("u1").
		WillReturnRows(trackRows(Track{
			ID: "t1", Label: "Pedra do Elefante", Difficulty: "Moderado",
			Pos: []float64{-22.93, -42.82}, GPX: "/api/storage/gpx-1", IsFavorite: true,
			CreatedAt: time.Now(),
		}))

	svc := NewService(mock, nil)
	tracks, err := svc.List(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tracks) != 1 || !tracks[0].IsFavorite {
		t.Fatalf("expected favorited track")
	}
	if len(tracks[0].Pos) != 2 {
		t.Fatalf("expected coordinate")
	}
}

func TestListTrackWithoutGeometry(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT t.id, t.label`).
		WithArgs("").
		WillReturnRows(trackRows(Track{ID: "t2", Label: "Trilha sem mapa", CreatedAt: time.Now()}))

	svc := NewService(mock, nil)
	tracks, err := svc.List(context.Background(), "", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// No coordinate and no gpx: still listed, geometry fields empty.
	if tracks[0].Pos != nil || tracks[0].GPX != "" {
		t.Fatalf("expected empty geometry")
	}
}

func TestListAnonymousUsesCache(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()
	cache := NewListCache(rdb, time.Minute)

	mock.ExpectQuery(`SELECT t.id, t.label`).
		WithArgs("").
		WillReturnRows(trackRows(Track{ID: "t1", Label: "Trilha", CreatedAt: time.Now().UTC()}))

	svc := NewService(mock, cache)
	first, err := svc.List(context.Background(), "", false)
	if err != nil {
		t.Fatalf("first list: %v", err)
	}

	// Second call must come from the cache: no further query expectation.
	second, err := svc.List(context.Background(), "", false)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(second) != len(first) || second[0].ID != first[0].ID {
		t.Fatalf("cache returned different list")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFavoriteLifecycle(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO track_favorites`).
		WithArgs("u1", "t1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM track_favorites`).
		WithArgs("u1", "t1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	svc := NewService(mock, nil)
	if err := svc.AddFavorite(context.Background(), "u1", "t1"); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if err := svc.RemoveFavorite(context.Background(), "u1", "t1"); err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
}

func TestGetMissingTrack(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT t.id, t.label`).
		WithArgs("missing", "").
		WillReturnError(errQuery)

	svc := NewService(mock, nil)
	if _, err := svc.Get(context.Background(), "missing", ""); err == nil {
		t.Fatalf("expected error")
	}
}
