package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
)

func TestSaveObjectReturnsURL(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "u1", "avatar", "image/png", []byte("bytes")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	url, err := svc.SaveObject(context.Background(), "u1", "avatar", "image/png", []byte("bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/api/storage/") {
		t.Fatalf("unexpected url: %s", url)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveObjectDefaultContentType(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "u1", "gpx", "application/octet-stream", []byte("<gpx/>")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	if _, err := svc.SaveObject(context.Background(), "u1", "gpx", "", []byte("<gpx/>")); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestGetObjectError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, user_id, kind, content_type, data`).
		WithArgs("missing").
		WillReturnError(errors.New("no rows"))

	svc := NewService(mock)
	if _, err := svc.GetObject(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error")
	}
}
