// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"fellowship/internal/consistency"
	"fellowship/internal/database"
	"fellowship/internal/models"
	"fellowship/internal/observability"

	"gorm.io/gorm"
)

// DefaultPageSize bounds list queries that do not pass a limit.
const DefaultPageSize = 20

// MaxPageSize caps any requested limit.
const MaxPageSize = 100

var dbMetrics = observability.NewDatabaseMetrics()

// readDB routes reads to the replica when one is configured.
func readDB(primary *gorm.DB) *gorm.DB {
	if database.ReadDB != nil {
		return database.ReadDB
	}
	return primary
}

// track starts a repository span and a latency observation. The returned
// func ends both and records err on the span.
func track(ctx context.Context, method, table string) (context.Context, func(err error)) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, method, table)
	done := dbMetrics.TrackQuery(method, table)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		done()
		span.End()
	}
}

// translate maps store errors onto AppErrors.
func translate(err error) error {
	return consistency.TranslateError(err)
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// notFound turns a missing-row error into a NotFound AppError for kind/id.
func notFound(err error, kind models.EntityKind, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(string(kind), id)
	}
	return translate(err)
}
