// Package service holds the application rules that sit between HTTP
// handlers and repositories: ownership checks, input validation and the
// XP rewards granted for community activity.
package service

import (
	"context"

	"fellowship/internal/models"
	"fellowship/internal/observability"
)

// AdminChecker reports whether a user holds the admin flag.
type AdminChecker func(ctx context.Context, userID uint) (bool, error)

// authorize passes when actorID owns the resource or is an admin.
func authorize(ctx context.Context, isAdmin AdminChecker, ownerID, actorID uint, message string) error {
	if ownerID == actorID {
		return nil
	}
	if isAdmin == nil {
		return models.NewForbiddenError(message)
	}
	admin, err := isAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError(message)
	}
	return nil
}

// traced starts a service span. The returned func records err and ends it.
func traced(ctx context.Context, service, method string) (context.Context, func(err error)) {
	ctx, span := observability.GetTraceLayer().TraceAPIToServiceCall(ctx, service, method)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}
