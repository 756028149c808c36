package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/api/middleware"
	pkgerrors "github.com/bizlinkhq/bizlink-backend/pkg/errors"
)

// requesterIDFromContext resolves the authenticated user's id seeded by the
// auth middleware.
func requesterIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
