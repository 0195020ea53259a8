package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/api/middleware"
	"github.com/angelmondragon/estatehub-backend/internal/properties"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}

func currentActor(r *http.Request) (properties.Actor, error) {
	id, err := currentUser(r)
	if err != nil {
		return properties.Actor{}, err
	}
	return properties.Actor{UserID: id, Role: enums.UserRole(middleware.RoleFromContext(r.Context()))}, nil
}
