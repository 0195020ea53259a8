package favorites

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/estatehub-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

func TestFavoritesLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn)})
	require.NoError(t, err)
	ctx := context.Background()

	owner := dbtest.SeedUser(t, conn, "Owner", "owner@example.com")
	fan := dbtest.SeedUser(t, conn, "Fan", "fan@example.com")
	p := dbtest.SeedProperty(t, conn, owner.ID)

	liked, err := svc.Check(ctx, fan.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = svc.Add(ctx, fan.ID, p.ID)
	require.NoError(t, err)

	_, err = svc.Add(ctx, fan.ID, p.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	list, err := svc.List(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, list, 1, "the first favorite remains")
	require.NotNil(t, list[0].Property)
	assert.Equal(t, p.Title, list[0].Property.Title)

	liked, err = svc.Check(ctx, fan.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, svc.Remove(ctx, fan.ID, p.ID))
	err = svc.Remove(ctx, fan.ID, p.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestAddUnknownProperty(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn)})
	require.NoError(t, err)
	fan := dbtest.SeedUser(t, conn, "Fan", "fan@example.com")

	_, err = svc.Add(context.Background(), fan.ID, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
