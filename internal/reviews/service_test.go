package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn)})
	require.NoError(t, err)
	return svc, conn
}

func aggregate(t *testing.T, conn *gorm.DB, id uuid.UUID) (float64, int) {
	t.Helper()
	var p models.Property
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.AverageRating, p.ReviewCount
}

func TestAggregateFollowsEveryWrite(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, conn, "Owner", "owner@example.com")
	alice := dbtest.SeedUser(t, conn, "Alice", "alice@example.com")
	bob := dbtest.SeedUser(t, conn, "Bob", "bob@example.com")
	p := dbtest.SeedProperty(t, conn, owner.ID)

	first, err := svc.Create(ctx, alice.ID, p.ID, CreateReviewRequest{Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	require.NotNil(t, first.User)
	assert.Equal(t, "Alice", first.User.Name)

	second, err := svc.Create(ctx, bob.ID, p.ID, CreateReviewRequest{Rating: 2, Comment: "Noisy"})
	require.NoError(t, err)
	avg, count := aggregate(t, conn, p.ID)
	assert.InDelta(t, 3.5, avg, 1e-9)
	assert.Equal(t, 2, count)

	rating := 4
	_, err = svc.Update(ctx, bob.ID, second.ID, UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	avg, _ = aggregate(t, conn, p.ID)
	assert.InDelta(t, 4.5, avg, 1e-9)

	require.NoError(t, svc.Delete(ctx, alice.ID, first.ID))
	avg, count = aggregate(t, conn, p.ID)
	assert.InDelta(t, 4.0, avg, 1e-9)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.Delete(ctx, bob.ID, second.ID))
	avg, count = aggregate(t, conn, p.ID)
	assert.Zero(t, avg)
	assert.Zero(t, count)
}

func TestCreateRules(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, conn, "Owner", "owner@example.com")
	alice := dbtest.SeedUser(t, conn, "Alice", "alice@example.com")
	p := dbtest.SeedProperty(t, conn, owner.ID)

	_, err := svc.Create(ctx, alice.ID, uuid.New(), CreateReviewRequest{Rating: 3, Comment: "?"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.Create(ctx, alice.ID, p.ID, CreateReviewRequest{Rating: 6, Comment: "too much"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, alice.ID, p.ID, CreateReviewRequest{Rating: 3, Comment: "ok"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, p.ID, CreateReviewRequest{Rating: 1, Comment: "again"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	list, err := svc.ListByProperty(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1, "the first review remains")
	assert.Equal(t, 3, list[0].Rating)

	mine, err := svc.ListMine(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Property)
	assert.Equal(t, p.Title, mine[0].Property.Title)
}

func TestOnlyAuthorMayChangeReview(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, conn, "Owner", "owner@example.com")
	alice := dbtest.SeedUser(t, conn, "Alice", "alice@example.com")
	p := dbtest.SeedProperty(t, conn, owner.ID)

	review, err := svc.Create(ctx, alice.ID, p.ID, CreateReviewRequest{Rating: 4, Comment: "Nice"})
	require.NoError(t, err)

	comment := "edited"
	_, err = svc.Update(ctx, owner.ID, review.ID, UpdateReviewRequest{Comment: &comment})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	err = svc.Delete(ctx, owner.ID, review.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	err = svc.Delete(ctx, alice.ID, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
