package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

var testNow = time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)

type fixture struct {
	svc      Service
	conn     *gorm.DB
	owner    *models.User
	visitor  *models.User
	property *models.Property
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Now: func() time.Time { return testNow }})
	require.NoError(t, err)
	owner := dbtest.SeedUser(t, conn, "Owner", "owner@example.com")
	visitor := dbtest.SeedUser(t, conn, "Visitor", "visitor@example.com")
	return fixture{
		svc:      svc,
		conn:     conn,
		owner:    owner,
		visitor:  visitor,
		property: dbtest.SeedProperty(t, conn, owner.ID),
	}
}

func (f fixture) book(t *testing.T, userID uuid.UUID, date, slot string) (*BookingDTO, error) {
	t.Helper()
	return f.svc.Create(context.Background(), userID, CreateBookingRequest{
		PropertyID: f.property.ID,
		VisitDate:  date,
		VisitTime:  slot,
	})
}

func TestAllSlots(t *testing.T) {
	slots := AllSlots()
	require.Len(t, slots, 10)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "18:00", slots[9])
}

func TestParseVisitDateKeepsWrittenDay(t *testing.T) {
	want := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"2026-10-17",
		"2026-10-17T01:00:00+02:00",
		"2026-10-17T23:30:00-05:00",
		"2026-10-17T12:00:00Z",
	} {
		got, err := ParseVisitDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s parsed as %s", raw, got)
		assert.Equal(t, time.UTC, got.Location(), raw)
	}
	_, err := ParseVisitDate("17/10/2026")
	assert.Error(t, err)
}

func TestCreateRules(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(t, f.owner.ID, "2026-05-20", "10:00")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "owner cannot book own property")

	_, err = f.book(t, f.visitor.ID, "2026-05-10", "16:00")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "today is not strictly after now")

	_, err = f.book(t, f.visitor.ID, "2026-05-01", "10:00")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.book(t, f.visitor.ID, "2026-05-20", "08:30")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(context.Background(), f.visitor.ID, CreateBookingRequest{PropertyID: uuid.New(), VisitDate: "2026-05-20", VisitTime: "10:00"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	booking, err := f.book(t, f.visitor.ID, "2026-05-20", "10:00")
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusPending, booking.Status)
	assert.Equal(t, f.owner.ID, booking.OwnerID)
	assert.Equal(t, "2026-05-20", booking.VisitDate)
	require.NotNil(t, booking.Property)
}

func TestSameSlotSameUserConflictsOtherUserAllowed(t *testing.T) {
	f := newFixture(t)
	other := dbtest.SeedUser(t, f.conn, "Other", "other@example.com")

	_, err := f.book(t, f.visitor.ID, "2026-05-20", "11:00")
	require.NoError(t, err)

	_, err = f.book(t, f.visitor.ID, "2026-05-20", "11:00")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	_, err = f.book(t, other.ID, "2026-05-20", "11:00")
	require.NoError(t, err)

	mine, err := f.svc.ListMine(context.Background(), f.visitor.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1, "the first booking remains")
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking, err := f.book(t, f.visitor.ID, "2026-05-21", "09:00")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.visitor.ID, booking.ID, UpdateStatusRequest{Status: "confirmed"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = f.svc.UpdateStatus(ctx, f.owner.ID, booking.ID, UpdateStatusRequest{Status: "completed"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	confirmed, err := f.svc.UpdateStatus(ctx, f.owner.ID, booking.ID, UpdateStatusRequest{Status: "confirmed", Notes: "Ring twice"})
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, "Ring twice", confirmed.Notes)
	require.NotNil(t, confirmed.ConfirmedAt)

	completed, err := f.svc.UpdateStatus(ctx, f.owner.ID, booking.ID, UpdateStatusRequest{Status: "completed"})
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	_, err = f.svc.Cancel(ctx, f.visitor.ID, booking.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict), "completed is terminal")

	_, err = f.svc.UpdateStatus(ctx, f.owner.ID, booking.ID, UpdateStatusRequest{Status: "archived"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCancelFreesSlotAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	booking, err := f.book(t, f.visitor.ID, "2026-05-22", "15:00")
	require.NoError(t, err)
	_, err = f.book(t, f.visitor.ID, "2026-05-22", "09:00")
	require.NoError(t, err)

	slots, err := f.svc.AvailableSlots(ctx, f.property.ID, "2026-05-22")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "15:00"}, slots.BookedSlots)
	assert.Len(t, slots.AvailableSlots, 8)
	assert.NotContains(t, slots.AvailableSlots, "15:00")

	_, err = f.svc.Cancel(ctx, f.owner.ID, booking.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	cancelled, err := f.svc.Cancel(ctx, f.visitor.ID, booking.ID)
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)

	slots, err = f.svc.AvailableSlots(ctx, f.property.ID, "2026-05-22")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, slots.BookedSlots)

	owned, err := f.svc.ListForOwner(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	assert.True(t, pkgerrors.Is(f.svc.Delete(ctx, f.owner.ID, booking.ID), pkgerrors.CodeForbidden))
	require.NoError(t, f.svc.Delete(ctx, f.visitor.ID, booking.ID))
	assert.True(t, pkgerrors.Is(f.svc.Delete(ctx, f.visitor.ID, booking.ID), pkgerrors.CodeNotFound))

	_, err = f.svc.AvailableSlots(ctx, f.property.ID, "")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestListMineOrderedByVisitDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.book(t, f.visitor.ID, "2026-06-02", "10:00")
	require.NoError(t, err)
	_, err = f.book(t, f.visitor.ID, "2026-05-30", "10:00")
	require.NoError(t, err)

	mine, err := f.svc.ListMine(context.Background(), f.visitor.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2026-05-30", mine[0].VisitDate)
	assert.Equal(t, "2026-06-02", mine[1].VisitDate)
}
