package savedsearches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/internal/mail"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
)

type notifyRepository interface {
	ListNotifiable(ctx context.Context, excludeUserID uuid.UUID) ([]models.SavedSearch, error)
	StampNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

type propertyLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

type NotifierParams struct {
	Repo        notifyRepository
	Properties  propertyLoader
	Mailer      mail.Sender
	FrontendURL string
	Logger      *logger.Logger
	Now         func() time.Time
}

// Notifier emails users whose saved searches match a newly created listing.
type Notifier struct {
	repo        notifyRepository
	properties  propertyLoader
	mailer      mail.Sender
	frontendURL string
	logg        *logger.Logger
	now         func() time.Time
}

func NewNotifier(params NotifierParams) (*Notifier, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("saved search repository is required")
	}
	if params.Properties == nil {
		return nil, fmt.Errorf("property loader is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Notifier{
		repo:        params.Repo,
		properties:  params.Properties,
		mailer:      params.Mailer,
		frontendURL: strings.TrimRight(params.FrontendURL, "/"),
		logg:        params.Logger,
		now:         now,
	}, nil
}

// PropertyCreated sends one email per matching search whose owner accepts
// email notifications. The listing owner's own searches are skipped. A failed
// send does not stop the remaining recipients; the failures are returned
// together. Searches stamped at or after the listing's creation were already
// notified, so a redelivered event only retries the recipients that failed.
func (n *Notifier) PropertyCreated(ctx context.Context, propertyID uuid.UUID) error {
	property, err := n.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Property not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load created property")
	}
	searches, err := n.repo.ListNotifiable(ctx, property.OwnerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifiable searches")
	}

	var errs error
	sent := 0
	for i := range searches {
		search := &searches[i]
		if search.User == nil || !wantsEmail(search.User) {
			continue
		}
		if notifiedSince(search, property.CreatedAt) {
			continue
		}
		if !MatchesFilters(search.Filters.Data(), property) {
			continue
		}
		if err := n.mailer.Send(ctx, n.matchMessage(search, property)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify search %s: %w", search.ID, err))
			continue
		}
		if err := n.repo.StampNotified(ctx, search.ID, n.now()); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("stamp search %s: %w", search.ID, err))
		}
		sent++
	}

	if n.logg != nil {
		logCtx := n.logg.WithFields(ctx, map[string]any{
			"property_id": propertyID.String(),
			"sent":        sent,
		})
		if errs != nil {
			n.logg.Error(logCtx, "savedsearches.notify_failed", errs)
		} else {
			n.logg.Info(logCtx, "savedsearches.notified")
		}
	}
	return errs
}

func (n *Notifier) matchMessage(search *models.SavedSearch, p *models.Property) mail.Message {
	return mail.Message{
		Kind: mail.KindSavedSearchMatch,
		To:   search.User.Email,
		Name: search.User.Name,
		Data: map[string]string{
			"search": search.Name,
			"title":  p.Title,
			"city":   p.City,
			"price":  p.Price.StringFixed(2),
			"link":   fmt.Sprintf("%s/properties/%s", n.frontendURL, p.ID),
		},
	}
}

func wantsEmail(u *models.User) bool {
	prefs := u.Notifications.Data()
	return u.IsActive && prefs.Enabled && prefs.Email
}

func notifiedSince(search *models.SavedSearch, at time.Time) bool {
	return search.LastNotifiedAt != nil && !search.LastNotifiedAt.Before(at)
}
