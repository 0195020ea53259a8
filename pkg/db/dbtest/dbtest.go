// Package dbtest opens in-memory SQLite databases carrying the application
// schema, for repository and service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  photo TEXT NOT NULL DEFAULT 'default-avatar.png',
  address TEXT NOT NULL DEFAULT '',
  bio TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'user',
  is_active INTEGER NOT NULL DEFAULT 1,
  email_verified INTEGER NOT NULL DEFAULT 0,
  email_verification_code_hash TEXT,
  email_verification_expires_at DATETIME,
  reset_code_hash TEXT,
  reset_code_expires_at DATETIME,
  google_id TEXT,
  facebook_id TEXT,
  oauth_provider TEXT NOT NULL DEFAULT 'local',
  notifications TEXT NOT NULL DEFAULT '{}',
  language TEXT NOT NULL DEFAULT 'English',
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_google_id_key ON users (google_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_facebook_id_key ON users (facebook_id);`,
	`
CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  price NUMERIC NOT NULL,
  property_type TEXT NOT NULL,
  status TEXT NOT NULL,
  area REAL NOT NULL DEFAULT 0,
  bedrooms INTEGER NOT NULL DEFAULT 0,
  bathrooms INTEGER NOT NULL DEFAULT 0,
  address TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT 'Morocco',
  zip_code TEXT NOT NULL DEFAULT '',
  latitude REAL,
  longitude REAL,
  images TEXT NOT NULL DEFAULT '[]',
  amenities TEXT NOT NULL DEFAULT '[]',
  average_rating REAL NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  views INTEGER NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 1,
  featured INTEGER NOT NULL DEFAULT 0,
  owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rating INTEGER NOT NULL,
  comment TEXT NOT NULL DEFAULT '',
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  CONSTRAINT reviews_property_user_key UNIQUE (property_id, user_id)
);`,
	`
CREATE TABLE IF NOT EXISTS favorites (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
  created_at DATETIME NOT NULL,
  CONSTRAINT favorites_user_property_key UNIQUE (user_id, property_id)
);`,
	`
CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  conversation_id TEXT NOT NULL,
  sender_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  receiver_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  content TEXT NOT NULL,
  property_id TEXT REFERENCES properties(id) ON DELETE SET NULL,
  is_read INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL
);`,
	`
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  visit_date DATETIME NOT NULL,
  visit_time TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  message TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  total_price NUMERIC NOT NULL DEFAULT 0,
  confirmed_at DATETIME,
  cancelled_at DATETIME,
  completed_at DATETIME,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL,
  CONSTRAINT bookings_user_slot_key UNIQUE (user_id, property_id, visit_date, visit_time)
);`,
	`
CREATE TABLE IF NOT EXISTS saved_searches (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  filters TEXT NOT NULL DEFAULT '{}',
  notifications_enabled INTEGER NOT NULL DEFAULT 1,
  last_notified_at DATETIME,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);`,
}

// Open returns a private in-memory database named after the test with the
// full schema applied and foreign keys enforced.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// SeedUser inserts an active local account.
func SeedUser(t *testing.T, conn *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := models.NewUser(name, strings.ToLower(email), "", enums.OAuthProviderLocal, time.Now().UTC())
	require.NoError(t, conn.Create(user).Error)
	return user
}

// PropertyOption adjusts a seeded property before insert.
type PropertyOption func(*models.Property)

// SeedProperty inserts an available apartment for sale owned by ownerID.
func SeedProperty(t *testing.T, conn *gorm.DB, ownerID uuid.UUID, opts ...PropertyOption) *models.Property {
	t.Helper()
	now := time.Now().UTC()
	property := &models.Property{
		ID:           uuid.New(),
		Title:        "Sunny apartment",
		Description:  "Two rooms close to the beach",
		Price:        decimal.NewFromInt(100000),
		PropertyType: enums.PropertyTypeApartment,
		Status:       enums.ListingStatusForSale,
		Area:         80,
		Bedrooms:     2,
		Bathrooms:    1,
		Address:      "12 Rue Atlas",
		City:         "Casablanca",
		Country:      models.DefaultCountry,
		Images:       datatypes.JSONSlice[string]{},
		Amenities:    datatypes.JSONSlice[string]{},
		IsAvailable:  true,
		OwnerID:      ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(property)
	}
	require.NoError(t, conn.Create(property).Error)
	return property
}
