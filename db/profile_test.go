package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alwitt/witness/db"
	"github.com/alwitt/witness/models"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestDBDeviceProfileBootstrap(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	// First read creates the profile
	var firstUserID string
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				profile, err := dbClient.GetDeviceProfile(ctx)
				assert.Nil(err)
				assert.NotEmpty(profile.UserID)
				assert.Equal(models.SubscriptionStatusFree, profile.SubscriptionStatus)
				assert.Nil(profile.SubscriptionExpiry)
				assert.Equal("english", profile.Preferences.Language)
				assert.Equal("CA", profile.Preferences.DefaultState)
				firstUserID = profile.UserID
				return err
			},
		),
	)

	// Second read returns the same profile
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				profile, err := dbClient.GetDeviceProfile(ctx)
				assert.Nil(err)
				assert.Equal(firstUserID, profile.UserID)
				return err
			},
		),
	)
}

func TestDBDeviceProfileSavePreservesIdentity(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	var original models.UserProfile
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				var err error
				original, err = dbClient.GetDeviceProfile(ctx)
				return err
			},
		),
	)

	// Save with changed fields and a bogus user ID
	expiry := time.Now().UTC().Add(time.Hour * 24 * 30)
	modified := original
	modified.UserID = "not-the-real-user"
	modified.SubscriptionStatus = models.SubscriptionStatusPremium
	modified.SubscriptionExpiry = &expiry
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				_, err := dbClient.SaveDeviceProfile(ctx, modified)
				return err
			},
		),
	)

	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				profile, err := dbClient.GetDeviceProfile(ctx)
				assert.Nil(err)
				assert.Equal(original.UserID, profile.UserID)
				assert.Equal(models.SubscriptionStatusPremium, profile.SubscriptionStatus)
				assert.NotNil(profile.SubscriptionExpiry)
				return err
			},
		),
	)
}

func TestDBDeviceProfileReplaceAdoptsIdentity(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	var original models.UserProfile
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				var err error
				original, err = dbClient.GetDeviceProfile(ctx)
				return err
			},
		),
	)

	// A restored profile carries its own user ID and creation time
	replacement := models.UserProfile{
		UserID:             "11111111-2222-3333-4444-555555555555",
		SubscriptionStatus: models.SubscriptionStatusPremium,
		Preferences:        models.DefaultPreferences(),
		CreatedAt:          time.Now().UTC().Add(-time.Hour * 24 * 90),
	}
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				_, err := dbClient.ReplaceDeviceProfile(ctx, replacement)
				return err
			},
		),
	)

	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				profile, err := dbClient.GetDeviceProfile(ctx)
				assert.Nil(err)
				assert.NotEqual(original.UserID, profile.UserID)
				assert.Equal(replacement.UserID, profile.UserID)
				assert.Equal(models.SubscriptionStatusPremium, profile.SubscriptionStatus)
				return err
			},
		),
	)
}

func TestDBDeviceSettingsBootstrap(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				settings, err := dbClient.GetDeviceSettings(ctx)
				assert.Nil(err)
				assert.Equal(models.DefaultSettings().Theme, settings.Theme)
				assert.Equal(models.RecordingQualityHigh, settings.RecordingQuality)
				assert.False(settings.AutoUpload)
				return err
			},
		),
	)

	// Persist a change and read it back
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				settings, err := dbClient.GetDeviceSettings(ctx)
				assert.Nil(err)
				settings.Theme = "dark"
				settings.AutoUpload = true
				_, err = dbClient.SaveDeviceSettings(ctx, settings)
				return err
			},
		),
	)
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				settings, err := dbClient.GetDeviceSettings(ctx)
				assert.Nil(err)
				assert.Equal("dark", settings.Theme)
				assert.True(settings.AutoUpload)
				return err
			},
		),
	)
}
