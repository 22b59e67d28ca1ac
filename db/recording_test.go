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

func TestDBRecordingCRUD(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	audioType := "audio/webm"
	now := time.Now().UTC()
	template := models.Recording{
		UserID:    "user-0",
		StartTime: now,
		EndTime:   now.Add(time.Second * 5),
		Duration:  5,
		AudioType: &audioType,
		Metadata:  models.RecordingMetadata{Quality: models.RecordingQualityHigh},
	}

	// Insert with an assigned ID
	var created models.Recording
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				var err error
				created, err = dbClient.CreateRecording(ctx, template)
				assert.Nil(err)
				assert.NotEmpty(created.ID)
				return err
			},
		),
	)

	// Fetch by ID
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				fetched, err := dbClient.GetRecording(ctx, created.ID)
				assert.Nil(err)
				assert.Equal(created.ID, fetched.ID)
				assert.Equal("user-0", fetched.UserID)
				assert.Equal(int64(5), fetched.Duration)
				assert.NotNil(fetched.AudioType)
				assert.Equal(audioType, *fetched.AudioType)
				return err
			},
		),
	)

	// Delete reports removal, then a no-op
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				removed, err := dbClient.DeleteRecording(ctx, created.ID)
				assert.Nil(err)
				assert.True(removed)
				removed, err = dbClient.DeleteRecording(ctx, created.ID)
				assert.Nil(err)
				assert.False(removed)
				return err
			},
		),
	)
}

func TestDBRecordingListOrdering(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	audioType := "audio/webm"
	ids := []string{}
	for idx := 0; idx < 4; idx++ {
		assert.Nil(
			uut.UseDatabaseInTransaction(
				utCtx, func(ctx context.Context, dbClient db.Database) error {
					created, err := dbClient.CreateRecording(ctx, models.Recording{
						UserID:    "user-0",
						StartTime: time.Now().UTC(),
						EndTime:   time.Now().UTC(),
						AudioType: &audioType,
						IsFlagged: idx%2 == 0,
						Metadata:  models.RecordingMetadata{Quality: models.RecordingQualityStandard},
					})
					assert.Nil(err)
					ids = append(ids, created.ID)
					return err
				},
			),
		)
	}

	// Newest first; ULIDs break creation timestamp ties
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				listed, err := dbClient.ListRecordings(ctx, db.RecordingQueryFilter{})
				assert.Nil(err)
				assert.Len(listed, 4)
				for idx, entry := range listed {
					assert.Equal(ids[len(ids)-1-idx], entry.ID)
				}
				return err
			},
		),
	)

	// Flagged filter
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				listed, err := dbClient.ListRecordings(ctx, db.RecordingQueryFilter{FlaggedOnly: true})
				assert.Nil(err)
				assert.Len(listed, 2)
				return err
			},
		),
	)

	// User filter misses
	otherUser := "user-9"
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				listed, err := dbClient.ListRecordings(
					ctx, db.RecordingQueryFilter{TargetUserID: &otherUser},
				)
				assert.Nil(err)
				assert.Empty(listed)
				return err
			},
		),
	)
}

func TestDBRecordingReplace(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)

	assert.Nil(uut.RunSQLInTransaction(utCtx, db.DefineTables))

	audioType := "audio/webm"
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				_, err := dbClient.CreateRecording(ctx, models.Recording{
					UserID:    "user-0",
					StartTime: time.Now().UTC(),
					EndTime:   time.Now().UTC(),
					AudioType: &audioType,
					Metadata:  models.RecordingMetadata{Quality: models.RecordingQualityHigh},
				})
				return err
			},
		),
	)

	replacement := []models.Recording{
		{
			ID:        ulid.Make().String(),
			UserID:    "user-1",
			StartTime: time.Now().UTC(),
			EndTime:   time.Now().UTC(),
			AudioType: &audioType,
			Metadata:  models.RecordingMetadata{Quality: models.RecordingQualityHigh},
		},
		{
			ID:        ulid.Make().String(),
			UserID:    "user-1",
			StartTime: time.Now().UTC(),
			EndTime:   time.Now().UTC(),
			AudioType: &audioType,
			Metadata:  models.RecordingMetadata{Quality: models.RecordingQualityHigh},
		},
	}
	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				return dbClient.ReplaceRecordings(ctx, replacement)
			},
		),
	)

	assert.Nil(
		uut.UseDatabaseInTransaction(
			utCtx, func(ctx context.Context, dbClient db.Database) error {
				listed, err := dbClient.ListRecordings(ctx, db.RecordingQueryFilter{})
				assert.Nil(err)
				assert.Len(listed, 2)
				for _, entry := range listed {
					assert.Equal("user-1", entry.UserID)
				}
				return err
			},
		),
	)
}
