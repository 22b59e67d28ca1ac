package capture_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/alwitt/witness/capture"
	"github.com/alwitt/witness/db"
	"github.com/alwitt/witness/location"
	"github.com/alwitt/witness/models"
	"github.com/alwitt/witness/pinning"
	"github.com/alwitt/witness/store"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// defineTestArchive build a device store against a fresh temporary archive
func defineTestArchive(
	t *testing.T, timeSource func() time.Time,
) store.DeviceStore {
	assert := assert.New(t)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	persistence, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(persistence.RunSQLInTransaction(utCtx, db.DefineTables))

	archive, err := store.NewDeviceStore(utCtx, persistence, timeSource)
	assert.Nil(err)
	return archive
}

type fakeHandle struct {
	media     capture.CapturedMedia
	finalized bool
	discarded bool
}

func (f *fakeHandle) Finalize() (capture.CapturedMedia, error) {
	f.finalized = true
	return f.media, nil
}

func (f *fakeHandle) Discard() error {
	f.discarded = true
	return nil
}

type fakeDevice struct {
	handle     *fakeHandle
	acquireErr error
	quality    models.RecordingQualityENUMType
}

func (f *fakeDevice) Acquire(
	_ context.Context,
	kind models.MediaKindENUMType,
	quality models.RecordingQualityENUMType,
) (capture.CaptureHandle, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.quality = quality
	media := capture.CapturedMedia{Payload: []byte("fake-payload"), AudioType: "audio/webm"}
	if kind == models.MediaKindVideo {
		media.VideoType = "video/webm"
	}
	f.handle = &fakeHandle{media: media}
	return f.handle, nil
}

type fakePinner struct {
	pinCalls   int
	unpinCalls []string
	pinErr     error
	lastMeta   pinning.UploadMetadata
}

func (f *fakePinner) Pin(
	_ context.Context, payload io.Reader, _ int64, metadata pinning.UploadMetadata,
) (pinning.PinReceipt, error) {
	if f.pinErr != nil {
		return pinning.PinReceipt{}, f.pinErr
	}
	content, err := io.ReadAll(payload)
	if err != nil {
		return pinning.PinReceipt{}, err
	}
	f.pinCalls++
	f.lastMeta = metadata
	return pinning.PinReceipt{
		Hash:       "QmTestHash0000000000000000000000000000000000000",
		PinSize:    int64(len(content)),
		Timestamp:  time.Now().UTC(),
		GatewayURL: "https://gateway.pinata.cloud/ipfs/QmTestHash0000000000000000000000000000000000000",
	}, nil
}

func (f *fakePinner) Unpin(_ context.Context, hash string) error {
	f.unpinCalls = append(f.unpinCalls, hash)
	return nil
}

func (f *fakePinner) ListPins(_ context.Context) ([]pinning.PinListEntry, error) {
	return nil, nil
}

type fakeResolver struct {
	snapshot models.LocationSnapshot
}

func (f *fakeResolver) CurrentLocation(_ context.Context, _ bool) models.LocationSnapshot {
	return f.snapshot
}

func (f *fakeResolver) SetManualState(
	_ context.Context, stateCode string,
) (models.LocationSnapshot, error) {
	return models.LocationSnapshot{State: stateCode, Method: models.LocationMethodManual}, nil
}

func (f *fakeResolver) StateLawReference(
	_ context.Context, _ string,
) (location.LawReference, error) {
	return location.LawReference{}, nil
}

func TestSessionCaptureScenario(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	currentTime := time.Now().UTC()
	clock := func() time.Time { return currentTime }

	archive := defineTestArchive(t, clock)
	device := &fakeDevice{}

	uut, err := capture.NewSessionManager(
		utCtx, archive, device, nil, nil, nil, t.TempDir(),
		capture.SessionOptions{TimeSource: clock},
	)
	assert.Nil(err)

	// Idle stop is a no-op
	finished, err := uut.Stop(utCtx)
	assert.Nil(err)
	assert.Nil(finished)
	assert.False(uut.Recording())

	assert.Nil(uut.Start(utCtx, models.MediaKindAudio, "traffic stop"))
	assert.True(uut.Recording())
	assert.Equal(models.RecordingQualityHigh, device.quality)

	// Starting again is rejected without disturbing the live session
	assert.ErrorIs(uut.Start(utCtx, models.MediaKindAudio, "other"), capture.ErrCaptureActive)
	assert.True(uut.Recording())

	// Five seconds pass
	currentTime = currentTime.Add(time.Second * 5)
	assert.Equal(time.Second*5, uut.Elapsed())

	finished, err = uut.Stop(utCtx)
	assert.Nil(err)
	assert.NotNil(finished)
	assert.True(device.handle.finalized)
	assert.False(uut.Recording())
	assert.Equal(time.Duration(0), uut.Elapsed())

	assert.Equal(int64(5), finished.Duration)
	assert.Equal("traffic stop", finished.Notes)
	assert.False(finished.IsFlagged)
	assert.NotNil(finished.AudioType)
	assert.Equal("audio/webm", *finished.AudioType)
	assert.Nil(finished.VideoType)
	assert.Equal(models.RecordingQualityHigh, finished.Metadata.Quality)
	assert.Equal(int64(len("fake-payload")), finished.Metadata.FileSize)
	assert.Nil(finished.RemoteHash)

	// Persisted through the archive
	listed := archive.GetRecordings(utCtx, nil)
	assert.Len(listed, 1)
	assert.Equal(finished.ID, listed[0].ID)

	// Created event journaled
	events, err := archive.Journal(utCtx, db.JournalQueryFilter{
		EventTypes: []models.JournalEventTypeENUMType{models.JournalEventTypeRecordingCreated},
	})
	assert.Nil(err)
	assert.Len(events, 1)
}

func TestSessionVideoCaptureWithLocation(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t, nil)

	resolver := &fakeResolver{
		snapshot: models.LocationSnapshot{
			Latitude:  34.0522,
			Longitude: -118.2437,
			City:      "Los Angeles",
			State:     "CA",
			Method:    models.LocationMethodDefault,
		},
	}

	uut, err := capture.NewSessionManager(
		utCtx, archive, &fakeDevice{}, nil, resolver, nil, t.TempDir(),
		capture.SessionOptions{},
	)
	assert.Nil(err)

	assert.Nil(uut.Start(utCtx, models.MediaKindVideo, ""))
	finished, err := uut.Stop(utCtx)
	assert.Nil(err)
	assert.NotNil(finished)

	assert.NotNil(finished.VideoType)
	assert.Equal("video/webm", *finished.VideoType)
	assert.NotNil(finished.Location)
	assert.Equal("Los Angeles", finished.Location.City)
	assert.Equal("CA", finished.Location.State)
}

func TestSessionDeviceDenied(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t, nil)

	uut, err := capture.NewSessionManager(
		utCtx, archive, &fakeDevice{acquireErr: capture.ErrPermissionDenied}, nil, nil, nil,
		t.TempDir(), capture.SessionOptions{},
	)
	assert.Nil(err)

	err = uut.Start(utCtx, models.MediaKindAudio, "")
	assert.ErrorIs(err, capture.ErrPermissionDenied)
	assert.False(uut.Recording())
	assert.Empty(archive.GetRecordings(utCtx, nil))
}

func TestSessionAutoForwardOnAutoUpload(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t, nil)

	autoUpload := true
	_, err := archive.UpdateSettings(utCtx, models.SettingsUpdate{AutoUpload: &autoUpload})
	assert.Nil(err)

	pinner := &fakePinner{}
	uut, err := capture.NewSessionManager(
		utCtx, archive, &fakeDevice{}, pinner, nil, nil, t.TempDir(),
		capture.SessionOptions{},
	)
	assert.Nil(err)

	assert.Nil(uut.Start(utCtx, models.MediaKindAudio, ""))
	finished, err := uut.Stop(utCtx)
	assert.Nil(err)
	assert.NotNil(finished)

	assert.Equal(1, pinner.pinCalls)
	assert.NotNil(finished.RemoteHash)
	assert.NotNil(finished.RemoteGatewayURL)

	events, err := archive.Journal(utCtx, db.JournalQueryFilter{
		EventTypes: []models.JournalEventTypeENUMType{models.JournalEventTypeRecordingUploaded},
	})
	assert.Nil(err)
	assert.Len(events, 1)
}

func TestSessionManualUpload(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t, nil)

	pinner := &fakePinner{}
	uut, err := capture.NewSessionManager(
		utCtx, archive, &fakeDevice{}, pinner, nil, nil, t.TempDir(),
		capture.SessionOptions{},
	)
	assert.Nil(err)

	assert.Nil(uut.Start(utCtx, models.MediaKindAudio, ""))
	finished, err := uut.Stop(utCtx)
	assert.Nil(err)
	assert.Nil(finished.RemoteHash)

	// Forward with progress reporting
	reported := []int{}
	uploaded, err := uut.UploadRecording(utCtx, finished.ID, func(percent int) {
		reported = append(reported, percent)
	})
	assert.Nil(err)

	assert.NotNil(uploaded.RemoteHash)
	assert.Equal("QmTestHash0000000000000000000000000000000000000", *uploaded.RemoteHash)
	assert.NotNil(uploaded.RemoteGatewayURL)

	// Progress runs 0 to 100 without going backwards
	assert.NotEmpty(reported)
	assert.Equal(0, reported[0])
	assert.Equal(100, reported[len(reported)-1])
	for idx := 1; idx < len(reported); idx++ {
		assert.GreaterOrEqual(reported[idx], reported[idx-1])
	}

	// Upload metadata carried the recording descriptors
	assert.Equal(finished.UserID, pinner.lastMeta.Keyvalues["userId"])
	assert.Equal(finished.ID, pinner.lastMeta.Keyvalues["recordId"])
	assert.Equal("audio/webm", pinner.lastMeta.ContentType)

	// The spooled payload is gone after a successful forward
	_, err = uut.UploadRecording(utCtx, finished.ID, nil)
	assert.Error(err)
}

func TestSessionUploadFailureLeavesRecording(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t, nil)

	pinner := &fakePinner{pinErr: fmt.Errorf("pinning outage")}
	uut, err := capture.NewSessionManager(
		utCtx, archive, &fakeDevice{}, pinner, nil, nil, t.TempDir(),
		capture.SessionOptions{},
	)
	assert.Nil(err)

	assert.Nil(uut.Start(utCtx, models.MediaKindAudio, ""))
	finished, err := uut.Stop(utCtx)
	assert.Nil(err)

	_, err = uut.UploadRecording(utCtx, finished.ID, nil)
	assert.Error(err)

	// The recording stands without a remote reference
	fetched, err := archive.GetRecording(utCtx, finished.ID)
	assert.Nil(err)
	assert.Nil(fetched.RemoteHash)

	events, err := archive.Journal(utCtx, db.JournalQueryFilter{
		EventTypes: []models.JournalEventTypeENUMType{models.JournalEventTypeUploadFailed},
	})
	assert.Nil(err)
	assert.Len(events, 1)
}

func TestSessionDelete(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t, nil)

	autoUpload := true
	_, err := archive.UpdateSettings(utCtx, models.SettingsUpdate{AutoUpload: &autoUpload})
	assert.Nil(err)

	pinner := &fakePinner{}
	uut, err := capture.NewSessionManager(
		utCtx, archive, &fakeDevice{}, pinner, nil, nil, t.TempDir(),
		capture.SessionOptions{},
	)
	assert.Nil(err)

	assert.Nil(uut.Start(utCtx, models.MediaKindAudio, ""))
	finished, err := uut.Stop(utCtx)
	assert.Nil(err)
	assert.NotNil(finished.RemoteHash)

	assert.Nil(uut.Delete(utCtx, finished.ID))
	assert.Empty(archive.GetRecordings(utCtx, nil))
	assert.Equal([]string{*finished.RemoteHash}, pinner.unpinCalls)

	// Deleting again is a no-op
	assert.Nil(uut.Delete(utCtx, finished.ID))
	assert.Len(pinner.unpinCalls, 1)
}
