package capture

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/witness/location"
	"github.com/alwitt/witness/models"
	"github.com/alwitt/witness/pinning"
	"github.com/alwitt/witness/store"
	"github.com/alwitt/witness/subscription"
	"github.com/apex/log"
)

// ErrCaptureActive a capture session is already running
var ErrCaptureActive = errors.New("a capture session is already active")

// DefaultTickInterval how often a live session reports elapsed time
const DefaultTickInterval = time.Second

// SessionOptions optional session manager knobs
type SessionOptions struct {
	// TickInterval how often a live session ticks. Zero for the default.
	TickInterval time.Duration
	// OnTick callback invoked on every live session tick with the elapsed time
	OnTick func(elapsed time.Duration)
	// TimeSource clock used for session timestamps. Nil for the wall clock.
	TimeSource func() time.Time
}

// SessionManager the recording session state machine.
//
// At most one capture session runs at a time. Upload and delete operate on
// finalized recordings and are independent of the live session.
type SessionManager interface {
	/*
		Start begin a capture session.

		Fails with `ErrCaptureActive` while a session is live; the live session
		is not disturbed.

			@param ctx context.Context - execution context
			@param kind models.MediaKindENUMType - capture media kind
			@param notes string - free text attached to the finalized recording
	*/
	Start(ctx context.Context, kind models.MediaKindENUMType, notes string) error

	/*
		Recording whether a capture session is live

			@returns session verdict
	*/
	Recording() bool

	/*
		Elapsed time since the live session started. Zero while idle.

			@returns elapsed session time
	*/
	Elapsed() time.Duration

	/*
		Stop finalize the live capture session.

		A no-op returning nil while idle. Otherwise the payload is finalized
		and spooled, a best-effort location snapshot is taken, and the
		recording is persisted. When the user holds premium entitlement or
		auto-upload is enabled, the recording is forwarded to the pinning
		collaborator; forward failure is logged and the local save stands.

			@param ctx context.Context - execution context
			@returns the finalized recording, or nil when idle
	*/
	Stop(ctx context.Context) (*models.Recording, error)

	/*
		UploadRecording forward a finalized recording to the pinning collaborator.

		Progress is reported through the callback as coarse percentages from 0
		to 100. On success the recording's remote reference is updated; on
		failure the recording is left unchanged.

			@param ctx context.Context - execution context
			@param recordingID string - the recording to forward
			@param progress func(int) - optional progress callback
			@returns the recording with its remote reference set
	*/
	UploadRecording(ctx context.Context, recordingID string, progress func(int)) (models.Recording, error)

	/*
		Delete remove a finalized recording.

		The local entry and spooled payload are removed. A remote copy is
		unpinned best-effort; unpin failure is logged and the local delete
		stands.

			@param ctx context.Context - execution context
			@param recordingID string - the recording to remove
	*/
	Delete(ctx context.Context, recordingID string) error
}

// liveSession state of one running capture session
type liveSession struct {
	handle    CaptureHandle
	kind      models.MediaKindENUMType
	notes     string
	startTime time.Time
	stopTick  chan struct{}
	tickDone  chan struct{}
}

// sessionManagerImpl implements SessionManager
type sessionManagerImpl struct {
	goutils.Component

	archive  store.DeviceStore
	device   MediaDevice
	pinner   pinning.Pinner
	resolver location.Resolver
	gate     subscription.Gate
	spool    *payloadSpool

	tickInterval time.Duration
	onTick       func(elapsed time.Duration)
	timeSource   func() time.Time

	lock    sync.Mutex
	session *liveSession
}

/*
NewSessionManager define a recording session manager

	@param ctx context.Context - execution context
	@param archive store.DeviceStore - device archive
	@param device MediaDevice - capture hardware
	@param pinner pinning.Pinner - pinning collaborator client. Pass nil to
	    disable forwarding.
	@param resolver location.Resolver - location resolver for recording
	    snapshots. Pass nil to skip snapshots.
	@param gate subscription.Gate - entitlement checks for auto-forwarding.
	    Pass nil to gate auto-forwarding on settings alone.
	@param spoolDirectory string - directory holding payloads awaiting forward
	@param opts SessionOptions - optional knobs
	@returns session manager instance
*/
func NewSessionManager(
	_ context.Context,
	archive store.DeviceStore,
	device MediaDevice,
	pinner pinning.Pinner,
	resolver location.Resolver,
	gate subscription.Gate,
	spoolDirectory string,
	opts SessionOptions,
) (SessionManager, error) {
	if archive == nil {
		return nil, fmt.Errorf("device archive is required")
	}
	if device == nil {
		return nil, fmt.Errorf("media device is required")
	}

	spool, err := newPayloadSpool(spoolDirectory)
	if err != nil {
		return nil, err
	}

	tickInterval := opts.TickInterval
	if tickInterval == 0 {
		tickInterval = DefaultTickInterval
	}
	timeSource := opts.TimeSource
	if timeSource == nil {
		timeSource = time.Now
	}

	return &sessionManagerImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "capture", "component": "session-manager"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		archive:      archive,
		device:       device,
		pinner:       pinner,
		resolver:     resolver,
		gate:         gate,
		spool:        spool,
		tickInterval: tickInterval,
		onTick:       opts.OnTick,
		timeSource:   timeSource,
	}, nil
}

/*
Start begin a capture session.

Fails with `ErrCaptureActive` while a session is live; the live session
is not disturbed.

	@param ctx context.Context - execution context
	@param kind models.MediaKindENUMType - capture media kind
	@param notes string - free text attached to the finalized recording
*/
func (m *sessionManagerImpl) Start(
	ctx context.Context, kind models.MediaKindENUMType, notes string,
) error {
	logTags := m.GetLogTagsForContext(ctx)

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.session != nil {
		return ErrCaptureActive
	}

	quality := m.archive.GetSettings(ctx).RecordingQuality

	handle, err := m.device.Acquire(ctx, kind, quality)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Media device acquisition failed")
		return fmt.Errorf("media device acquisition failed [%w]", err)
	}

	session := &liveSession{
		handle:    handle,
		kind:      kind,
		notes:     notes,
		startTime: m.timeSource(),
		stopTick:  make(chan struct{}),
		tickDone:  make(chan struct{}),
	}
	m.session = session
	go m.runTicks(session)

	log.WithFields(logTags).WithField("kind", kind).Info("Capture session started")
	return nil
}

// runTicks per-interval elapsed time reporting for one live session
func (m *sessionManagerImpl) runTicks(session *liveSession) {
	defer close(session.tickDone)
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-session.stopTick:
			return
		case <-ticker.C:
			if m.onTick != nil {
				m.onTick(m.timeSource().Sub(session.startTime))
			}
		}
	}
}

/*
Recording whether a capture session is live

	@returns session verdict
*/
func (m *sessionManagerImpl) Recording() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session != nil
}

/*
Elapsed time since the live session started. Zero while idle.

	@returns elapsed session time
*/
func (m *sessionManagerImpl) Elapsed() time.Duration {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.session == nil {
		return 0
	}
	return m.timeSource().Sub(m.session.startTime)
}

/*
Stop finalize the live capture session.

A no-op returning nil while idle. Otherwise the payload is finalized
and spooled, a best-effort location snapshot is taken, and the
recording is persisted. When the user holds premium entitlement or
auto-upload is enabled, the recording is forwarded to the pinning
collaborator; forward failure is logged and the local save stands.

	@param ctx context.Context - execution context
	@returns the finalized recording, or nil when idle
*/
func (m *sessionManagerImpl) Stop(ctx context.Context) (*models.Recording, error) {
	logTags := m.GetLogTagsForContext(ctx)

	m.lock.Lock()
	session := m.session
	if session == nil {
		m.lock.Unlock()
		return nil, nil
	}
	m.session = nil
	m.lock.Unlock()

	close(session.stopTick)
	<-session.tickDone

	media, err := session.handle.Finalize()
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Capture finalization failed")
		return nil, fmt.Errorf("capture finalization failed [%w]", err)
	}

	endTime := m.timeSource()
	if endTime.Before(session.startTime) {
		endTime = session.startTime
	}

	settings := m.archive.GetSettings(ctx)

	recording := models.Recording{
		StartTime: session.startTime,
		EndTime:   endTime,
		Duration:  int64(endTime.Sub(session.startTime) / time.Second),
		Notes:     session.notes,
		IsFlagged: false,
		AudioType: &media.AudioType,
		Metadata: models.RecordingMetadata{
			FileSize: int64(len(media.Payload)),
			Quality:  settings.RecordingQuality,
		},
	}
	if session.kind == models.MediaKindVideo && media.VideoType != "" {
		videoType := media.VideoType
		recording.VideoType = &videoType
	}

	if m.resolver != nil {
		snapshot := m.resolver.CurrentLocation(ctx, false)
		recording.Location = &snapshot
	}

	stored, err := m.archive.SaveRecording(ctx, recording)
	if err != nil {
		return nil, err
	}

	if err := m.spool.put(stored.ID, media.Payload); err != nil {
		// The archive entry stands; only a later forward is affected
		log.WithError(err).WithFields(logTags).Error("Payload spooling failed")
	}

	log.WithFields(logTags).WithField("recording", stored.ID).Info("Capture session finalized")

	if m.shouldAutoForward(ctx, settings) {
		if forwarded, err := m.UploadRecording(ctx, stored.ID, nil); err != nil {
			log.WithError(err).WithFields(logTags).WithField("recording", stored.ID).
				Warn("Auto-forward failed")
		} else {
			stored = forwarded
		}
	}

	return &stored, nil
}

// shouldAutoForward whether a finalized recording goes straight to the pinner
func (m *sessionManagerImpl) shouldAutoForward(
	ctx context.Context, settings models.Settings,
) bool {
	if m.pinner == nil {
		return false
	}
	if settings.AutoUpload {
		return true
	}
	return m.gate != nil && m.gate.HasPremiumAccess(ctx)
}

/*
UploadRecording forward a finalized recording to the pinning collaborator.

Progress is reported through the callback as coarse percentages from 0
to 100. On success the recording's remote reference is updated; on
failure the recording is left unchanged.

	@param ctx context.Context - execution context
	@param recordingID string - the recording to forward
	@param progress func(int) - optional progress callback
	@returns the recording with its remote reference set
*/
func (m *sessionManagerImpl) UploadRecording(
	ctx context.Context, recordingID string, progress func(int),
) (models.Recording, error) {
	logTags := m.GetLogTagsForContext(ctx)

	if progress == nil {
		progress = func(int) {}
	}
	if m.pinner == nil {
		return models.Recording{}, fmt.Errorf("no pinning collaborator configured")
	}
	progress(0)

	recording, err := m.archive.GetRecording(ctx, recordingID)
	if err != nil {
		return models.Recording{}, err
	}
	progress(10)

	payload, payloadSize, err := m.spool.open(recordingID)
	if err != nil {
		return models.Recording{}, err
	}
	defer func() { _ = payload.Close() }()
	progress(25)

	receipt, err := m.pinner.Pin(
		ctx, payload, payloadSize, m.uploadMetadata(*recording),
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).WithField("recording", recordingID).
			Error("Recording forward failed")
		m.archive.JournalEvent(ctx, models.JournalEventTypeUploadFailed,
			models.JournalEventRecordingRelated{RecordingID: recordingID, Detail: err.Error()})
		return models.Recording{}, fmt.Errorf("recording forward failed [%w]", err)
	}
	progress(90)

	remoteHash := &receipt.Hash
	gatewayURL := &receipt.GatewayURL
	updated, err := m.archive.UpdateRecording(ctx, recordingID, models.RecordingUpdate{
		RemoteHash:       &remoteHash,
		RemoteGatewayURL: &gatewayURL,
	})
	if err != nil {
		return models.Recording{}, err
	}
	progress(100)

	m.archive.JournalEvent(ctx, models.JournalEventTypeRecordingUploaded,
		models.JournalEventRecordingRelated{RecordingID: recordingID})

	// The payload now lives with the collaborator
	if err := m.spool.remove(recordingID); err != nil {
		log.WithError(err).WithFields(logTags).Warn("Spooled payload cleanup failed")
	}

	log.WithFields(logTags).WithField("recording", recordingID).
		WithField("hash", receipt.Hash).Info("Recording forwarded")
	return *updated, nil
}

// uploadMetadata descriptors sent with a forwarded recording
func (m *sessionManagerImpl) uploadMetadata(recording models.Recording) pinning.UploadMetadata {
	contentType := ""
	if recording.AudioType != nil {
		contentType = *recording.AudioType
	}
	if recording.VideoType != nil {
		contentType = *recording.VideoType
	}

	keyvalues := map[string]string{
		"userId":   recording.UserID,
		"recordId": recording.ID,
		"duration": strconv.FormatInt(recording.Duration, 10),
	}
	if recording.Location != nil {
		keyvalues["location"] = fmt.Sprintf(
			"%s, %s", recording.Location.City, recording.Location.State,
		)
	}

	return pinning.UploadMetadata{
		Name:        fmt.Sprintf("recording-%s", recording.ID),
		ContentType: contentType,
		Keyvalues:   keyvalues,
	}
}

/*
Delete remove a finalized recording.

The local entry and spooled payload are removed. A remote copy is
unpinned best-effort; unpin failure is logged and the local delete
stands.

	@param ctx context.Context - execution context
	@param recordingID string - the recording to remove
*/
func (m *sessionManagerImpl) Delete(ctx context.Context, recordingID string) error {
	logTags := m.GetLogTagsForContext(ctx)

	recording, err := m.archive.GetRecording(ctx, recordingID)
	if err != nil && !errors.Is(err, store.ErrRecordingNotFound) {
		return err
	}

	if recording != nil && recording.RemoteHash != nil && m.pinner != nil {
		if err := m.pinner.Unpin(ctx, *recording.RemoteHash); err != nil {
			log.WithError(err).WithFields(logTags).WithField("recording", recordingID).
				Warn("Remote unpin failed")
		}
	}

	if err := m.spool.remove(recordingID); err != nil {
		log.WithError(err).WithFields(logTags).Warn("Spooled payload cleanup failed")
	}

	return m.archive.DeleteRecording(ctx, recordingID)
}
