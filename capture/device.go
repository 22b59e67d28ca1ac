// Package capture runs the recording lifecycle: acquiring the media device,
// tracking the live session, finalizing recordings into the device archive,
// and moving payloads to and from the remote pinning collaborator.
package capture

import (
	"context"
	"errors"

	"github.com/alwitt/witness/models"
)

// ErrPermissionDenied the user denied access to the media device
var ErrPermissionDenied = errors.New("media device permission denied")

// ErrDeviceBusy the media device is held by another consumer
var ErrDeviceBusy = errors.New("media device busy")

// CapturedMedia a finalized capture payload
type CapturedMedia struct {
	// Payload the captured media content
	Payload []byte
	// AudioType audio MIME type. Always set.
	AudioType string
	// VideoType video MIME type. Set only for video captures.
	VideoType string
}

// CaptureHandle one live acquisition of the media device
type CaptureHandle interface {
	/*
		Finalize stop capturing and return the buffered payload

			@returns the captured media
	*/
	Finalize() (CapturedMedia, error)

	/*
		Discard stop capturing and drop the buffered payload
	*/
	Discard() error
}

// MediaDevice access to the device's capture hardware
type MediaDevice interface {
	/*
		Acquire begin capturing media

			@param ctx context.Context - execution context
			@param kind models.MediaKindENUMType - capture media kind
			@param quality models.RecordingQualityENUMType - capture quality
			@returns handle on the live capture
	*/
	Acquire(
		ctx context.Context,
		kind models.MediaKindENUMType,
		quality models.RecordingQualityENUMType,
	) (CaptureHandle, error)
}
