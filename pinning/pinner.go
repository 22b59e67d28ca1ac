// Package pinning forwards recording payloads to a remote pinning
// collaborator. The collaborator addresses payloads by content hash; local
// recording entries keep only that hash and a retrieval URL, and the remote
// copy's lifecycle is independent of the local one.
package pinning

import (
	"context"
	"io"
	"time"
)

// UploadMetadata descriptors sent alongside a pinned payload
type UploadMetadata struct {
	// Name display name for the pinned payload
	Name string
	// ContentType payload MIME type
	ContentType string
	// Keyvalues free-form descriptor pairs
	Keyvalues map[string]string
}

// PinReceipt what the collaborator reports after pinning a payload
type PinReceipt struct {
	// Hash content hash addressing the pinned payload
	Hash string
	// PinSize pinned payload size in bytes
	PinSize int64
	// Timestamp when the payload was pinned
	Timestamp time.Time
	// GatewayURL retrieval URL for the pinned payload
	GatewayURL string
}

// PinListEntry one entry of the collaborator's pin listing
type PinListEntry struct {
	// Hash content hash of the pinned payload
	Hash string
	// Size pinned payload size in bytes
	Size int64
	// PinnedAt when the payload was pinned
	PinnedAt time.Time
	// Name display name the payload was pinned under
	Name string
}

// Pinner client for a remote pinning collaborator
type Pinner interface {
	/*
		Pin forward a payload to the collaborator

			@param ctx context.Context - execution context
			@param payload io.Reader - payload content
			@param size int64 - payload size in bytes
			@param metadata UploadMetadata - payload descriptors
			@returns the pin receipt
	*/
	Pin(ctx context.Context, payload io.Reader, size int64, metadata UploadMetadata) (PinReceipt, error)

	/*
		Unpin release a pinned payload

			@param ctx context.Context - execution context
			@param hash string - content hash of the pinned payload
	*/
	Unpin(ctx context.Context, hash string) error

	/*
		ListPins list payloads currently pinned with the collaborator

			@param ctx context.Context - execution context
			@returns the pin listing
	*/
	ListPins(ctx context.Context) ([]PinListEntry, error)
}
