package pinning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// metadataNameKey object metadata key holding the upload display name
const metadataNameKey = "X-Amz-Meta-Display-Name"

// ObjectStoreConfig connection parameters for an S3-compatible pinning target
type ObjectStoreConfig struct {
	// Endpoint object store endpoint host
	Endpoint string `validate:"required"`
	// AccessKey object store access key
	AccessKey string `validate:"required"`
	// SecretKey object store secret key
	SecretKey string `validate:"required"`
	// Bucket bucket holding pinned payloads
	Bucket string `validate:"required"`
	// Secure whether to connect over TLS
	Secure bool
	// GatewayURL base URL for retrieval links. Empty derives one from the endpoint.
	GatewayURL string
}

// objectStorePinner implements Pinner against an S3-compatible object store.
// Payloads are addressed by their SHA-256 content hash, so pinning the same
// payload twice lands on the same object.
type objectStorePinner struct {
	goutils.Component

	client  *minio.Client
	bucket  string
	gateway string
}

/*
NewObjectStorePinner define a pinner backed by an S3-compatible object store

	@param config ObjectStoreConfig - connection parameters
	@returns pinner instance
*/
func NewObjectStorePinner(config ObjectStoreConfig) (Pinner, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect with object store [%w]", err)
	}

	gateway := config.GatewayURL
	if gateway == "" {
		scheme := "http"
		if config.Secure {
			scheme = "https"
		}
		gateway = fmt.Sprintf("%s://%s/%s", scheme, config.Endpoint, config.Bucket)
	}

	return &objectStorePinner{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "pinning", "component": "object-store-client"},
		},
		client:  client,
		bucket:  config.Bucket,
		gateway: gateway,
	}, nil
}

/*
Pin forward a payload to the collaborator

	@param ctx context.Context - execution context
	@param payload io.Reader - payload content
	@param size int64 - payload size in bytes
	@param metadata UploadMetadata - payload descriptors
	@returns the pin receipt
*/
func (p *objectStorePinner) Pin(
	ctx context.Context, payload io.Reader, size int64, metadata UploadMetadata,
) (PinReceipt, error) {
	logTags := p.GetLogTagsForContext(ctx)

	// The object key is the payload hash, so the payload is staged locally
	// to hash it before the upload starts
	staging, err := os.CreateTemp("", "pin-staging-")
	if err != nil {
		return PinReceipt{}, fmt.Errorf("failed to stage payload [%w]", err)
	}
	defer func() {
		_ = staging.Close()
		_ = os.Remove(staging.Name())
	}()

	hasher := sha256.New()
	stagedSize, err := io.Copy(io.MultiWriter(staging, hasher), payload)
	if err != nil {
		return PinReceipt{}, fmt.Errorf("failed to stage payload [%w]", err)
	}
	if size >= 0 && stagedSize != size {
		return PinReceipt{}, fmt.Errorf(
			"payload size mismatch: expected %d, read %d", size, stagedSize,
		)
	}
	if _, err := staging.Seek(0, io.SeekStart); err != nil {
		return PinReceipt{}, fmt.Errorf("failed to rewind staged payload [%w]", err)
	}

	objectKey := hex.EncodeToString(hasher.Sum(nil))

	userMetadata := map[string]string{}
	for key, value := range metadata.Keyvalues {
		userMetadata[key] = value
	}
	if metadata.Name != "" {
		userMetadata[metadataNameKey] = metadata.Name
	}

	info, err := p.client.PutObject(
		ctx, p.bucket, objectKey, staging, stagedSize, minio.PutObjectOptions{
			ContentType:  metadata.ContentType,
			UserMetadata: userMetadata,
		},
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Pin upload failed")
		return PinReceipt{}, fmt.Errorf("pin upload failed [%w]", err)
	}

	return PinReceipt{
		Hash:       objectKey,
		PinSize:    info.Size,
		Timestamp:  time.Now().UTC(),
		GatewayURL: fmt.Sprintf("%s/%s", p.gateway, objectKey),
	}, nil
}

/*
Unpin release a pinned payload

	@param ctx context.Context - execution context
	@param hash string - content hash of the pinned payload
*/
func (p *objectStorePinner) Unpin(ctx context.Context, hash string) error {
	logTags := p.GetLogTagsForContext(ctx)

	if err := p.client.RemoveObject(
		ctx, p.bucket, hash, minio.RemoveObjectOptions{},
	); err != nil {
		log.WithError(err).WithFields(logTags).Error("Unpin failed")
		return fmt.Errorf("unpin failed [%w]", err)
	}
	return nil
}

/*
ListPins list payloads currently pinned with the collaborator

	@param ctx context.Context - execution context
	@returns the pin listing
*/
func (p *objectStorePinner) ListPins(ctx context.Context) ([]PinListEntry, error) {
	result := []PinListEntry{}
	for object := range p.client.ListObjects(
		ctx, p.bucket, minio.ListObjectsOptions{WithMetadata: true},
	) {
		if object.Err != nil {
			return nil, fmt.Errorf("pin listing failed [%w]", object.Err)
		}
		result = append(result, PinListEntry{
			Hash:     object.Key,
			Size:     object.Size,
			PinnedAt: object.LastModified,
			Name:     object.UserMetadata[metadataNameKey],
		})
	}
	return result, nil
}
