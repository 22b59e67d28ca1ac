// Package witness - device-local incident recording engine
package witness

import (
	"context"
	"fmt"

	"github.com/alwitt/witness/billing"
	"github.com/alwitt/witness/capture"
	"github.com/alwitt/witness/content"
	"github.com/alwitt/witness/db"
	"github.com/alwitt/witness/location"
	"github.com/alwitt/witness/pinning"
	"github.com/alwitt/witness/store"
	"github.com/alwitt/witness/subscription"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Engine the assembled recording engine
type Engine struct {
	// Store the device archive
	Store store.DeviceStore
	// Location the location resolver
	Location location.Resolver
	// Sessions the recording session manager
	Sessions capture.SessionManager
	// Subscription the subscription gate
	Subscription subscription.Gate
	// Content the rights guidance provider
	Content content.Provider
}

// EngineParams parameters for assembling a recording engine
type EngineParams struct {
	// DBDialector GORM dialector for the device archive file
	DBDialector gorm.Dialector
	// DBLogLevel SQL log level
	DBLogLevel logger.LogLevel
	// SpoolDirectory directory holding payloads awaiting forward
	SpoolDirectory string

	// MediaDevice capture hardware
	MediaDevice capture.MediaDevice
	// PositionProvider device position hardware. Optional.
	PositionProvider location.PositionProvider
	// IPLocator IP lookup client. Nil uses the public ip-api.com endpoint.
	IPLocator location.IPLocator
	// Geocoder reverse geocoding client. Nil uses the public Open-Meteo endpoint.
	Geocoder location.ReverseGeocoder
	// Pinner pinning collaborator client. Optional; nil disables forwarding.
	Pinner pinning.Pinner
	// Billing billing collaborator client. Nil runs the offline simulator.
	Billing billing.Billing

	// SessionOptions optional capture session knobs
	SessionOptions capture.SessionOptions
}

/*
New assemble a recording engine.

Each instance is backed by a SQL database holding one device archive; two
instances on the same database see the same user, recordings and settings.

	@param ctx context.Context - execution context
	@param params EngineParams - assembly parameters
	@returns new engine instance
*/
func New(ctx context.Context, params EngineParams) (*Engine, error) {
	// Prepare persistence
	persistence, err := db.NewConnection(params.DBDialector, params.DBLogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized persistence client [%w]", err)
	}

	archive, err := store.NewDeviceStore(ctx, persistence, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized device store [%w]", err)
	}

	resolver, err := location.NewResolver(
		ctx, archive, params.PositionProvider, params.IPLocator, params.Geocoder, 0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized location resolver [%w]", err)
	}

	billingClient := params.Billing
	if billingClient == nil {
		billingClient = billing.NewBillingSimulator(nil)
	}
	gate, err := subscription.NewGate(ctx, archive, billingClient, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized subscription gate [%w]", err)
	}

	sessions, err := capture.NewSessionManager(
		ctx,
		archive,
		params.MediaDevice,
		params.Pinner,
		resolver,
		gate,
		params.SpoolDirectory,
		params.SessionOptions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialized session manager [%w]", err)
	}

	return &Engine{
		Store:        archive,
		Location:     resolver,
		Sessions:     sessions,
		Subscription: gate,
		Content:      content.NewStaticProvider(archive),
	}, nil
}
