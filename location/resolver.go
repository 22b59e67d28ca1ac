package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/witness/models"
	"github.com/alwitt/witness/store"
	"github.com/apex/log"
)

// Position device coordinates as reported by the position hardware
type Position struct {
	// Latitude decimal degrees
	Latitude float64
	// Longitude decimal degrees
	Longitude float64
	// Accuracy position accuracy in meters
	Accuracy float64
}

// ErrPositionPermissionDenied the user denied access to the position hardware
var ErrPositionPermissionDenied = errors.New("position access permission denied")

// ErrPositionTimeout the position hardware did not answer within the bound
var ErrPositionTimeout = errors.New("position request timed out")

// ErrPositionUnavailable no position hardware is available
var ErrPositionUnavailable = errors.New("position hardware unavailable")

// PositionProvider access to the device's position hardware
type PositionProvider interface {
	/*
		CurrentPosition read the device's current coordinates.

		Implementations must respect context cancellation; the resolver also
		enforces its own bound around this call and treats overrun as
		`ErrPositionTimeout`.

			@param ctx context.Context - execution context
			@returns current coordinates
	*/
	CurrentPosition(ctx context.Context) (Position, error)
}

// DefaultStateCode the state assumed when every resolution tier fails
const DefaultStateCode = "CA"

// DefaultPositionTimeout bound on waiting for the device position tier
const DefaultPositionTimeout = time.Second * 10

// CurrentLocationCacheKey cache key holding the resolved location
const CurrentLocationCacheKey = "current_location"

// CurrentLocationCacheTTL how long a resolved location stays fresh
const CurrentLocationCacheTTL = time.Minute * 60

// LawReferenceCacheTTL how long a state legal reference stays fresh
const LawReferenceCacheTTL = time.Hour * 24

// lawReferenceCacheKey cache key holding the legal reference of one state
func lawReferenceCacheKey(stateCode string) string {
	return fmt.Sprintf("state_law_%s", stateCode)
}

// defaultLocation the static tier-3 fallback
func defaultLocation() models.LocationSnapshot {
	return models.LocationSnapshot{
		Latitude:    34.0522,
		Longitude:   -118.2437,
		City:        "Los Angeles",
		State:       DefaultStateCode,
		StateName:   "California",
		Country:     "United States",
		CountryCode: "US",
		Method:      models.LocationMethodDefault,
	}
}

// Resolver resolves the device's location and state legal references.
//
// Resolution walks three tiers in order: device position hardware (reverse
// geocoded), IP-based lookup, then a static default. Tier failures are
// non-fatal; only exhaustion of all tiers produces the default, which never
// fails.
type Resolver interface {
	/*
		CurrentLocation resolve the device's current location.

		A fresh cached resolution short-circuits the tiers unless a forced
		refresh is requested. This call never fails; cache and tier failures
		are logged.

			@param ctx context.Context - execution context
			@param forceRefresh bool - bypass the cached resolution
			@returns the location snapshot
	*/
	CurrentLocation(ctx context.Context, forceRefresh bool) models.LocationSnapshot

	/*
		SetManualState override the state directly, bypassing all tiers.

		Updates the cached location and persists the choice as the user's
		default state preference.

			@param ctx context.Context - execution context
			@param stateCode string - two-letter state code
			@returns the manual location snapshot
	*/
	SetManualState(ctx context.Context, stateCode string) (models.LocationSnapshot, error)

	/*
		StateLawReference fetch the legal reference for a state

			@param ctx context.Context - execution context
			@param stateCode string - two-letter state code
			@returns the legal reference
	*/
	StateLawReference(ctx context.Context, stateCode string) (LawReference, error)
}

// resolverImpl implements Resolver
type resolverImpl struct {
	goutils.Component

	archive store.DeviceStore

	positionProvider PositionProvider
	positionTimeout  time.Duration

	ipLocator IPLocator
	geocoder  ReverseGeocoder
}

/*
NewResolver define a new location resolver

	@param ctx context.Context - execution context
	@param archive store.DeviceStore - device archive for caching and preferences
	@param positionProvider PositionProvider - device position tier. Pass nil
	    when the device has no position hardware; resolution starts at the IP tier.
	@param ipLocator IPLocator - IP lookup tier
	@param geocoder ReverseGeocoder - reverse geocoding for the device tier
	@param positionTimeout time.Duration - bound on the device tier. Zero for
	    the default.
	@returns resolver instance
*/
func NewResolver(
	_ context.Context,
	archive store.DeviceStore,
	positionProvider PositionProvider,
	ipLocator IPLocator,
	geocoder ReverseGeocoder,
	positionTimeout time.Duration,
) (Resolver, error) {
	logTags := log.Fields{"module": "location", "component": "resolver"}

	if archive == nil {
		return nil, fmt.Errorf("device archive is required")
	}
	if ipLocator == nil {
		ipLocator = NewIPAPILocator("", 0)
	}
	if geocoder == nil {
		geocoder = NewOpenMeteoGeocoder("", 0)
	}
	if positionTimeout == 0 {
		positionTimeout = DefaultPositionTimeout
	}

	instance := &resolverImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		archive:          archive,
		positionProvider: positionProvider,
		positionTimeout:  positionTimeout,
		ipLocator:        ipLocator,
		geocoder:         geocoder,
	}

	return instance, nil
}

/*
CurrentLocation resolve the device's current location.

A fresh cached resolution short-circuits the tiers unless a forced
refresh is requested. This call never fails; cache and tier failures
are logged.

	@param ctx context.Context - execution context
	@param forceRefresh bool - bypass the cached resolution
	@returns the location snapshot
*/
func (r *resolverImpl) CurrentLocation(
	ctx context.Context, forceRefresh bool,
) models.LocationSnapshot {
	if !forceRefresh {
		var cached models.LocationSnapshot
		hit, err := r.archive.GetFromCache(ctx, CurrentLocationCacheKey, &cached)
		if err != nil {
			log.WithError(err).WithFields(r.LogTags).Warn("Location cache read failed")
		}
		if hit {
			return cached
		}
	}

	resolved := r.resolveThroughTiers(ctx)

	if err := r.archive.SaveToCache(
		ctx, CurrentLocationCacheKey, resolved, CurrentLocationCacheTTL,
	); err != nil {
		log.WithError(err).WithFields(r.LogTags).Warn("Location cache write failed")
	}

	return resolved
}

// resolveThroughTiers walk the resolution tiers in order
func (r *resolverImpl) resolveThroughTiers(ctx context.Context) models.LocationSnapshot {
	// Tier 1: device position hardware
	if r.positionProvider != nil {
		if snapshot, err := r.resolveFromDevice(ctx); err == nil {
			return snapshot
		} else {
			log.WithError(err).WithFields(r.LogTags).Info("Device position tier failed")
		}
	}

	// Tier 2: IP-based lookup
	if snapshot, err := r.ipLocator.LocateByIP(ctx); err == nil {
		return snapshot
	} else {
		log.WithError(err).WithFields(r.LogTags).Info("IP lookup tier failed")
	}

	// Tier 3: static default
	return defaultLocation()
}

// resolveFromDevice read device coordinates within the bound, then reverse
// geocode them
func (r *resolverImpl) resolveFromDevice(ctx context.Context) (models.LocationSnapshot, error) {
	boundedCtx, cancel := context.WithTimeout(ctx, r.positionTimeout)
	defer cancel()

	type positionResult struct {
		position Position
		err      error
	}
	resultChan := make(chan positionResult, 1)
	go func() {
		position, err := r.positionProvider.CurrentPosition(boundedCtx)
		resultChan <- positionResult{position: position, err: err}
	}()

	var position Position
	select {
	case result := <-resultChan:
		if result.err != nil {
			return models.LocationSnapshot{}, result.err
		}
		position = result.position
	case <-boundedCtx.Done():
		return models.LocationSnapshot{}, ErrPositionTimeout
	}

	snapshot, err := r.geocoder.ReverseGeocode(ctx, position.Latitude, position.Longitude)
	if err != nil {
		// Coordinates are still usable; degrade to them with the default state
		log.WithError(err).WithFields(r.LogTags).Info("Reverse geocoding failed")
		snapshot = models.LocationSnapshot{
			Latitude:  position.Latitude,
			Longitude: position.Longitude,
			City:      "Unknown",
			State:     DefaultStateCode,
			Method:    models.LocationMethodGeocoding,
		}
	}

	accuracy := position.Accuracy
	snapshot.Accuracy = &accuracy
	return snapshot, nil
}

/*
SetManualState override the state directly, bypassing all tiers.

Updates the cached location and persists the choice as the user's
default state preference.

	@param ctx context.Context - execution context
	@param stateCode string - two-letter state code
	@returns the manual location snapshot
*/
func (r *resolverImpl) SetManualState(
	ctx context.Context, stateCode string,
) (models.LocationSnapshot, error) {
	if !models.IsValidStateCode(stateCode) {
		return models.LocationSnapshot{}, fmt.Errorf("'%s' is not a US state code", stateCode)
	}

	var stateName string
	for name, code := range stateNameToCode {
		if code == stateCode {
			stateName = name
			break
		}
	}

	snapshot := models.LocationSnapshot{
		State:     stateCode,
		StateName: stateName,
		Country:   "United States",
		Method:    models.LocationMethodManual,
	}

	if err := r.archive.SaveToCache(
		ctx, CurrentLocationCacheKey, snapshot, CurrentLocationCacheTTL,
	); err != nil {
		return models.LocationSnapshot{}, fmt.Errorf("failed to cache manual location [%w]", err)
	}

	if _, err := r.archive.UpdateUser(ctx, models.UserProfileUpdate{
		Preferences: &models.PreferencesUpdate{DefaultState: &stateCode},
	}); err != nil {
		return models.LocationSnapshot{}, fmt.Errorf(
			"failed to persist default state preference [%w]", err,
		)
	}

	return snapshot, nil
}

/*
StateLawReference fetch the legal reference for a state

	@param ctx context.Context - execution context
	@param stateCode string - two-letter state code
	@returns the legal reference
*/
func (r *resolverImpl) StateLawReference(
	ctx context.Context, stateCode string,
) (LawReference, error) {
	if !models.IsValidStateCode(stateCode) {
		return LawReference{}, fmt.Errorf("'%s' is not a US state code", stateCode)
	}

	cacheKey := lawReferenceCacheKey(stateCode)

	var cached LawReference
	hit, err := r.archive.GetFromCache(ctx, cacheKey, &cached)
	if err != nil {
		log.WithError(err).WithFields(r.LogTags).Warn("Law reference cache read failed")
	}
	if hit {
		return cached, nil
	}

	reference := lawReferenceForState(stateCode)

	if err := r.archive.SaveToCache(ctx, cacheKey, reference, LawReferenceCacheTTL); err != nil {
		log.WithError(err).WithFields(r.LogTags).Warn("Law reference cache write failed")
	}

	return reference, nil
}
