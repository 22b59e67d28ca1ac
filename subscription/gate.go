// Package subscription applies the billing collaborator's answers to the
// local user profile and decides premium entitlement from it.
package subscription

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/witness/billing"
	"github.com/alwitt/witness/models"
	"github.com/alwitt/witness/store"
	"github.com/apex/log"
)

// LifetimePriceCents one-time lifetime purchase price
const LifetimePriceCents int64 = 1999

// Gate subscription lifecycle and premium entitlement checks.
//
// Billing collaborator failures leave the local profile untouched; the
// profile only changes after the collaborator has answered.
type Gate interface {
	/*
		HasPremiumAccess whether the user's stored status is premium or lifetime.

		Purely a status derivation. A lapsed expiry is reported through
		IsExpired; it does not flip this verdict on its own.

			@param ctx context.Context - execution context
			@returns entitlement verdict
	*/
	HasPremiumAccess(ctx context.Context) bool

	/*
		IsExpired whether a premium subscription's expiry has passed

			@param ctx context.Context - execution context
			@returns expiry verdict
	*/
	IsExpired(ctx context.Context) bool

	/*
		DaysUntilExpiry days remaining before the subscription expires, rounded
		up. Nil when the profile carries no expiry.

			@param ctx context.Context - execution context
			@returns remaining days, or nil
	*/
	DaysUntilExpiry(ctx context.Context) *int

	/*
		Upgrade start a recurring premium subscription

			@param ctx context.Context - execution context
			@param paymentMethodID string - payment method reference
			@returns the updated user profile
	*/
	Upgrade(ctx context.Context, paymentMethodID string) (models.UserProfile, error)

	/*
		Cancel cancel the recurring subscription and return to the free tier

			@param ctx context.Context - execution context
			@returns the updated user profile
	*/
	Cancel(ctx context.Context) (models.UserProfile, error)

	/*
		PurchaseLifetime buy lifetime entitlement with a one-time payment

			@param ctx context.Context - execution context
			@param paymentMethodID string - payment method reference
			@returns the updated user profile
	*/
	PurchaseLifetime(ctx context.Context, paymentMethodID string) (models.UserProfile, error)

	/*
		RefreshStatus re-read the subscription from the billing collaborator
		and reconcile the local profile against it. A subscription the
		collaborator no longer considers active downgrades the profile to free.

			@param ctx context.Context - execution context
			@returns the reconciled user profile
	*/
	RefreshStatus(ctx context.Context) (models.UserProfile, error)
}

// gateImpl implements Gate
type gateImpl struct {
	goutils.Component

	archive store.DeviceStore
	billing billing.Billing

	timeSource func() time.Time
}

/*
NewGate define a subscription gate

	@param ctx context.Context - execution context
	@param archive store.DeviceStore - device archive holding the user profile
	@param billingClient billing.Billing - billing collaborator client
	@param timeSource func() time.Time - clock used for expiry checks. Nil for
	    the wall clock.
	@returns gate instance
*/
func NewGate(
	_ context.Context,
	archive store.DeviceStore,
	billingClient billing.Billing,
	timeSource func() time.Time,
) (Gate, error) {
	if archive == nil {
		return nil, fmt.Errorf("device archive is required")
	}
	if billingClient == nil {
		return nil, fmt.Errorf("billing client is required")
	}
	if timeSource == nil {
		timeSource = time.Now
	}
	return &gateImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "subscription", "component": "gate"},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		archive:    archive,
		billing:    billingClient,
		timeSource: timeSource,
	}, nil
}

/*
HasPremiumAccess whether the user's stored status is premium or lifetime.

Purely a status derivation. A lapsed expiry is reported through
IsExpired; it does not flip this verdict on its own.

	@param ctx context.Context - execution context
	@returns entitlement verdict
*/
func (g *gateImpl) HasPremiumAccess(ctx context.Context) bool {
	profile := g.archive.GetUser(ctx)
	switch profile.SubscriptionStatus {
	case models.SubscriptionStatusLifetime, models.SubscriptionStatusPremium:
		return true
	}
	return false
}

/*
IsExpired whether a premium subscription's expiry has passed

	@param ctx context.Context - execution context
	@returns expiry verdict
*/
func (g *gateImpl) IsExpired(ctx context.Context) bool {
	return g.expired(g.archive.GetUser(ctx))
}

// expired expiry check against the gate's clock. Profiles without an expiry
// never expire.
func (g *gateImpl) expired(profile models.UserProfile) bool {
	if profile.SubscriptionStatus != models.SubscriptionStatusPremium ||
		profile.SubscriptionExpiry == nil {
		return false
	}
	return g.timeSource().After(*profile.SubscriptionExpiry)
}

/*
DaysUntilExpiry days remaining before the subscription expires, rounded
up. Nil when the profile carries no expiry.

	@param ctx context.Context - execution context
	@returns remaining days, or nil
*/
func (g *gateImpl) DaysUntilExpiry(ctx context.Context) *int {
	profile := g.archive.GetUser(ctx)
	if profile.SubscriptionStatus != models.SubscriptionStatusPremium ||
		profile.SubscriptionExpiry == nil {
		return nil
	}
	remaining := profile.SubscriptionExpiry.Sub(g.timeSource())
	days := int(math.Ceil(remaining.Hours() / 24))
	return &days
}

/*
Upgrade start a recurring premium subscription

	@param ctx context.Context - execution context
	@param paymentMethodID string - payment method reference
	@returns the updated user profile
*/
func (g *gateImpl) Upgrade(
	ctx context.Context, paymentMethodID string,
) (models.UserProfile, error) {
	logTags := g.GetLogTagsForContext(ctx)

	record, err := g.billing.CreateSubscription(ctx, paymentMethodID)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Subscription creation failed")
		return models.UserProfile{}, fmt.Errorf("subscription creation failed [%w]", err)
	}
	if record.Status != billing.SubscriptionStateActive {
		return models.UserProfile{}, fmt.Errorf(
			"billing reported subscription status '%s'", record.Status,
		)
	}

	newStatus := models.SubscriptionStatusPremium
	expiry := &record.CurrentPeriodEnd
	subscriptionID := &record.ID
	profile, err := g.archive.UpdateUser(ctx, models.UserProfileUpdate{
		SubscriptionStatus: &newStatus,
		SubscriptionExpiry: &expiry,
		SubscriptionID:     &subscriptionID,
	})
	if err != nil {
		return models.UserProfile{}, err
	}

	log.WithFields(logTags).WithField("subscription", record.ID).Info("Upgraded to premium")
	g.archive.JournalEvent(
		ctx,
		models.JournalEventTypeSubscriptionChanged,
		models.JournalEventSubscriptionRelated{NewStatus: newStatus},
	)
	return profile, nil
}

/*
Cancel cancel the recurring subscription and return to the free tier

	@param ctx context.Context - execution context
	@returns the updated user profile
*/
func (g *gateImpl) Cancel(ctx context.Context) (models.UserProfile, error) {
	logTags := g.GetLogTagsForContext(ctx)

	profile := g.archive.GetUser(ctx)
	if profile.SubscriptionID != nil {
		if _, err := g.billing.CancelSubscription(ctx, *profile.SubscriptionID); err != nil {
			log.WithError(err).WithFields(logTags).Error("Subscription cancellation failed")
			return models.UserProfile{}, fmt.Errorf("subscription cancellation failed [%w]", err)
		}
	}

	return g.downgradeToFree(ctx)
}

// downgradeToFree clear subscription state on the profile and journal the change
func (g *gateImpl) downgradeToFree(ctx context.Context) (models.UserProfile, error) {
	newStatus := models.SubscriptionStatusFree
	var clearedExpiry *time.Time
	var clearedID *string
	profile, err := g.archive.UpdateUser(ctx, models.UserProfileUpdate{
		SubscriptionStatus: &newStatus,
		SubscriptionExpiry: &clearedExpiry,
		SubscriptionID:     &clearedID,
	})
	if err != nil {
		return models.UserProfile{}, err
	}

	g.archive.JournalEvent(
		ctx,
		models.JournalEventTypeSubscriptionChanged,
		models.JournalEventSubscriptionRelated{NewStatus: newStatus},
	)
	return profile, nil
}

/*
PurchaseLifetime buy lifetime entitlement with a one-time payment

	@param ctx context.Context - execution context
	@param paymentMethodID string - payment method reference
	@returns the updated user profile
*/
func (g *gateImpl) PurchaseLifetime(
	ctx context.Context, paymentMethodID string,
) (models.UserProfile, error) {
	logTags := g.GetLogTagsForContext(ctx)

	receipt, err := g.billing.ProcessOneTimePayment(ctx, LifetimePriceCents, paymentMethodID)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Lifetime payment failed")
		return models.UserProfile{}, fmt.Errorf("lifetime payment failed [%w]", err)
	}
	if receipt.Status != billing.PaymentStateSucceeded {
		return models.UserProfile{}, fmt.Errorf(
			"billing reported payment status '%s'", receipt.Status,
		)
	}

	newStatus := models.SubscriptionStatusLifetime
	var clearedExpiry *time.Time
	var clearedID *string
	profile, err := g.archive.UpdateUser(ctx, models.UserProfileUpdate{
		SubscriptionStatus: &newStatus,
		SubscriptionExpiry: &clearedExpiry,
		SubscriptionID:     &clearedID,
	})
	if err != nil {
		return models.UserProfile{}, err
	}

	log.WithFields(logTags).WithField("payment", receipt.ID).Info("Lifetime access purchased")
	g.archive.JournalEvent(
		ctx,
		models.JournalEventTypeSubscriptionChanged,
		models.JournalEventSubscriptionRelated{NewStatus: newStatus},
	)
	return profile, nil
}

/*
RefreshStatus re-read the subscription from the billing collaborator
and reconcile the local profile against it. A subscription the
collaborator no longer considers active downgrades the profile to free.

	@param ctx context.Context - execution context
	@returns the reconciled user profile
*/
func (g *gateImpl) RefreshStatus(ctx context.Context) (models.UserProfile, error) {
	logTags := g.GetLogTagsForContext(ctx)

	profile := g.archive.GetUser(ctx)
	if profile.SubscriptionStatus != models.SubscriptionStatusPremium ||
		profile.SubscriptionID == nil {
		// Free and lifetime profiles have nothing to reconcile
		return profile, nil
	}

	record, err := g.billing.GetSubscriptionStatus(ctx, *profile.SubscriptionID)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Subscription status check failed")
		return models.UserProfile{}, fmt.Errorf("subscription status check failed [%w]", err)
	}

	if record.Status != billing.SubscriptionStateActive {
		log.WithFields(logTags).WithField("status", record.Status).
			Info("Subscription no longer active")
		return g.downgradeToFree(ctx)
	}

	expiry := &record.CurrentPeriodEnd
	return g.archive.UpdateUser(ctx, models.UserProfileUpdate{
		SubscriptionExpiry: &expiry,
	})
}
