package subscription_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alwitt/witness/billing"
	"github.com/alwitt/witness/db"
	"github.com/alwitt/witness/models"
	"github.com/alwitt/witness/store"
	"github.com/alwitt/witness/subscription"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// defineTestArchive build a device store against a fresh temporary archive
func defineTestArchive(t *testing.T) store.DeviceStore {
	assert := assert.New(t)

	utCtx := context.Background()

	testDB := fmt.Sprintf("/tmp/witness_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	persistence, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(persistence.RunSQLInTransaction(utCtx, db.DefineTables))

	archive, err := store.NewDeviceStore(utCtx, persistence, nil)
	assert.Nil(err)
	return archive
}

func TestGateUpgradeAndCancel(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t)

	currentTime := time.Now().UTC()
	clock := func() time.Time { return currentTime }

	uut, err := subscription.NewGate(utCtx, archive, billing.NewBillingSimulator(clock), clock)
	assert.Nil(err)

	// Fresh profile has no entitlement
	assert.False(uut.HasPremiumAccess(utCtx))
	assert.False(uut.IsExpired(utCtx))
	assert.Nil(uut.DaysUntilExpiry(utCtx))

	// Upgrade
	profile, err := uut.Upgrade(utCtx, "pm_test")
	assert.Nil(err)
	assert.Equal(models.SubscriptionStatusPremium, profile.SubscriptionStatus)
	assert.NotNil(profile.SubscriptionID)
	assert.NotNil(profile.SubscriptionExpiry)
	assert.True(uut.HasPremiumAccess(utCtx))

	// Full period remaining
	days := uut.DaysUntilExpiry(utCtx)
	assert.NotNil(days)
	assert.Equal(30, *days)

	// Cancel returns to the free tier
	profile, err = uut.Cancel(utCtx)
	assert.Nil(err)
	assert.Equal(models.SubscriptionStatusFree, profile.SubscriptionStatus)
	assert.Nil(profile.SubscriptionID)
	assert.Nil(profile.SubscriptionExpiry)
	assert.False(uut.HasPremiumAccess(utCtx))

	// Both changes journaled
	events, err := archive.Journal(utCtx, db.JournalQueryFilter{
		EventTypes: []models.JournalEventTypeENUMType{models.JournalEventTypeSubscriptionChanged},
	})
	assert.Nil(err)
	assert.Len(events, 2)
}

func TestGateExpiry(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t)

	currentTime := time.Now().UTC()
	clock := func() time.Time { return currentTime }

	uut, err := subscription.NewGate(utCtx, archive, billing.NewBillingSimulator(clock), clock)
	assert.Nil(err)

	_, err = uut.Upgrade(utCtx, "pm_test")
	assert.Nil(err)
	assert.True(uut.HasPremiumAccess(utCtx))

	// Exactly at the period end the subscription is still current
	currentTime = currentTime.Add(billing.SubscriptionPeriod)
	assert.False(uut.IsExpired(utCtx))

	// 31 days in the subscription has lapsed. The stored status stays
	// premium until a refresh or cancel changes it, so the entitlement
	// verdict does too.
	currentTime = currentTime.Add(time.Hour * 24)
	assert.True(uut.IsExpired(utCtx))
	assert.True(uut.HasPremiumAccess(utCtx))

	days := uut.DaysUntilExpiry(utCtx)
	assert.NotNil(days)
	assert.Equal(-1, *days)
}

func TestGateLifetime(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t)

	currentTime := time.Now().UTC()
	clock := func() time.Time { return currentTime }

	uut, err := subscription.NewGate(utCtx, archive, billing.NewBillingSimulator(clock), clock)
	assert.Nil(err)

	profile, err := uut.PurchaseLifetime(utCtx, "pm_test")
	assert.Nil(err)
	assert.Equal(models.SubscriptionStatusLifetime, profile.SubscriptionStatus)
	assert.Nil(profile.SubscriptionExpiry)
	assert.Nil(profile.SubscriptionID)

	// Lifetime entitlement never lapses
	currentTime = currentTime.Add(time.Hour * 24 * 365 * 10)
	assert.True(uut.HasPremiumAccess(utCtx))
	assert.False(uut.IsExpired(utCtx))
	assert.Nil(uut.DaysUntilExpiry(utCtx))
}

func TestGateRefreshStatusDowngradesCanceled(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t)

	currentTime := time.Now().UTC()
	clock := func() time.Time { return currentTime }

	simulator := billing.NewBillingSimulator(clock)
	uut, err := subscription.NewGate(utCtx, archive, simulator, clock)
	assert.Nil(err)

	profile, err := uut.Upgrade(utCtx, "pm_test")
	assert.Nil(err)

	// The collaborator cancels the subscription out of band
	_, err = simulator.CancelSubscription(utCtx, *profile.SubscriptionID)
	assert.Nil(err)

	// Reconciliation downgrades the profile
	profile, err = uut.RefreshStatus(utCtx)
	assert.Nil(err)
	assert.Equal(models.SubscriptionStatusFree, profile.SubscriptionStatus)
	assert.False(uut.HasPremiumAccess(utCtx))
}

type failingBilling struct{}

func (f failingBilling) CreateSubscription(
	_ context.Context, _ string,
) (billing.SubscriptionRecord, error) {
	return billing.SubscriptionRecord{}, fmt.Errorf("billing outage")
}

func (f failingBilling) CancelSubscription(
	_ context.Context, _ string,
) (billing.SubscriptionRecord, error) {
	return billing.SubscriptionRecord{}, fmt.Errorf("billing outage")
}

func (f failingBilling) GetSubscriptionStatus(
	_ context.Context, _ string,
) (billing.SubscriptionRecord, error) {
	return billing.SubscriptionRecord{}, fmt.Errorf("billing outage")
}

func (f failingBilling) ProcessOneTimePayment(
	_ context.Context, _ int64, _ string,
) (billing.PaymentReceipt, error) {
	return billing.PaymentReceipt{}, fmt.Errorf("billing outage")
}

func TestGateFailuresLeaveProfileUntouched(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	archive := defineTestArchive(t)

	uut, err := subscription.NewGate(utCtx, archive, failingBilling{}, nil)
	assert.Nil(err)

	_, err = uut.Upgrade(utCtx, "pm_test")
	assert.Error(err)
	_, err = uut.PurchaseLifetime(utCtx, "pm_test")
	assert.Error(err)

	profile := archive.GetUser(utCtx)
	assert.Equal(models.SubscriptionStatusFree, profile.SubscriptionStatus)
	assert.Nil(profile.SubscriptionID)

	// No subscription events journaled
	events, err := archive.Journal(utCtx, db.JournalQueryFilter{
		EventTypes: []models.JournalEventTypeENUMType{models.JournalEventTypeSubscriptionChanged},
	})
	assert.Nil(err)
	assert.Empty(events)
}
