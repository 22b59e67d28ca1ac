package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SubscriptionPeriod length of one simulated billing period
const SubscriptionPeriod = time.Hour * 24 * 30

// billingSimulator implements Billing without a backend. Every operation
// succeeds deterministically; subscriptions run in fixed periods from their
// creation instant.
type billingSimulator struct {
	lock          sync.Mutex
	timeSource    func() time.Time
	subscriptions map[string]SubscriptionRecord
}

/*
NewBillingSimulator define an offline billing simulator

	@param timeSource func() time.Time - clock used for period calculations.
	    Nil for the wall clock.
	@returns billing client instance
*/
func NewBillingSimulator(timeSource func() time.Time) Billing {
	if timeSource == nil {
		timeSource = time.Now
	}
	return &billingSimulator{
		timeSource:    timeSource,
		subscriptions: map[string]SubscriptionRecord{},
	}
}

func (b *billingSimulator) CreateSubscription(
	_ context.Context, _ string,
) (SubscriptionRecord, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	record := SubscriptionRecord{
		ID:               fmt.Sprintf("sub_%s", ulid.Make().String()),
		Status:           SubscriptionStateActive,
		CurrentPeriodEnd: b.timeSource().Add(SubscriptionPeriod),
	}
	b.subscriptions[record.ID] = record
	return record, nil
}

func (b *billingSimulator) CancelSubscription(
	_ context.Context, subscriptionID string,
) (SubscriptionRecord, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	record, ok := b.subscriptions[subscriptionID]
	if !ok {
		return SubscriptionRecord{}, fmt.Errorf("unknown subscription '%s'", subscriptionID)
	}
	record.Status = SubscriptionStateCanceled
	b.subscriptions[subscriptionID] = record
	return record, nil
}

func (b *billingSimulator) GetSubscriptionStatus(
	_ context.Context, subscriptionID string,
) (SubscriptionRecord, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	record, ok := b.subscriptions[subscriptionID]
	if !ok {
		return SubscriptionRecord{}, fmt.Errorf("unknown subscription '%s'", subscriptionID)
	}
	return record, nil
}

func (b *billingSimulator) ProcessOneTimePayment(
	_ context.Context, amountCents int64, _ string,
) (PaymentReceipt, error) {
	return PaymentReceipt{
		ID:          fmt.Sprintf("pay_%s", ulid.Make().String()),
		Status:      PaymentStateSucceeded,
		AmountCents: amountCents,
	}, nil
}
