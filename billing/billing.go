// Package billing talks to the remote billing collaborator. The collaborator
// owns payment truth; this package only reports what it said, and callers
// decide what to record locally.
package billing

import (
	"context"
	"time"
)

// SubscriptionStateActive the collaborator considers the subscription active
const SubscriptionStateActive = "active"

// SubscriptionStateCanceled the collaborator considers the subscription canceled
const SubscriptionStateCanceled = "canceled"

// PaymentStateSucceeded the collaborator accepted the payment
const PaymentStateSucceeded = "succeeded"

// SubscriptionRecord what the collaborator reports about one subscription
type SubscriptionRecord struct {
	// ID subscription ID assigned by the collaborator
	ID string `json:"id"`
	// Status subscription status as the collaborator sees it
	Status string `json:"status"`
	// CurrentPeriodEnd when the current billing period ends
	CurrentPeriodEnd time.Time `json:"current_period_end"`
}

// PaymentReceipt what the collaborator reports about one one-time payment
type PaymentReceipt struct {
	// ID payment ID assigned by the collaborator
	ID string `json:"id"`
	// Status payment status as the collaborator sees it
	Status string `json:"status"`
	// AmountCents charged amount in cents
	AmountCents int64 `json:"amount"`
}

// Billing client for the remote billing collaborator
type Billing interface {
	/*
		CreateSubscription start a new recurring subscription

			@param ctx context.Context - execution context
			@param paymentMethodID string - payment method reference
			@returns the new subscription
	*/
	CreateSubscription(ctx context.Context, paymentMethodID string) (SubscriptionRecord, error)

	/*
		CancelSubscription cancel a recurring subscription

			@param ctx context.Context - execution context
			@param subscriptionID string - the subscription to cancel
			@returns the subscription after cancellation
	*/
	CancelSubscription(ctx context.Context, subscriptionID string) (SubscriptionRecord, error)

	/*
		GetSubscriptionStatus read the current state of a subscription

			@param ctx context.Context - execution context
			@param subscriptionID string - the subscription to read
			@returns the subscription
	*/
	GetSubscriptionStatus(ctx context.Context, subscriptionID string) (SubscriptionRecord, error)

	/*
		ProcessOneTimePayment charge a single payment

			@param ctx context.Context - execution context
			@param amountCents int64 - amount in cents
			@param paymentMethodID string - payment method reference
			@returns the payment receipt
	*/
	ProcessOneTimePayment(
		ctx context.Context, amountCents int64, paymentMethodID string,
	) (PaymentReceipt, error)
}
