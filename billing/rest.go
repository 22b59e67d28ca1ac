package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// DefaultBillingTimeout bound on billing API calls
const DefaultBillingTimeout = time.Second * 15

// restBilling implements Billing against a REST billing backend
type restBilling struct {
	goutils.Component

	endpoint string
	apiKey   string
	client   *http.Client
}

/*
NewRESTBilling define a billing client against a REST backend

	@param endpoint string - billing backend endpoint
	@param apiKey string - backend API key
	@param timeout time.Duration - bound on API calls. Zero for the default.
	@returns billing client instance
*/
func NewRESTBilling(endpoint, apiKey string, timeout time.Duration) (Billing, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("billing endpoint is required")
	}
	if timeout == 0 {
		timeout = DefaultBillingTimeout
	}
	return &restBilling{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "billing", "component": "rest-client"},
		},
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// call issue one API call and parse the response into target
func (b *restBilling) call(
	ctx context.Context, method, path string, payload interface{}, target interface{},
) error {
	logTags := b.GetLogTagsForContext(ctx)

	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request payload [%w]", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	request, err := http.NewRequestWithContext(
		ctx, method, fmt.Sprintf("%s%s", b.endpoint, path), body,
	)
	if err != nil {
		return fmt.Errorf("failed to build billing request [%w]", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", b.apiKey))
	}

	response, err := b.client.Do(request)
	if err != nil {
		log.WithError(err).WithFields(logTags).WithField("path", path).
			Error("Billing call failed")
		return fmt.Errorf("billing call failed [%w]", err)
	}
	defer func() { _ = response.Body.Close() }()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("billing call returned status %d", response.StatusCode)
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to parse billing response [%w]", err)
	}
	return nil
}

/*
CreateSubscription start a new recurring subscription

	@param ctx context.Context - execution context
	@param paymentMethodID string - payment method reference
	@returns the new subscription
*/
func (b *restBilling) CreateSubscription(
	ctx context.Context, paymentMethodID string,
) (SubscriptionRecord, error) {
	var result SubscriptionRecord
	err := b.call(ctx, http.MethodPost, "/subscriptions", map[string]string{
		"payment_method": paymentMethodID,
	}, &result)
	return result, err
}

/*
CancelSubscription cancel a recurring subscription

	@param ctx context.Context - execution context
	@param subscriptionID string - the subscription to cancel
	@returns the subscription after cancellation
*/
func (b *restBilling) CancelSubscription(
	ctx context.Context, subscriptionID string,
) (SubscriptionRecord, error) {
	var result SubscriptionRecord
	err := b.call(
		ctx, http.MethodDelete, fmt.Sprintf("/subscriptions/%s", subscriptionID), nil, &result,
	)
	return result, err
}

/*
GetSubscriptionStatus read the current state of a subscription

	@param ctx context.Context - execution context
	@param subscriptionID string - the subscription to read
	@returns the subscription
*/
func (b *restBilling) GetSubscriptionStatus(
	ctx context.Context, subscriptionID string,
) (SubscriptionRecord, error) {
	var result SubscriptionRecord
	err := b.call(
		ctx, http.MethodGet, fmt.Sprintf("/subscriptions/%s", subscriptionID), nil, &result,
	)
	return result, err
}

/*
ProcessOneTimePayment charge a single payment

	@param ctx context.Context - execution context
	@param amountCents int64 - amount in cents
	@param paymentMethodID string - payment method reference
	@returns the payment receipt
*/
func (b *restBilling) ProcessOneTimePayment(
	ctx context.Context, amountCents int64, paymentMethodID string,
) (PaymentReceipt, error) {
	var result PaymentReceipt
	err := b.call(ctx, http.MethodPost, "/payments", map[string]interface{}{
		"amount":         amountCents,
		"payment_method": paymentMethodID,
	}, &result)
	return result, err
}
