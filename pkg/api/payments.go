package api

import (
	"context"
	"net/http"
)

type initiatePaymentRequest struct {
	PhoneNumber string  `json:"phone_number"`
	Amount      float64 `json:"amount"`
	BundleID    int64   `json:"bundle_id"`
}

// InitiatePayment asks the backend to send a mobile-money charge prompt to
// the payer's device. The phone number must already be in international
// format; momo.NormalizePhone produces it.
func (client *Client) InitiatePayment(ctx context.Context, phoneNumber string, amount float64, bundleID int64) (InitiatePaymentResult, error) {
	var result InitiatePaymentResult
	err := client.do(ctx, http.MethodPost, "/api/ecommerce/mtn-momo/initiate/",
		initiatePaymentRequest{PhoneNumber: phoneNumber, Amount: amount, BundleID: bundleID}, &result)
	if err != nil {
		return InitiatePaymentResult{}, err
	}
	return result, nil
}

// PaymentStatus reports the current state of a charge.
func (client *Client) PaymentStatus(ctx context.Context, transactionID string) (PaymentStatusResult, error) {
	var result PaymentStatusResult
	path := "/api/ecommerce/mtn-momo/status/" + transactionID + "/"
	if err := client.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return PaymentStatusResult{}, err
	}
	return result, nil
}

// CancelPayment abandons a pending charge.
func (client *Client) CancelPayment(ctx context.Context, transactionID string) error {
	path := "/api/ecommerce/mtn-momo/cancel/" + transactionID + "/"
	return client.do(ctx, http.MethodPost, path, nil, nil)
}
