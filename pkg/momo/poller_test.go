package momo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sankofalearn/sankofa-go/pkg/api"
)

const (
	validPhoneValue    = "0241234567"
	transactionIDValue = "txn-2024-0001"
	bundleIDValue      = int64(3)
	amountValue        = 25.0
	doneWaitBudget     = 5 * time.Second
	testPollInterval   = time.Millisecond
)

type statusReply struct {
	status string
	err    error
}

type stubPayments struct {
	mu            sync.Mutex
	initiateError error
	initiateOK    bool
	rejectMessage string
	statusQueue   []statusReply
	initiateCalls int
	statusCalls   int
}

func (payments *stubPayments) InitiatePayment(ctx context.Context, phoneNumber string, amount float64, bundleID int64) (api.InitiatePaymentResult, error) {
	payments.mu.Lock()
	defer payments.mu.Unlock()
	payments.initiateCalls++
	if payments.initiateError != nil {
		return api.InitiatePaymentResult{}, payments.initiateError
	}
	if !payments.initiateOK {
		return api.InitiatePaymentResult{Success: false, Message: payments.rejectMessage}, nil
	}
	return api.InitiatePaymentResult{Success: true, TransactionID: transactionIDValue, Message: "prompt sent"}, nil
}

func (payments *stubPayments) PaymentStatus(ctx context.Context, transactionID string) (api.PaymentStatusResult, error) {
	payments.mu.Lock()
	defer payments.mu.Unlock()
	payments.statusCalls++
	if len(payments.statusQueue) == 0 {
		return api.PaymentStatusResult{Success: true, Status: api.PaymentStatusPending, TransactionID: transactionID}, nil
	}
	reply := payments.statusQueue[0]
	payments.statusQueue = payments.statusQueue[1:]
	if reply.err != nil {
		return api.PaymentStatusResult{}, reply.err
	}
	return api.PaymentStatusResult{Success: true, Status: reply.status, TransactionID: transactionID}, nil
}

func (payments *stubPayments) countStatusCalls() int {
	payments.mu.Lock()
	defer payments.mu.Unlock()
	return payments.statusCalls
}

func (payments *stubPayments) countInitiateCalls() int {
	payments.mu.Lock()
	defer payments.mu.Unlock()
	return payments.initiateCalls
}

// recorder captures callback invocations thread-safely.
type recorder struct {
	mu           sync.Mutex
	states       []Status
	successIDs   []string
	failures     []error
	promptSentID string
}

func (record *recorder) callbacks() Callbacks {
	return Callbacks{
		OnPromptSent: func(transactionID string) {
			record.mu.Lock()
			defer record.mu.Unlock()
			record.promptSentID = transactionID
		},
		OnSuccess: func(transactionID string) {
			record.mu.Lock()
			defer record.mu.Unlock()
			record.successIDs = append(record.successIDs, transactionID)
		},
		OnFailure: func(failure error) {
			record.mu.Lock()
			defer record.mu.Unlock()
			record.failures = append(record.failures, failure)
		},
		OnStateChange: func(status Status) {
			record.mu.Lock()
			defer record.mu.Unlock()
			record.states = append(record.states, status)
		},
	}
}

func mustPoller(test *testing.T, payments PaymentAPI, options ...PollerOption) *Poller {
	test.Helper()
	poller, err := NewPoller(payments, options...)
	if err != nil {
		test.Fatalf("new poller: %v", err)
	}
	return poller
}

func waitDone(test *testing.T, transaction *Transaction) {
	test.Helper()
	select {
	case <-transaction.Done():
	case <-time.After(doneWaitBudget):
		test.Fatalf("transaction did not finish in time")
	}
}

func TestPollerSuccessAfterPendingPolls(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{
		initiateOK: true,
		statusQueue: []statusReply{
			{status: api.PaymentStatusPending},
			{status: api.PaymentStatusPending},
			{status: api.PaymentStatusSuccessful},
		},
	}
	record := &recorder{}
	poller := mustPoller(test, payments, WithInterval(testPollInterval), WithMaxAttempts(10))

	transaction, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, record.callbacks())
	if err != nil {
		test.Fatalf("start: %v", err)
	}
	waitDone(test, transaction)

	if got := transaction.Status(); got != StatusSuccessful {
		test.Fatalf("expected terminal %s, got %s", StatusSuccessful, got)
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	if len(record.successIDs) != 1 {
		test.Fatalf("expected exactly one success callback, got %d", len(record.successIDs))
	}
	if record.successIDs[0] != transactionIDValue {
		test.Fatalf("expected original transaction id %q, got %q", transactionIDValue, record.successIDs[0])
	}
	if record.promptSentID != transactionIDValue {
		test.Fatalf("expected prompt-sent notification with %q, got %q", transactionIDValue, record.promptSentID)
	}
	wantStates := []Status{StatusProcessing, StatusPending, StatusSuccessful}
	if len(record.states) != len(wantStates) {
		test.Fatalf("expected states %v, got %v", wantStates, record.states)
	}
	for i, want := range wantStates {
		if record.states[i] != want {
			test.Fatalf("expected states %v, got %v", wantStates, record.states)
		}
	}
	if payments.countStatusCalls() != 3 {
		test.Fatalf("expected three polls, got %d", payments.countStatusCalls())
	}
}

func TestPollerTimesOutAfterMaxAttempts(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{initiateOK: true}
	record := &recorder{}
	poller := mustPoller(test, payments, WithInterval(testPollInterval), WithMaxAttempts(3))

	transaction, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, record.callbacks())
	if err != nil {
		test.Fatalf("start: %v", err)
	}
	waitDone(test, transaction)

	if got := transaction.Status(); got != StatusFailed {
		test.Fatalf("expected terminal %s, got %s", StatusFailed, got)
	}
	if !errors.Is(transaction.Err(), ErrConfirmationTimeout) {
		test.Fatalf("expected timeout failure, got %v", transaction.Err())
	}
	pollsAtFinish := payments.countStatusCalls()
	if pollsAtFinish != 3 {
		test.Fatalf("expected exactly three polls, got %d", pollsAtFinish)
	}
	time.Sleep(20 * testPollInterval)
	if payments.countStatusCalls() != pollsAtFinish {
		test.Fatalf("expected no polls after terminal state, got %d more",
			payments.countStatusCalls()-pollsAtFinish)
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	if len(record.failures) != 1 {
		test.Fatalf("expected exactly one failure callback, got %d", len(record.failures))
	}
}

func TestPollerTransientPollErrorIsRetried(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{
		initiateOK: true,
		statusQueue: []statusReply{
			{err: &api.APIError{Code: api.ErrCodeNetwork, Message: "connection reset"}},
			{status: api.PaymentStatusPending},
			{status: api.PaymentStatusSuccessful},
		},
	}
	record := &recorder{}
	poller := mustPoller(test, payments, WithInterval(testPollInterval), WithMaxAttempts(10))

	transaction, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, record.callbacks())
	if err != nil {
		test.Fatalf("start: %v", err)
	}
	waitDone(test, transaction)

	if got := transaction.Status(); got != StatusSuccessful {
		test.Fatalf("expected recovery to %s, got %s", StatusSuccessful, got)
	}
	if payments.countStatusCalls() != 3 {
		test.Fatalf("expected three polls, got %d", payments.countStatusCalls())
	}
}

func TestPollerReportsUnverifiedWhenPollsKeepFailing(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{
		initiateOK: true,
		statusQueue: []statusReply{
			{err: &api.APIError{Code: api.ErrCodeServer}},
			{err: &api.APIError{Code: api.ErrCodeServer}},
		},
	}
	record := &recorder{}
	poller := mustPoller(test, payments, WithInterval(testPollInterval), WithMaxAttempts(2))

	transaction, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, record.callbacks())
	if err != nil {
		test.Fatalf("start: %v", err)
	}
	waitDone(test, transaction)

	if !errors.Is(transaction.Err(), ErrStatusUnverified) {
		test.Fatalf("expected unverified failure, got %v", transaction.Err())
	}
}

func TestPollerDeclinedPayment(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{
		initiateOK:  true,
		statusQueue: []statusReply{{status: api.PaymentStatusFailed}},
	}
	record := &recorder{}
	poller := mustPoller(test, payments, WithInterval(testPollInterval), WithMaxAttempts(5))

	transaction, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, record.callbacks())
	if err != nil {
		test.Fatalf("start: %v", err)
	}
	waitDone(test, transaction)

	if !errors.Is(transaction.Err(), ErrPaymentDeclined) {
		test.Fatalf("expected declined failure, got %v", transaction.Err())
	}
}

func TestPollerInitiateRejectionSurfacesBackendMessage(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{rejectMessage: "insufficient wallet balance"}
	record := &recorder{}
	poller := mustPoller(test, payments, WithInterval(testPollInterval), WithMaxAttempts(5))

	transaction, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, record.callbacks())
	if err != nil {
		test.Fatalf("start: %v", err)
	}
	waitDone(test, transaction)

	failure := transaction.Err()
	if !errors.Is(failure, ErrInitiateRejected) {
		test.Fatalf("expected initiate rejection, got %v", failure)
	}
	if !strings.Contains(failure.Error(), "insufficient wallet balance") {
		test.Fatalf("expected backend message surfaced verbatim, got %q", failure.Error())
	}
	if payments.countStatusCalls() != 0 {
		test.Fatalf("expected no polls after rejected initiate, got %d", payments.countStatusCalls())
	}
}

func TestPollerInvalidPhoneMakesNoNetworkCall(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{initiateOK: true}
	poller := mustPoller(test, payments, WithInterval(testPollInterval), WithMaxAttempts(5))

	_, err := poller.Start(context.Background(), "0201234567", amountValue, bundleIDValue, Callbacks{})
	if !errors.Is(err, ErrUnsupportedNetwork) {
		test.Fatalf("expected unsupported network error, got %v", err)
	}
	if payments.countInitiateCalls() != 0 {
		test.Fatalf("expected no initiate call for invalid phone, got %d", payments.countInitiateCalls())
	}
}

func TestPollerRejectsInvalidAmountAndBundle(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{initiateOK: true}
	poller := mustPoller(test, payments, WithInterval(testPollInterval), WithMaxAttempts(5))

	if _, err := poller.Start(context.Background(), validPhoneValue, 0, bundleIDValue, Callbacks{}); !errors.Is(err, ErrInvalidAmount) {
		test.Fatalf("expected invalid amount error, got %v", err)
	}
	if _, err := poller.Start(context.Background(), validPhoneValue, amountValue, 0, Callbacks{}); !errors.Is(err, ErrInvalidBundleID) {
		test.Fatalf("expected invalid bundle error, got %v", err)
	}
}

func TestStopPreventsFurtherPollsAndCallbacks(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{initiateOK: true}
	record := &recorder{}
	poller := mustPoller(test, payments, WithInterval(50*time.Millisecond), WithMaxAttempts(100))

	transaction, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, record.callbacks())
	if err != nil {
		test.Fatalf("start: %v", err)
	}
	transaction.Stop()
	waitDone(test, transaction)

	pollsAtStop := payments.countStatusCalls()
	time.Sleep(150 * time.Millisecond)
	if payments.countStatusCalls() > pollsAtStop+1 {
		test.Fatalf("expected polling to stop, got %d extra polls",
			payments.countStatusCalls()-pollsAtStop)
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	if len(record.successIDs) != 0 || len(record.failures) != 0 {
		test.Fatalf("expected no terminal callbacks after stop, got %d successes %d failures",
			len(record.successIDs), len(record.failures))
	}
}

func TestStartInvalidatesPreviousTransaction(test *testing.T) {
	test.Parallel()
	payments := &stubPayments{initiateOK: true}
	poller := mustPoller(test, payments, WithInterval(50*time.Millisecond), WithMaxAttempts(100))

	first, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, Callbacks{})
	if err != nil {
		test.Fatalf("start first: %v", err)
	}
	second, err := poller.Start(context.Background(), validPhoneValue, amountValue, bundleIDValue, Callbacks{})
	if err != nil {
		test.Fatalf("start second: %v", err)
	}
	waitDone(test, first)
	second.Stop()
}

func TestNewPollerValidatesConfig(test *testing.T) {
	test.Parallel()
	if _, err := NewPoller(nil); !errors.Is(err, ErrInvalidPollerConfig) {
		test.Fatalf("expected config error for nil api, got %v", err)
	}
	payments := &stubPayments{}
	if _, err := NewPoller(payments, WithInterval(-time.Second)); !errors.Is(err, ErrInvalidPollerConfig) {
		test.Fatalf("expected config error for negative interval, got %v", err)
	}
	if _, err := NewPoller(payments, WithMaxAttempts(0)); !errors.Is(err, ErrInvalidPollerConfig) {
		test.Fatalf("expected config error for zero attempts, got %v", err)
	}
}
