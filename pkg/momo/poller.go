// Package momo drives the mobile-money checkout flow: it validates the
// payer's number, initiates a charge through the API client, and polls the
// status endpoint at a fixed interval until the charge reaches a terminal
// state or the attempt budget runs out.
package momo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sankofalearn/sankofa-go/pkg/api"
)

// Status is the client-side lifecycle of one charge.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are possible.
func (status Status) Terminal() bool {
	return status == StatusSuccessful || status == StatusFailed
}

// Poller and transaction failure values.
var (
	ErrInvalidPollerConfig = errors.New("invalid poller config")
	ErrInvalidAmount       = errors.New("invalid payment amount")
	ErrInvalidBundleID     = errors.New("invalid bundle id")
	ErrInitiateRejected    = errors.New("payment initiation rejected")
	ErrPaymentDeclined     = errors.New("payment failed")
	ErrConfirmationTimeout = errors.New("payment confirmation timed out, no response from payer")
	ErrStatusUnverified    = errors.New("unable to verify payment status, contact support")
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxAttempts  = 12
)

// PaymentAPI is the slice of the API client the poller needs.
type PaymentAPI interface {
	InitiatePayment(ctx context.Context, phoneNumber string, amount float64, bundleID int64) (api.InitiatePaymentResult, error)
	PaymentStatus(ctx context.Context, transactionID string) (api.PaymentStatusResult, error)
}

// Callbacks notify the caller of charge progress. Each terminal callback
// fires at most once per transaction; nil callbacks are skipped.
type Callbacks struct {
	OnPromptSent  func(transactionID string)
	OnSuccess     func(transactionID string)
	OnFailure     func(failure error)
	OnStateChange func(status Status)
}

// Poller owns at most one active charge at a time. Starting a new charge
// stops the previous transaction's polling.
type Poller struct {
	payments    PaymentAPI
	interval    time.Duration
	maxAttempts int
	logger      *zap.Logger

	mu      sync.Mutex
	current *Transaction
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the fixed delay between status polls.
func WithInterval(interval time.Duration) PollerOption {
	return func(poller *Poller) {
		poller.interval = interval
	}
}

// WithMaxAttempts bounds the number of status polls per charge.
func WithMaxAttempts(maxAttempts int) PollerOption {
	return func(poller *Poller) {
		poller.maxAttempts = maxAttempts
	}
}

// WithLogger wires a structured logger for poll progress.
func WithLogger(logger *zap.Logger) PollerOption {
	return func(poller *Poller) {
		poller.logger = logger
	}
}

// NewPoller wires a Poller over the payment API.
func NewPoller(payments PaymentAPI, options ...PollerOption) (*Poller, error) {
	if payments == nil {
		return nil, fmt.Errorf("%w: payment api dependency is nil", ErrInvalidPollerConfig)
	}
	poller := &Poller{
		payments:    payments,
		interval:    defaultPollInterval,
		maxAttempts: defaultMaxAttempts,
		logger:      zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(poller)
		}
	}
	if poller.interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidPollerConfig)
	}
	if poller.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts must be at least one", ErrInvalidPollerConfig)
	}
	return poller, nil
}

// Transaction is one charge in flight. Stop cancels future polls; Done
// closes when the transaction reaches a terminal state or is stopped.
type Transaction struct {
	phoneNumber string
	amount      float64
	bundleID    int64

	cancel context.CancelFunc
	done   chan struct{}

	mu            sync.Mutex
	status        Status
	transactionID string
	failure       error
	finished      bool
}

// Status returns the current lifecycle state.
func (transaction *Transaction) Status() Status {
	transaction.mu.Lock()
	defer transaction.mu.Unlock()
	return transaction.status
}

// TransactionID returns the backend-assigned identifier, empty until the
// charge is accepted.
func (transaction *Transaction) TransactionID() string {
	transaction.mu.Lock()
	defer transaction.mu.Unlock()
	return transaction.transactionID
}

// Err returns the terminal failure, if any.
func (transaction *Transaction) Err() error {
	transaction.mu.Lock()
	defer transaction.mu.Unlock()
	return transaction.failure
}

// PhoneNumber returns the normalized payer number.
func (transaction *Transaction) PhoneNumber() string {
	return transaction.phoneNumber
}

// Stop cancels the transaction: no further polls are scheduled and no
// callbacks fire afterwards. Safe to call more than once.
func (transaction *Transaction) Stop() {
	transaction.cancel()
	transaction.mu.Lock()
	if !transaction.finished {
		transaction.finished = true
		close(transaction.done)
	}
	transaction.mu.Unlock()
}

// Done closes when the transaction is terminal or stopped.
func (transaction *Transaction) Done() <-chan struct{} {
	return transaction.done
}

func (transaction *Transaction) setStatus(status Status, callbacks Callbacks) {
	transaction.mu.Lock()
	if transaction.finished {
		transaction.mu.Unlock()
		return
	}
	changed := transaction.status != status
	transaction.status = status
	transaction.mu.Unlock()
	if changed && callbacks.OnStateChange != nil {
		callbacks.OnStateChange(status)
	}
}

// finish records a terminal state and fires the matching callback at most once.
func (transaction *Transaction) finish(status Status, failure error, callbacks Callbacks) {
	transaction.mu.Lock()
	if transaction.finished {
		transaction.mu.Unlock()
		return
	}
	transaction.finished = true
	transaction.status = status
	transaction.failure = failure
	transactionID := transaction.transactionID
	close(transaction.done)
	transaction.mu.Unlock()

	if callbacks.OnStateChange != nil {
		callbacks.OnStateChange(status)
	}
	switch status {
	case StatusSuccessful:
		if callbacks.OnSuccess != nil {
			callbacks.OnSuccess(transactionID)
		}
	case StatusFailed:
		if callbacks.OnFailure != nil {
			callbacks.OnFailure(failure)
		}
	}
}

// Start validates the payer's number, initiates the charge, and begins
// polling in the background. Validation failures return before any network
// call. The previous transaction of this poller, if still running, is
// stopped first.
func (poller *Poller) Start(ctx context.Context, rawPhone string, amount float64, bundleID int64, callbacks Callbacks) (*Transaction, error) {
	phoneNumber, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if bundleID <= 0 {
		return nil, fmt.Errorf("%w: must be greater than zero", ErrInvalidBundleID)
	}

	runCtx, cancel := context.WithCancel(ctx)
	transaction := &Transaction{
		phoneNumber: phoneNumber,
		amount:      amount,
		bundleID:    bundleID,
		cancel:      cancel,
		done:        make(chan struct{}),
		status:      StatusIdle,
	}

	poller.mu.Lock()
	if poller.current != nil {
		poller.current.Stop()
	}
	poller.current = transaction
	poller.mu.Unlock()

	go poller.run(runCtx, transaction, callbacks)
	return transaction, nil
}

func (poller *Poller) run(ctx context.Context, transaction *Transaction, callbacks Callbacks) {
	transaction.setStatus(StatusProcessing, callbacks)

	result, err := poller.payments.InitiatePayment(ctx, transaction.phoneNumber, transaction.amount, transaction.bundleID)
	if ctx.Err() != nil {
		transaction.Stop()
		return
	}
	if err != nil {
		transaction.finish(StatusFailed, err, callbacks)
		return
	}
	if !result.Success {
		transaction.finish(StatusFailed, initiateFailure(result.Message), callbacks)
		return
	}

	transaction.mu.Lock()
	transaction.transactionID = result.TransactionID
	alreadyFinished := transaction.finished
	transaction.mu.Unlock()
	if alreadyFinished {
		return
	}

	transaction.setStatus(StatusPending, callbacks)
	if callbacks.OnPromptSent != nil {
		callbacks.OnPromptSent(result.TransactionID)
	}
	poller.logger.Info("charge initiated, polling for confirmation",
		zap.String("transaction_id", result.TransactionID),
		zap.Int("max_attempts", poller.maxAttempts))

	poller.poll(ctx, transaction, callbacks)
}

// poll drives the Pending state: fixed-interval status checks with a hard
// attempt ceiling. A failing poll request is retryable like a PENDING
// answer; only the ceiling or a terminal backend status ends the loop.
func (poller *Poller) poll(ctx context.Context, transaction *Transaction, callbacks Callbacks) {
	transactionID := transaction.TransactionID()
	timer := time.NewTimer(poller.interval)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			transaction.Stop()
			return
		case <-timer.C:
		}

		result, err := poller.payments.PaymentStatus(ctx, transactionID)
		if ctx.Err() != nil {
			transaction.Stop()
			return
		}
		if err != nil {
			poller.logger.Warn("status poll failed",
				zap.String("transaction_id", transactionID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if attempt >= poller.maxAttempts {
				transaction.finish(StatusFailed, ErrStatusUnverified, callbacks)
				return
			}
			timer.Reset(poller.interval)
			continue
		}

		switch result.Status {
		case api.PaymentStatusSuccessful:
			transaction.finish(StatusSuccessful, nil, callbacks)
			return
		case api.PaymentStatusFailed:
			transaction.finish(StatusFailed, ErrPaymentDeclined, callbacks)
			return
		default:
			// PENDING and UNKNOWN both mean "ask again".
			if attempt >= poller.maxAttempts {
				transaction.finish(StatusFailed, ErrConfirmationTimeout, callbacks)
				return
			}
			timer.Reset(poller.interval)
		}
	}
}

func initiateFailure(message string) error {
	if message == "" {
		return ErrInitiateRejected
	}
	return fmt.Errorf("%w: %s", ErrInitiateRejected, message)
}
