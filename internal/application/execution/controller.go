package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain"
	"github.com/apppayai/payflow/internal/domain/interfaces"
	"github.com/apppayai/payflow/internal/domain/models"
)

var ErrNoRoute = errors.New("no route selected")

// Controller drives the fixed three-step payment pipeline:
// approval -> transaction -> confirmation. The machine is strictly linear
// and non-resumable; a failed attempt restarts from approval on the next
// invocation. Concurrent ExecutePayment calls are not guarded; the caller
// gates on IsProcessing.
type Controller struct {
	terms      *models.PaymentTerms
	wallet     interfaces.WalletProvider
	onComplete func(*models.PaymentResult)
	logger     zerolog.Logger

	mu          sync.RWMutex
	processing  bool
	currentStep int
	steps       []models.ExecutionStep
	errMessage  string
	errType     models.ErrorType
}

// NewController builds an execution controller for one loaded payment.
// wallet may be nil when no submission capability is available; execution
// then fails fast with the no_wallet error type.
func NewController(
	terms *models.PaymentTerms,
	wallet interfaces.WalletProvider,
	onComplete func(*models.PaymentResult),
	logger zerolog.Logger,
) *Controller {
	return &Controller{
		terms:      terms,
		wallet:     wallet,
		onComplete: onComplete,
		logger:     logger,
		steps:      models.DefaultSteps(),
	}
}

// ExecutePayment runs the pipeline for the selected route. All failures are
// recovered into the controller's error state; the returned error carries
// the same information for callers that prefer it. The completion callback
// fires exactly once on success and never on failure.
func (c *Controller) ExecutePayment(ctx context.Context, route *models.Route) error {
	if c.wallet == nil {
		// No step transitions occur: the pipeline is never entered.
		err := &domain.ExecutionError{Kind: models.ErrorNoWallet, Err: domain.ErrNoWallet}
		c.mu.Lock()
		c.errMessage = "No wallet detected. Connect a wallet to pay."
		c.errType = models.ErrorNoWallet
		c.mu.Unlock()
		return err
	}

	if route == nil {
		err := &domain.ExecutionError{Kind: models.ErrorGeneric, Err: ErrNoRoute}
		c.mu.Lock()
		c.errMessage = ErrNoRoute.Error()
		c.errType = models.ErrorGeneric
		c.mu.Unlock()
		return err
	}

	attemptID := uuid.New().String()

	c.mu.Lock()
	c.processing = true
	c.errMessage = ""
	c.errType = models.ErrorNone
	c.steps = models.DefaultSteps()
	c.currentStep = 0
	c.mu.Unlock()

	// Released on every exit path, success or failure.
	defer func() {
		c.mu.Lock()
		c.processing = false
		c.mu.Unlock()
	}()

	c.logger.Info().
		Str("attempt_id", attemptID).
		Str("payment_id", c.terms.PaymentID).
		Str("route_id", route.ID).
		Msg("Starting payment execution")

	var txHash string

	steps := []struct {
		index int
		run   func(context.Context) error
	}{
		{0, func(ctx context.Context) error {
			needsApproval, err := c.wallet.NeedsApproval(ctx, route)
			if err != nil {
				return err
			}
			if needsApproval {
				return c.wallet.Approve(ctx, route)
			}
			return nil
		}},
		{1, func(ctx context.Context) error {
			hash, err := c.wallet.SubmitPayment(ctx, route)
			if err != nil {
				return err
			}
			txHash = hash
			return nil
		}},
		{2, func(ctx context.Context) error {
			return c.wallet.WaitForConfirmation(ctx, txHash)
		}},
	}

	for _, step := range steps {
		// The index failed on error is the step actually in progress: it is
		// advanced by this loop alone, never read back asynchronously.
		c.setStepStatus(step.index, models.StepProcessing)

		if err := step.run(ctx); err != nil {
			c.setStepStatus(step.index, models.StepFailed)
			c.recordFailure(attemptID, step.index, err)
			return err
		}

		c.setStepStatus(step.index, models.StepCompleted)
	}

	result := &models.PaymentResult{
		PaymentID:       c.terms.PaymentID,
		TransactionHash: txHash,
		Amount:          c.terms.Amount,
		Currency:        c.terms.Currency,
		Status:          models.ResultCompleted,
		Timestamp:       time.Now(),
	}

	c.logger.Info().
		Str("attempt_id", attemptID).
		Str("payment_id", c.terms.PaymentID).
		Str("tx_hash", txHash).
		Msg("Payment execution completed")

	if c.onComplete != nil {
		c.onComplete(result)
	}

	return nil
}

func (c *Controller) setStepStatus(index int, status models.StepStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.steps[index].Status = status
	c.currentStep = index
}

func (c *Controller) recordFailure(attemptID string, stepIndex int, err error) {
	kind := domain.ClassifyExecution(err)

	c.mu.Lock()
	c.errMessage = err.Error()
	c.errType = kind
	c.mu.Unlock()

	c.logger.Error().
		Err(err).
		Str("attempt_id", attemptID).
		Str("payment_id", c.terms.PaymentID).
		Str("step", c.steps[stepIndex].ID).
		Str("error_type", string(kind)).
		Msg("Payment execution failed")
}

func (c *Controller) IsProcessing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.processing
}

// CurrentStep returns the index of the step last touched by the pipeline.
func (c *Controller) CurrentStep() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentStep
}

// Steps returns a snapshot of the pipeline steps.
func (c *Controller) Steps() []models.ExecutionStep {
	c.mu.RLock()
	defer c.mu.RUnlock()

	steps := make([]models.ExecutionStep, len(c.steps))
	copy(steps, c.steps)
	return steps
}

// ErrorMessage returns the last failure message, empty when none.
func (c *Controller) ErrorMessage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMessage
}

func (c *Controller) ErrorType() models.ErrorType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errType
}
