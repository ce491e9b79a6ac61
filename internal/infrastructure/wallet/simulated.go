package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apppayai/payflow/internal/domain/interfaces"
	"github.com/apppayai/payflow/internal/domain/models"
)

// Simulated is a deterministic in-process wallet used by the local
// simulator, the demo binary and tests. Failures can be scripted per step.
type Simulated struct {
	// ApprovalRequired makes NeedsApproval report true.
	ApprovalRequired bool
	// StepDelay is applied to every call, to make pipeline progress visible.
	StepDelay time.Duration
	// FailStep names the step whose call should fail: "approval",
	// "transaction" or "confirmation". Empty means never fail.
	FailStep string
	// FailErr is the error returned for the failing step. When nil a
	// generic error is used.
	FailErr error
}

func NewSimulated() interfaces.WalletProvider {
	return &Simulated{}
}

func (w *Simulated) NeedsApproval(ctx context.Context, route *models.Route) (bool, error) {
	if err := w.step(ctx, models.StepApproval); err != nil {
		return false, err
	}
	return w.ApprovalRequired, nil
}

func (w *Simulated) Approve(ctx context.Context, route *models.Route) error {
	return w.step(ctx, models.StepApproval)
}

func (w *Simulated) SubmitPayment(ctx context.Context, route *models.Route) (string, error) {
	if err := w.step(ctx, models.StepTransaction); err != nil {
		return "", err
	}
	return SimulatedTxHash(), nil
}

func (w *Simulated) WaitForConfirmation(ctx context.Context, txHash string) error {
	return w.step(ctx, models.StepConfirmation)
}

func (w *Simulated) step(ctx context.Context, name string) error {
	if w.StepDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.StepDelay):
		}
	}

	if w.FailStep == name {
		if w.FailErr != nil {
			return w.FailErr
		}
		return fmt.Errorf("simulated %s failure", name)
	}

	return nil
}

// SimulatedTxHash returns a well-formed 32-byte hex transaction hash.
func SimulatedTxHash() string {
	a := strings.ReplaceAll(uuid.New().String(), "-", "")
	b := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "0x" + a + b
}
