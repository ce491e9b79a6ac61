package models

// StepStatus is the lifecycle status of one execution step. Legal
// transitions are pending -> processing -> completed|failed; failed is
// terminal for the attempt.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// ExecutionStep is one stage of the fixed three-stage payment pipeline.
type ExecutionStep struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Status StepStatus `json:"status"`
}

// Step identifiers, in pipeline order.
const (
	StepApproval     = "approval"
	StepTransaction  = "transaction"
	StepConfirmation = "confirmation"
)

// DefaultSteps returns a fresh pending step triple. The pipeline is always
// exactly these three steps in this order.
func DefaultSteps() []ExecutionStep {
	return []ExecutionStep{
		{ID: StepApproval, Title: "Token Approval", Status: StepPending},
		{ID: StepTransaction, Title: "Processing Payment", Status: StepPending},
		{ID: StepConfirmation, Title: "Confirming Transaction", Status: StepPending},
	}
}

// ErrorType classifies an execution failure for the presentation layer.
// The empty string means no error.
type ErrorType string

const (
	ErrorNone              ErrorType = ""
	ErrorInsufficientFunds ErrorType = "insufficient_funds"
	ErrorNoWallet          ErrorType = "no_wallet"
	ErrorUserCancelled     ErrorType = "user_cancelled"
	ErrorGeneric           ErrorType = "generic"
)
