package shard

import "time"

// Operation kinds recorded in the ledger.
const (
	OpEncrypt = "encrypt"
	OpDecrypt = "decrypt"
	OpExport  = "export"
	OpCollect = "collect"
)

// Operation statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation is one recorded CLI action. Secrets are never stored.
type Operation struct {
	ID          int64      `yaml:"id"`
	OperationID string     `yaml:"operation_id"`
	Kind        string     `yaml:"kind"`
	ShareSet    string     `yaml:"share_set"`
	Shares      int        `yaml:"shares,omitempty"`
	Threshold   int        `yaml:"threshold,omitempty"`
	Status      string     `yaml:"status"`
	Error       string     `yaml:"error,omitempty"`
	StartedAt   time.Time  `yaml:"started_at"`
	FinishedAt  *time.Time `yaml:"finished_at,omitempty"`
}

// OperationParams are the non-secret parameters of an operation.
type OperationParams struct {
	Shares    int
	Threshold int
}

// Ledger keeps the history of operations.
type Ledger interface {
	// StartOperation records a running operation and returns it with its ID set.
	StartOperation(kind, shareSet string, params OperationParams) (*Operation, error)

	// FinishOperation marks an operation as done with the given status and
	// records its final parameters.
	FinishOperation(id int64, status, errMsg string, params OperationParams) error

	// ListOperations returns up to limit operations, newest first.
	ListOperations(limit int) ([]*Operation, error)

	Close() error
}
