package app

import "shard-go/internal/shard"

// Operation tracks the CLI command being run. Operations are created in
// memory with ID=0. Only mutating commands persist them in the ledger
// (giving them an auto-increment ID).
type Operation struct {
	ID       int64
	Kind     string
	ShareSet string
	Params   shard.OperationParams
	Status   string
	Error    string
}

// NewOperation creates a new in-memory operation of the given kind.
func NewOperation(kind string) *Operation {
	return &Operation{
		Kind:   kind,
		Status: shard.StatusSuccess,
	}
}

// Persisted returns true if this operation has been saved to the ledger.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Record marks the operation as failed if err is non-nil. The first failure
// wins.
func (op *Operation) Record(err error) {
	if err == nil || op.Status == shard.StatusError {
		return
	}
	op.Status = shard.StatusError
	op.Error = err.Error()
}
