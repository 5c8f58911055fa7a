package portal

// Operation is the kind of pipeline run an operator requested
type Operation string

const (
	OpProvision   Operation = "provision"
	OpDeprovision Operation = "deprovision"
)

// State defines where the current operation is in its lifecycle
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status represents the single operation status shown to the operator.
// Reason is set only in StateFailed, so an error and a success can never be
// reported together.
type Status struct {
	State       State     `json:"state"`
	Operation   Operation `json:"operation,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	OperationID string    `json:"operationId,omitempty"`
	Generation  uint64    `json:"generation"`
}

func (s Status) IsProvisioning() bool {
	return s.State == StateRunning && s.Operation == OpProvision
}

func (s Status) IsDeprovisioning() bool {
	return s.State == StateRunning && s.Operation == OpDeprovision
}

// Busy reports whether either action must be refused.
func (s Status) Busy() bool {
	return s.State == StateRunning
}

// ErrorMessage returns the failure reason, or "" outside StateFailed.
func (s Status) ErrorMessage() string {
	if s.State != StateFailed {
		return ""
	}
	return s.Reason
}

func (s Status) Success() bool {
	return s.State == StateSucceeded
}

// User-facing messages.
const (
	MsgProvisionValidation   = "Please select at least one system and a version"
	MsgDeprovisionValidation = "Please select at least one system to deprovision"
	MsgProvisionFailed       = "Failed to provision systems. Please try again."
	MsgDeprovisionFailed     = "Failed to deprovision systems. Please try again."
	MsgSucceeded             = "Operation completed successfully!"
)

func validationMessage(op Operation) string {
	if op == OpProvision {
		return MsgProvisionValidation
	}
	return MsgDeprovisionValidation
}

func failureMessage(op Operation) string {
	if op == OpProvision {
		return MsgProvisionFailed
	}
	return MsgDeprovisionFailed
}
