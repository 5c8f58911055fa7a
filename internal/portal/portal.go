// Package portal holds the operator's selection and the status of the last
// pipeline operation.
package portal

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"provisioning-portal/internal/logger"
	"provisioning-portal/internal/pipeline"
)

// DefaultSuccessResetDelay is how long a success stays visible.
const DefaultSuccessResetDelay = 3 * time.Second

var (
	// ErrValidation is wrapped by errors for selections that cannot be submitted.
	ErrValidation = errors.New("invalid selection")
	// ErrOperationInFlight is returned when an operation is already running.
	ErrOperationInFlight = errors.New("an operation is already in progress")
)

// Error carries the user-facing message for a failed operation.
type Error struct {
	Operation Operation
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil || errors.Is(e.Err, ErrValidation) {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Pipeline triggers the remote pipelines. *pipeline.Client implements it.
type Pipeline interface {
	TriggerProvisioningPipeline(ctx context.Context, params pipeline.Parameters) error
	TriggerDeprovisioningPipeline(ctx context.Context, params pipeline.Parameters) error
}

// Snapshot is a consistent copy of the portal state.
type Snapshot struct {
	SelectedSystems []string `json:"selectedSystems"`
	SelectedVersion string   `json:"selectedVersion"`
	Status          Status   `json:"status"`
}

// IsSelected reports whether name is in the selection.
func (s Snapshot) IsSelected(name string) bool {
	for _, n := range s.SelectedSystems {
		if n == name {
			return true
		}
	}
	return false
}

// Portal is safe for concurrent use. The lock is released while a pipeline
// call is outstanding.
type Portal struct {
	pipeline   Pipeline
	resetDelay time.Duration

	mu         sync.Mutex
	systems    mapset.Set[string]
	version    string
	status     Status
	generation uint64
	resetTimer *time.Timer
}

// New returns a Portal with an empty selection. A non-positive resetDelay
// falls back to DefaultSuccessResetDelay.
func New(p Pipeline, resetDelay time.Duration) *Portal {
	if resetDelay <= 0 {
		resetDelay = DefaultSuccessResetDelay
	}
	return &Portal{
		pipeline:   p,
		resetDelay: resetDelay,
		systems:    mapset.NewThreadUnsafeSet[string](),
		status:     Status{State: StateIdle},
	}
}

// ToggleSystem adds name to the selection if absent, else removes it.
func (p *Portal) ToggleSystem(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.systems.Contains(name) {
		p.systems.Remove(name)
		logger.Debug("Deselected system %s", name)
		return
	}
	p.systems.Add(name)
	logger.Debug("Selected system %s", name)
}

// SetVersion replaces the selected version.
func (p *Portal) SetVersion(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.version = id
	logger.Debug("Selected version %q", id)
}

// SetSelection replaces the whole selection.
func (p *Portal) SetSelection(systems []string, version string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.systems = mapset.NewThreadUnsafeSet[string](systems...)
	p.version = version
}

// Snapshot returns the selection (sorted) and the current status.
func (p *Portal) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		SelectedSystems: p.selectedLocked(),
		SelectedVersion: p.version,
		Status:          p.status,
	}
}

// Status returns the current status.
func (p *Portal) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Provision triggers the provisioning pipeline for the current selection.
// It requires at least one system and a version. The returned operation ID
// is set whenever the pipeline was called, including when the call failed.
func (p *Portal) Provision(ctx context.Context) (string, error) {
	return p.run(ctx, OpProvision)
}

// Deprovision triggers the deprovisioning pipeline for the current
// selection. It requires at least one system; the version is optional.
// The operation ID is returned as for Provision.
func (p *Portal) Deprovision(ctx context.Context) (string, error) {
	return p.run(ctx, OpDeprovision)
}

// Close stops a pending success reset.
func (p *Portal) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopResetLocked()
}

func (p *Portal) run(ctx context.Context, op Operation) (string, error) {
	p.mu.Lock()
	if p.status.Busy() {
		running := p.status.Operation
		p.mu.Unlock()
		logger.Warn("Refused %s request: %s still running", op, running)
		return "", ErrOperationInFlight
	}

	params := pipeline.Parameters{SystemNames: p.selectedLocked(), Version: p.version}
	if len(params.SystemNames) == 0 || (op == OpProvision && strings.TrimSpace(params.Version) == "") {
		msg := validationMessage(op)
		p.transitionLocked(Status{State: StateFailed, Operation: op, Reason: msg})
		p.mu.Unlock()
		logger.Warn("Rejected %s request: %s", op, msg)
		return "", &Error{Operation: op, Message: msg, Err: ErrValidation}
	}

	id := uuid.NewString()
	gen := p.transitionLocked(Status{State: StateRunning, Operation: op, OperationID: id})
	p.mu.Unlock()

	logger.Info("Triggering %s pipeline %s for systems [%s] version %q",
		op, id, strings.Join(params.SystemNames, ","), params.Version)

	var err error
	switch op {
	case OpProvision:
		err = p.pipeline.TriggerProvisioningPipeline(ctx, params)
	default:
		err = p.pipeline.TriggerDeprovisioningPipeline(ctx, params)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		// Only reachable if something bypassed the in-flight guard.
		logger.Warn("Discarding stale result of %s %s", op, id)
		return id, err
	}

	if err != nil {
		msg := failureMessage(op)
		p.transitionLocked(Status{State: StateFailed, Operation: op, Reason: msg, OperationID: id})
		logger.Error("%s %s failed: %v", op, id, err)
		return id, &Error{Operation: op, Message: msg, Err: err}
	}

	done := p.transitionLocked(Status{State: StateSucceeded, Operation: op, OperationID: id})
	p.resetTimer = time.AfterFunc(p.resetDelay, func() { p.expireSuccess(done) })
	logger.Info("%s %s succeeded", op, id)
	return id, nil
}

// expireSuccess returns to idle unless a newer status replaced gen.
func (p *Portal) expireSuccess(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen || p.status.State != StateSucceeded {
		return
	}
	p.resetTimer = nil
	p.transitionLocked(Status{State: StateIdle})
}

// transitionLocked installs next under a new generation and cancels any
// pending success reset.
func (p *Portal) transitionLocked(next Status) uint64 {
	p.stopResetLocked()
	p.generation++
	next.Generation = p.generation
	p.status = next
	return p.generation
}

func (p *Portal) stopResetLocked() {
	if p.resetTimer != nil {
		p.resetTimer.Stop()
		p.resetTimer = nil
	}
}

func (p *Portal) selectedLocked() []string {
	names := p.systems.ToSlice()
	sort.Strings(names)
	return names
}
