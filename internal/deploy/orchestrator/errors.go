package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

// ErrIncompleteHandle is returned when a factory reports a creation without
// both an address and a creation ref.
var ErrIncompleteHandle = errors.New("module factory returned an incomplete handle")

// DependencyNotReadyError is fatal: a module's prerequisite has no address.
type DependencyNotReadyError struct {
	Kind    deploy.ModuleKind
	Missing deploy.ModuleKind
}

func (e *DependencyNotReadyError) Error() string {
	return fmt.Sprintf("cannot deploy %s: %s has not been deployed yet", e.Kind, e.Missing)
}

// PendingCreationError is returned under the halt policy when a previous
// creation was broadcast but never recorded and nothing landed at its address.
type PendingCreationError struct {
	Kind             deploy.ModuleKind
	TxRef            string
	PredictedAddress string
}

func (e *PendingCreationError) Error() string {
	return fmt.Sprintf("%s has an unconfirmed creation (tx %s, predicted address %s); inspect it before deploying again", e.Kind, e.TxRef, e.PredictedAddress)
}

// IncompleteDeploymentError is returned by verification when some modules have no record.
type IncompleteDeploymentError struct {
	Missing []deploy.ModuleKind
}

func (e *IncompleteDeploymentError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for _, k := range e.Missing {
		names = append(names, string(k))
	}
	return "deployment is incomplete, missing: " + strings.Join(names, ", ")
}
