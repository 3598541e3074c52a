package deploy

import (
	"fmt"
	"strings"
)

// SchemaVersion is stamped on every record this deployer writes.
const SchemaVersion = "v1.0"

type ModuleKind string

const (
	KindController     ModuleKind = "controller"
	KindDisputeManager ModuleKind = "dispute_manager"
	KindRegistry       ModuleKind = "registry"
	KindVoting         ModuleKind = "voting"
	KindTreasury       ModuleKind = "treasury"
	KindSubscriptions  ModuleKind = "subscriptions"
)

// Dependents is the canonical order of the modules resolved after the Controller.
var Dependents = []ModuleKind{
	KindDisputeManager,
	KindRegistry,
	KindVoting,
	KindTreasury,
	KindSubscriptions,
}

// AllKinds returns every module kind, Controller first.
func AllKinds() []ModuleKind {
	out := make([]ModuleKind, 0, len(Dependents)+1)
	out = append(out, KindController)
	return append(out, Dependents...)
}

func (k ModuleKind) Valid() bool {
	switch k {
	case KindController, KindDisputeManager, KindRegistry, KindVoting, KindTreasury, KindSubscriptions:
		return true
	default:
		return false
	}
}

func (k ModuleKind) String() string { return string(k) }

func ParseModuleKind(s string) (ModuleKind, error) {
	k := ModuleKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown module kind %q", s)
	}
	return k, nil
}

// SameAddress compares two hex account identities ignoring case and surrounding space.
// Empty identities never match.
func SameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
