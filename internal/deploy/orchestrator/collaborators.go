package orchestrator

import (
	"context"

	"github.com/yungbote/court-deployer/internal/deploy/plan"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

// ModuleFactory attaches to or creates module instances.
type ModuleFactory interface {
	// Attach binds to an existing instance without creating anything.
	Attach(ctx context.Context, kind deploy.ModuleKind, artifact, address string) (deploy.Handle, error)
	// Create submits one creation and waits for it to be confirmed.
	Create(ctx context.Context, req deploy.CreateRequest) (deploy.Handle, error)
}

// Controller is the subset of the controller module the deployer drives.
type Controller interface {
	ModulesGovernor(ctx context.Context) (string, error)
	SetModules(ctx context.Context, ids [][32]byte, addresses []string) error
	ChangeModulesGovernor(ctx context.Context, to string) error
}

type ControllerBinder interface {
	BindController(ctx context.Context, address string) (Controller, error)
}

// TokenMinter deploys a test token for plans that leave a token address empty.
type TokenMinter interface {
	MintTestToken(ctx context.Context, token plan.Token) (string, error)
}

// CodeProber reports whether an address holds deployed code.
type CodeProber interface {
	HasCode(ctx context.Context, address string) (bool, error)
}

// Verifier publishes source verification for a deployed instance and returns a reference to it.
type Verifier interface {
	Verify(ctx context.Context, req deploy.VerifyRequest) (string, error)
}
