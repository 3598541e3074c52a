package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/court-deployer/internal/deploy/modules"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

func (r *run) resolveControllerStage(ctx context.Context, st *OrchestratorState) (map[string]any, error) {
	h, err := r.resolveModule(ctx, deploy.KindController)
	if err != nil {
		return nil, err
	}
	return map[string]any{"controller": h.Address}, nil
}

func (r *run) resolveDependentsStage(ctx context.Context, st *OrchestratorState) (map[string]any, error) {
	if r.o.opts.ParallelDependents {
		g, gctx := errgroup.WithContext(ctx)
		for _, kind := range deploy.Dependents {
			kind := kind
			g.Go(func() error {
				_, err := r.resolveModule(gctx, kind)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, kind := range deploy.Dependents {
			if _, err := r.resolveModule(ctx, kind); err != nil {
				return nil, err
			}
		}
	}
	out := map[string]any{}
	for _, kind := range deploy.Dependents {
		if h, ok := r.handle(kind); ok {
			out[string(kind)] = h.Address
		}
	}
	return out, nil
}

// resolveRecordedStage attaches to every recorded module; verification needs all six.
func (r *run) resolveRecordedStage(ctx context.Context, st *OrchestratorState) (map[string]any, error) {
	if missing := r.snapshot.Missing(); len(missing) > 0 {
		return nil, &IncompleteDeploymentError{Missing: missing}
	}
	for _, kind := range deploy.AllKinds() {
		if _, err := r.resolveModule(ctx, kind); err != nil {
			return nil, err
		}
	}
	return map[string]any{"modules": len(deploy.AllKinds())}, nil
}

// resolveModule returns a handle for kind, reusing the stored instance when
// one exists and otherwise creating it and recording it in one store mutation.
func (r *run) resolveModule(ctx context.Context, kind deploy.ModuleKind) (deploy.Handle, error) {
	desc := modules.MustLookup(kind)
	artifact := desc.ArtifactName(r.plan)
	log := r.log.With("module", kind, "artifact", artifact)

	ctx, span := r.o.tracer().Start(ctx, "module.resolve", trace.WithAttributes(attribute.String("module", string(kind))))
	defer span.End()

	if rec, ok := r.snapshot.Record(kind); ok {
		log.Warn("Using previously deployed instance", "address", rec.Address)
		h, err := r.o.factory.Attach(ctx, kind, artifact, rec.Address)
		if err != nil {
			return deploy.Handle{}, err
		}
		h.Kind, h.Artifact, h.Address = kind, artifact, rec.Address
		if h.CreationRef == "" {
			h.CreationRef = rec.CreationRef
		}
		if h.ConstructorArgs == "" {
			h.ConstructorArgs = rec.ConstructorArgs
		}
		span.SetAttributes(attribute.String("outcome", string(OutcomeLoaded)))
		r.setHandle(h, OutcomeLoaded)
		return h, nil
	}

	deps := map[deploy.ModuleKind]string{}
	for _, d := range desc.Dependencies {
		h, ok := r.handle(d)
		if !ok || strings.TrimSpace(h.Address) == "" {
			return deploy.Handle{}, &DependencyNotReadyError{Kind: kind, Missing: d}
		}
		deps[d] = h.Address
	}

	if p, ok := r.snapshot.Pending[kind]; ok {
		h, adopted, err := r.recoverPending(ctx, kind, artifact, p)
		if err != nil {
			return deploy.Handle{}, err
		}
		if adopted {
			span.SetAttributes(attribute.String("outcome", string(OutcomeAdopted)))
			return h, nil
		}
	}

	if err := r.completeTokens(ctx, desc); err != nil {
		return deploy.Handle{}, err
	}
	in := modules.ArgsInput{Plan: r.plan, Caller: r.o.opts.Caller, Deps: deps}
	args, err := desc.Args(in)
	if err != nil {
		return deploy.Handle{}, fmt.Errorf("build %s constructor args: %w", kind, err)
	}

	fields := []any{"version", deploy.SchemaVersion}
	if desc.Summary != nil {
		fields = append(fields, desc.Summary(in)...)
	}
	log.Info("Deploying module", fields...)
	h, err := r.o.factory.Create(ctx, deploy.CreateRequest{
		Kind:     kind,
		Artifact: artifact,
		Args:     args,
		OnSubmit: func(ctx context.Context, sub deploy.Submission) error {
			return r.o.store.MarkPending(ctx, deploy.PendingCreation{
				Kind:             kind,
				RunID:            r.id.String(),
				TxRef:            sub.TxRef,
				PredictedAddress: sub.PredictedAddress,
				ConstructorArgs:  sub.ConstructorArgs,
			})
		},
	})
	if err != nil {
		log.Error("Module creation failed", "error", err)
		return deploy.Handle{}, err
	}
	if strings.TrimSpace(h.Address) == "" || strings.TrimSpace(h.CreationRef) == "" {
		return deploy.Handle{}, fmt.Errorf("%w: %s", ErrIncompleteHandle, kind)
	}
	h.Kind, h.Artifact = kind, artifact

	if err := r.o.store.Put(ctx, deploy.DeploymentRecord{
		Kind:            kind,
		Address:         h.Address,
		CreationRef:     h.CreationRef,
		SchemaVersion:   deploy.SchemaVersion,
		Artifact:        artifact,
		ConstructorArgs: h.ConstructorArgs,
	}); err != nil {
		return deploy.Handle{}, fmt.Errorf("record %s deployment: %w", kind, err)
	}
	log.Info("Created module instance", "address", h.Address, "creation_ref", h.CreationRef)
	span.SetAttributes(attribute.String("outcome", string(OutcomeDeployed)))
	r.setHandle(h, OutcomeDeployed)
	return h, nil
}

// recoverPending handles a creation that was broadcast by an earlier run but
// never recorded. It adopts the instance when code is present at the
// predicted address.
func (r *run) recoverPending(ctx context.Context, kind deploy.ModuleKind, artifact string, p deploy.PendingCreation) (deploy.Handle, bool, error) {
	log := r.log.With("module", kind, "tx_ref", p.TxRef, "predicted_address", p.PredictedAddress)
	log.Warn("Found an unrecorded creation from an earlier run")

	if r.o.prober != nil && strings.TrimSpace(p.PredictedAddress) != "" {
		landed, err := r.o.prober.HasCode(ctx, p.PredictedAddress)
		if err != nil {
			return deploy.Handle{}, false, err
		}
		if landed {
			h, err := r.o.factory.Attach(ctx, kind, artifact, p.PredictedAddress)
			if err != nil {
				return deploy.Handle{}, false, err
			}
			h.Kind, h.Artifact, h.Address, h.CreationRef = kind, artifact, p.PredictedAddress, p.TxRef
			h.ConstructorArgs = p.ConstructorArgs
			if err := r.o.store.Put(ctx, deploy.DeploymentRecord{
				Kind:            kind,
				Address:         h.Address,
				CreationRef:     h.CreationRef,
				SchemaVersion:   deploy.SchemaVersion,
				Artifact:        artifact,
				ConstructorArgs: h.ConstructorArgs,
			}); err != nil {
				return deploy.Handle{}, false, fmt.Errorf("record adopted %s deployment: %w", kind, err)
			}
			log.Warn("Adopted instance created by an earlier run", "address", h.Address)
			r.setHandle(h, OutcomeAdopted)
			return h, true, nil
		}
	}

	if r.o.opts.PendingPolicy == PendingHalt {
		return deploy.Handle{}, false, &PendingCreationError{Kind: kind, TxRef: p.TxRef, PredictedAddress: p.PredictedAddress}
	}
	log.Warn("Earlier creation did not land; creating a new instance")
	return deploy.Handle{}, false, nil
}

// completeTokens mints a test token for every token the module needs that
// has no address, writing the address back into the plan.
func (r *run) completeTokens(ctx context.Context, desc modules.Descriptor) error {
	if desc.Tokens == nil {
		return nil
	}
	r.mintMu.Lock()
	defer r.mintMu.Unlock()
	for _, tok := range desc.Tokens(r.plan) {
		if tok == nil {
			return fmt.Errorf("%s: token missing from plan", desc.Kind)
		}
		if !tok.Missing() {
			continue
		}
		if r.o.minter == nil {
			return fmt.Errorf("%s: token %s has no address and no test token minter is configured", desc.Kind, tok.Symbol)
		}
		addr, err := r.o.minter.MintTestToken(ctx, *tok)
		if err != nil {
			return err
		}
		tok.Address = addr
		r.report.addMinted(MintedToken{Symbol: tok.Symbol, Address: addr, For: desc.Kind})
		r.log.Info("Minted test token", "symbol", tok.Symbol, "address", addr, "for", desc.Kind)
	}
	return nil
}
