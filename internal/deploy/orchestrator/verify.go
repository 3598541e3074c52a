package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/court-deployer/internal/deploy/store"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

// verifyStage publishes source verification once per recorded module.
// It reads the store afresh so refs written by a concurrent run are honoured.
func (r *run) verifyStage(ctx context.Context, st *OrchestratorState) (map[string]any, error) {
	snap, err := r.o.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load deployment store: %w", err)
	}
	if missing := snap.Missing(); len(missing) > 0 {
		return nil, &IncompleteDeploymentError{Missing: missing}
	}

	applied, skipped := 0, 0
	for _, kind := range deploy.AllKinds() {
		rec, _ := snap.Record(kind)
		log := r.log.With("module", kind, "address", rec.Address)
		if rec.Verified() {
			log.Info("Module already verified", "verification_ref", rec.VerificationRef)
			r.report.setVerification(kind, StepAlreadySatisfied, rec.VerificationRef)
			skipped++
			continue
		}
		h, ok := r.handle(kind)
		if !ok {
			h = deploy.Handle{Kind: kind, Artifact: rec.Artifact, Address: rec.Address, CreationRef: rec.CreationRef, ConstructorArgs: rec.ConstructorArgs}
		}
		ref, err := r.o.verifier.Verify(ctx, deploy.VerifyRequest{
			Network:       r.report.Network,
			Handle:        h,
			Record:        rec,
			SourcePackage: r.plan.Verification.SourcePackage,
			Headers:       r.plan.Verification.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", kind, err)
		}
		if err := r.o.store.SetVerification(ctx, kind, ref); err != nil {
			if errors.Is(err, store.ErrAlreadyVerified) {
				log.Warn("Verification recorded by another run")
				r.report.setVerification(kind, StepAlreadySatisfied, ref)
				skipped++
				continue
			}
			return nil, fmt.Errorf("record %s verification: %w", kind, err)
		}
		log.Info("Verified module", "verification_ref", ref)
		r.report.setVerification(kind, StepApplied, ref)
		applied++
	}
	return map[string]any{"applied": applied, "already_satisfied": skipped}, nil
}
