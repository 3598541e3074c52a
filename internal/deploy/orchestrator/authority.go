package orchestrator

import (
	"context"
	"fmt"

	"github.com/yungbote/court-deployer/internal/deploy/modules"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

func (r *run) bindController(ctx context.Context) (Controller, error) {
	if r.controller != nil {
		return r.controller, nil
	}
	h, ok := r.handle(deploy.KindController)
	if !ok {
		return nil, &DependencyNotReadyError{Kind: deploy.KindController, Missing: deploy.KindController}
	}
	c, err := r.o.controllers.BindController(ctx, h.Address)
	if err != nil {
		return nil, fmt.Errorf("bind controller %s: %w", h.Address, err)
	}
	r.controller = c
	return c, nil
}

// wireStage registers every dependent module with the controller. Only the
// current modules governor may do so; a controller already handed over to
// the target governor is treated as wired.
func (r *run) wireStage(ctx context.Context, st *OrchestratorState) (map[string]any, error) {
	c, err := r.bindController(ctx)
	if err != nil {
		return nil, err
	}
	current, err := c.ModulesGovernor(ctx)
	if err != nil {
		return nil, fmt.Errorf("read modules governor: %w", err)
	}
	target := r.plan.Governor.Modules.Address
	action := Decide(current, r.o.opts.Caller, target)
	r.report.Wiring = action.outcome()

	switch action {
	case ActionAlreadySatisfied:
		r.log.Warn("Modules governor already handed over, skipping module wiring", "governor", current)
		return map[string]any{"action": string(action), "governor": current}, nil
	case ActionUnauthorized:
		r.log.Warn("Caller is not the modules governor, cannot wire modules", "governor", current, "caller", r.o.opts.Caller)
		return map[string]any{"action": string(action), "governor": current}, nil
	}

	ids := make([][32]byte, 0, len(modules.WiringOrder))
	addrs := make([]string, 0, len(modules.WiringOrder))
	for _, w := range modules.WiringOrder {
		h, ok := r.handle(w.Kind)
		if !ok {
			return nil, &DependencyNotReadyError{Kind: deploy.KindController, Missing: w.Kind}
		}
		ids = append(ids, w.ID)
		addrs = append(addrs, h.Address)
		r.log.Debug("Wiring module", "module", w.Name, "id", w.ID.Hex(), "address", h.Address)
	}
	if err := c.SetModules(ctx, ids, addrs); err != nil {
		return nil, fmt.Errorf("set controller modules: %w", err)
	}
	r.log.Info("Wired modules into controller", "count", len(ids))
	return map[string]any{"action": string(action), "modules": len(ids)}, nil
}

// handoffStage transfers the modules governor role to the planned identity.
func (r *run) handoffStage(ctx context.Context, st *OrchestratorState) (map[string]any, error) {
	c, err := r.bindController(ctx)
	if err != nil {
		return nil, err
	}
	current, err := c.ModulesGovernor(ctx)
	if err != nil {
		return nil, fmt.Errorf("read modules governor: %w", err)
	}
	target := r.plan.Governor.Modules
	action := Decide(current, r.o.opts.Caller, target.Address)
	r.report.Handoff = action.outcome()

	switch action {
	case ActionAlreadySatisfied:
		r.log.Warn("Modules governor already set", "governor", current)
	case ActionUnauthorized:
		r.log.Warn("Caller is not the modules governor, cannot hand over", "governor", current, "caller", r.o.opts.Caller, "target", target.Describe())
	case ActionApply:
		if err := c.ChangeModulesGovernor(ctx, target.Address); err != nil {
			return nil, fmt.Errorf("change modules governor: %w", err)
		}
		r.log.Info("Transferred modules governor", "to", target.Describe())
	}
	return map[string]any{"action": string(action), "governor": current}, nil
}
