package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"

	"github.com/yungbote/court-deployer/internal/deploy/orchestrator"
)

var (
	funcGetModulesGovernor    = w3.MustNewFunc("getModulesGovernor()", "address")
	funcSetModules            = w3.MustNewFunc("setModules(bytes32[],address[])", "")
	funcChangeModulesGovernor = w3.MustNewFunc("changeModulesGovernor(address)", "")
)

// ControllerBinder binds the court controller at a known address.
type ControllerBinder struct {
	deployer *Deployer
}

func NewControllerBinder(d *Deployer) *ControllerBinder { return &ControllerBinder{deployer: d} }

func (b *ControllerBinder) BindController(ctx context.Context, address string) (orchestrator.Controller, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid controller address %q", address)
	}
	return &Controller{deployer: b.deployer, address: common.HexToAddress(address)}, nil
}

type Controller struct {
	deployer *Deployer
	address  common.Address
}

func (c *Controller) ModulesGovernor(ctx context.Context) (string, error) {
	var governor common.Address
	if err := c.deployer.Call(ctx, c.address, funcGetModulesGovernor, []any{&governor}); err != nil {
		return "", fmt.Errorf("getModulesGovernor: %w", err)
	}
	return governor.Hex(), nil
}

func (c *Controller) SetModules(ctx context.Context, ids [][32]byte, addresses []string) error {
	if len(ids) != len(addresses) {
		return fmt.Errorf("setModules: %d ids for %d addresses", len(ids), len(addresses))
	}
	addrs := make([]common.Address, len(addresses))
	for i, a := range addresses {
		if !common.IsHexAddress(a) {
			return fmt.Errorf("setModules: invalid address %q", a)
		}
		addrs[i] = common.HexToAddress(a)
	}
	data, err := funcSetModules.EncodeArgs(ids, addrs)
	if err != nil {
		return fmt.Errorf("encode setModules: %w", err)
	}
	return c.transact(ctx, data)
}

func (c *Controller) ChangeModulesGovernor(ctx context.Context, to string) error {
	if !common.IsHexAddress(to) {
		return fmt.Errorf("changeModulesGovernor: invalid address %q", to)
	}
	data, err := funcChangeModulesGovernor.EncodeArgs(common.HexToAddress(to))
	if err != nil {
		return fmt.Errorf("encode changeModulesGovernor: %w", err)
	}
	return c.transact(ctx, data)
}

func (c *Controller) transact(ctx context.Context, data []byte) error {
	to := c.address
	_, _, err := c.deployer.Send(ctx, &to, data, nil)
	return err
}
