package chain

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// Factory creates and attaches to court modules on an EVM chain.
type Factory struct {
	log       *logger.Logger
	deployer  *Deployer
	artifacts *Artifacts
}

func NewFactory(log *logger.Logger, d *Deployer, artifacts *Artifacts) *Factory {
	return &Factory{log: log.With("service", "ModuleFactory"), deployer: d, artifacts: artifacts}
}

// Attach checks the address holds code; it sends nothing.
func (f *Factory) Attach(ctx context.Context, kind deploy.ModuleKind, artifact, address string) (deploy.Handle, error) {
	ok, err := f.deployer.HasCode(ctx, address)
	if err != nil {
		return deploy.Handle{}, err
	}
	if !ok {
		return deploy.Handle{}, fmt.Errorf("no %s code at %s", artifact, address)
	}
	return deploy.Handle{Kind: kind, Artifact: artifact, Address: common.HexToAddress(address).Hex()}, nil
}

func (f *Factory) Create(ctx context.Context, req deploy.CreateRequest) (deploy.Handle, error) {
	art, err := f.artifacts.Load(req.Artifact)
	if err != nil {
		return deploy.Handle{}, err
	}
	packed, err := art.PackConstructor(req.Args)
	if err != nil {
		return deploy.Handle{}, err
	}
	data := make([]byte, 0, len(art.Bytecode)+len(packed))
	data = append(data, art.Bytecode...)
	data = append(data, packed...)

	args := hex.EncodeToString(packed)
	receipt, sent, err := f.deployer.Send(ctx, nil, data, func(ctx context.Context, s Sent) error {
		if req.OnSubmit == nil {
			return nil
		}
		return req.OnSubmit(ctx, deploy.Submission{TxRef: s.Hash.Hex(), PredictedAddress: s.Created.Hex(), ConstructorArgs: args})
	})
	if err != nil {
		return deploy.Handle{}, err
	}
	address := receipt.ContractAddress
	if address == (common.Address{}) {
		address = sent.Created
	}
	f.log.Debug("Module created", "module", req.Kind, "address", address.Hex(), "gas_used", receipt.GasUsed)
	return deploy.Handle{
		Kind:            req.Kind,
		Artifact:        req.Artifact,
		Address:         address.Hex(),
		CreationRef:     sent.Hash.Hex(),
		ConstructorArgs: args,
	}, nil
}

// HasCode lets the factory double as the orchestrator's code prober.
func (f *Factory) HasCode(ctx context.Context, address string) (bool, error) {
	return f.deployer.HasCode(ctx, address)
}
