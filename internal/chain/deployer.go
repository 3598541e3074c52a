package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"

	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// DefaultGasLimit covers the largest court module.
const DefaultGasLimit uint64 = 6_500_000

var (
	ErrReverted       = errors.New("transaction reverted")
	ErrReceiptTimeout = errors.New("transaction receipt not found in time")
)

type Config struct {
	RPCURL     string
	ChainID    int64
	PrivateKey string
	GasFeeCap  *big.Int
	GasTipCap  *big.Int
	GasLimit   uint64
	// PollInterval is how often receipts are polled.
	PollInterval time.Duration
	// ReceiptTimeout bounds the wait for one receipt; zero waits for ctx.
	ReceiptTimeout time.Duration
}

// Sent describes a signed transaction just before it is broadcast.
type Sent struct {
	Hash common.Hash
	// Created is the address a creation transaction will deploy to.
	Created common.Address
}

// Deployer signs and sends EIP-1559 transactions from one account.
type Deployer struct {
	log    *logger.Logger
	rpc    *rpc.Client
	client *w3.Client
	signer types.Signer
	key    *ecdsa.PrivateKey
	from   common.Address

	gasFeeCap *big.Int
	gasTipCap *big.Int
	gasLimit  uint64
	poll      time.Duration
	timeout   time.Duration

	// nonceMu guards next, the nonce of the next broadcast. A nil next is
	// reseeded from the pending nonce.
	nonceMu sync.Mutex
	next    *uint64
}

func NewDeployer(log *logger.Logger, cfg Config) (*Deployer, error) {
	if strings.TrimSpace(cfg.RPCURL) == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	rc, err := rpc.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	d, err := newDeployer(log, rc, cfg)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return d, nil
}

func newDeployer(log *logger.Logger, rc *rpc.Client, cfg Config) (*Deployer, error) {
	key, err := ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	client := w3.NewClient(rc)
	chainID := cfg.ChainID
	if chainID <= 0 {
		var id uint64
		if err := client.Call(eth.ChainID().Returns(&id)); err != nil {
			return nil, fmt.Errorf("get chain id: %w", err)
		}
		chainID = int64(id)
	}
	d := &Deployer{
		rpc:       rc,
		client:    client,
		signer:    types.NewLondonSigner(big.NewInt(chainID)),
		key:       key,
		from:      crypto.PubkeyToAddress(key.PublicKey),
		gasFeeCap: cfg.GasFeeCap,
		gasTipCap: cfg.GasTipCap,
		gasLimit:  cfg.GasLimit,
		poll:      cfg.PollInterval,
		timeout:   cfg.ReceiptTimeout,
	}
	if d.gasFeeCap == nil {
		d.gasFeeCap = big.NewInt(2_000_000_000)
	}
	if d.gasTipCap == nil {
		d.gasTipCap = big.NewInt(1_000_000_000)
	}
	if d.gasLimit == 0 {
		d.gasLimit = DefaultGasLimit
	}
	if d.poll <= 0 {
		d.poll = 2 * time.Second
	}
	d.log = log.With("service", "ChainDeployer", "from", d.from.Hex(), "chain_id", chainID)
	return d, nil
}

func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// Address is the caller identity of every transaction this deployer sends.
func (d *Deployer) Address() common.Address { return d.from }

func (d *Deployer) Close() error { return d.client.Close() }

// nonce returns the nonce for the next broadcast. Callers hold nonceMu.
func (d *Deployer) nonce(ctx context.Context) (uint64, error) {
	if d.next != nil {
		return *d.next, nil
	}
	var n hexutil.Uint64
	if err := d.rpc.CallContext(ctx, &n, "eth_getTransactionCount", d.from, "pending"); err != nil {
		return 0, fmt.Errorf("get nonce: %w", err)
	}
	next := uint64(n)
	d.next = &next
	return next, nil
}

// Send signs a transaction to `to` (nil for a creation), reports it through
// beforeBroadcast, broadcasts it and waits for a successful receipt.
// Nonces are assigned under nonceMu, so concurrent sends get distinct ones.
func (d *Deployer) Send(ctx context.Context, to *common.Address, data []byte, beforeBroadcast func(context.Context, Sent) error) (*types.Receipt, Sent, error) {
	sent, err := d.broadcast(ctx, to, data, beforeBroadcast)
	if err != nil {
		return nil, sent, err
	}
	receipt, err := d.WaitForReceipt(ctx, sent.Hash)
	if err != nil {
		return nil, sent, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, sent, fmt.Errorf("%w: %s", ErrReverted, sent.Hash.Hex())
	}
	return receipt, sent, nil
}

func (d *Deployer) broadcast(ctx context.Context, to *common.Address, data []byte, beforeBroadcast func(context.Context, Sent) error) (Sent, error) {
	d.nonceMu.Lock()
	defer d.nonceMu.Unlock()

	nonce, err := d.nonce(ctx)
	if err != nil {
		return Sent{}, err
	}
	signed, err := types.SignTx(types.NewTx(&types.DynamicFeeTx{
		Nonce:     nonce,
		To:        to,
		GasFeeCap: d.gasFeeCap,
		GasTipCap: d.gasTipCap,
		Gas:       d.gasLimit,
		Data:      data,
	}), d.signer, d.key)
	if err != nil {
		return Sent{}, fmt.Errorf("sign tx: %w", err)
	}
	sent := Sent{Hash: signed.Hash()}
	if to == nil {
		sent.Created = crypto.CreateAddress(d.from, nonce)
	}
	if beforeBroadcast != nil {
		if err := beforeBroadcast(ctx, sent); err != nil {
			return sent, err
		}
	}
	var hash common.Hash
	if err := d.client.CallCtx(ctx, eth.SendTx(signed).Returns(&hash)); err != nil {
		// the node may or may not hold the tx; resync from the pending nonce
		d.next = nil
		return sent, fmt.Errorf("send tx: %w", err)
	}
	next := nonce + 1
	d.next = &next
	d.log.Debug("Transaction sent", "tx", sent.Hash.Hex(), "nonce", nonce)
	return sent, nil
}

// WaitForReceipt polls until the transaction is mined. A null receipt means
// not mined yet; any RPC error ends the wait.
func (d *Deployer) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, d.timeout, fmt.Errorf("%w: %s after %s", ErrReceiptTimeout, txHash.Hex(), d.timeout))
		defer cancel()
	}
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		var receipt *types.Receipt
		if err := d.rpc.CallContext(ctx, &receipt, "eth_getTransactionReceipt", txHash); err != nil {
			if cause := context.Cause(ctx); cause != nil {
				return nil, cause
			}
			return nil, fmt.Errorf("get receipt %s: %w", txHash.Hex(), err)
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		case <-ticker.C:
		}
	}
}

// HasCode reports whether address holds deployed bytecode.
func (d *Deployer) HasCode(ctx context.Context, address string) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("invalid address %q", address)
	}
	var code []byte
	if err := d.client.CallCtx(ctx, eth.Code(common.HexToAddress(address), nil).Returns(&code)); err != nil {
		return false, fmt.Errorf("get code: %w", err)
	}
	return len(code) > 0, nil
}

// Call runs a read-only contract call.
func (d *Deployer) Call(ctx context.Context, contract common.Address, fn *w3.Func, returns []any, args ...any) error {
	return d.client.CallCtx(ctx, eth.CallFunc(contract, fn, args...).Returns(returns...))
}
