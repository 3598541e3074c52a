package chain

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

// fakeEth serves the eth_ methods the deployer uses over an in-process RPC server.
// Its account nonce only counts mined transactions, and nothing is mined
// until a receipt is asked for.
type fakeEth struct {
	mu sync.Mutex

	from       common.Address
	base       uint64
	nonceCalls int
	tags       []string

	sent       map[common.Hash]*types.Transaction
	nonces     []uint64
	sendErrs   int
	receiptErr error
	// pendingPolls answers that many receipt polls with null first
	pendingPolls int
	polls        int
}

func (f *fakeEth) ChainId() hexutil.Uint64 { return 1337 }

func (f *fakeEth) GetTransactionCount(addr common.Address, tag string) (hexutil.Uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceCalls++
	f.tags = append(f.tags, tag)
	return hexutil.Uint64(f.base), nil
}

func (f *fakeEth) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErrs > 0 {
		f.sendErrs--
		return common.Hash{}, errors.New("nonce too low")
	}
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	for _, n := range f.nonces {
		if n == tx.Nonce() {
			return common.Hash{}, errors.New("replacement transaction underpriced")
		}
	}
	if f.sent == nil {
		f.sent = map[common.Hash]*types.Transaction{}
	}
	f.sent[tx.Hash()] = tx
	f.nonces = append(f.nonces, tx.Nonce())
	return tx.Hash(), nil
}

func (f *fakeEth) GetTransactionReceipt(hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	f.polls++
	if f.polls <= f.pendingPolls {
		return nil, nil
	}
	tx, ok := f.sent[hash]
	if !ok {
		return nil, nil
	}
	r := &types.Receipt{
		Type:    types.DynamicFeeTxType,
		Status:  types.ReceiptStatusSuccessful,
		TxHash:  hash,
		GasUsed: 21000,
		Logs:    []*types.Log{},
	}
	if tx.To() == nil {
		r.ContractAddress = crypto.CreateAddress(f.from, tx.Nonce())
	}
	return r, nil
}

func newTestDeployer(t *testing.T, fake *fakeEth, cfg Config) *Deployer {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	fake.from = crypto.PubkeyToAddress(key.PublicKey)

	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", fake); err != nil {
		t.Fatalf("register eth: %v", err)
	}
	cfg.PrivateKey = hexutil.Encode(crypto.FromECDSA(key))
	cfg.ChainID = 1337
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}
	d, err := newDeployer(logger.NewNop(), rpc.DialInProc(srv), cfg)
	if err != nil {
		t.Fatalf("newDeployer: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
		srv.Stop()
	})
	return d
}

func TestDeployerAssignsDistinctNoncesToConcurrentCreations(t *testing.T) {
	ctx := context.Background()
	fake := &fakeEth{base: 7}
	d := newTestDeployer(t, fake, Config{})

	const n = 4
	var wg sync.WaitGroup
	var mu sync.Mutex
	predicted := map[common.Hash]common.Address{}
	receipts := make([]*types.Receipt, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipts[i], _, errs[i] = d.Send(ctx, nil, []byte{0x60, byte(i)}, func(ctx context.Context, s Sent) error {
				mu.Lock()
				predicted[s.Hash] = s.Created
				mu.Unlock()
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if fake.nonceCalls != 1 {
		t.Fatalf("nonce lookups: want=1 got=%d", fake.nonceCalls)
	}
	if fake.tags[0] != "pending" {
		t.Fatalf("nonce block tag: want=pending got=%s", fake.tags[0])
	}
	got := append([]uint64(nil), fake.nonces...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, nonce := range got {
		if nonce != fake.base+uint64(i) {
			t.Fatalf("nonces: want=7..10 got=%v", got)
		}
	}
	seen := map[common.Address]bool{}
	for _, r := range receipts {
		if want := predicted[r.TxHash]; r.ContractAddress != want {
			t.Fatalf("predicted address: want=%s got=%s", r.ContractAddress.Hex(), want.Hex())
		}
		if seen[r.ContractAddress] {
			t.Fatalf("address %s predicted twice", r.ContractAddress.Hex())
		}
		seen[r.ContractAddress] = true
	}
}

func TestDeployerKeepsNonceWhenBroadcastIsAborted(t *testing.T) {
	ctx := context.Background()
	fake := &fakeEth{base: 2}
	d := newTestDeployer(t, fake, Config{})

	stop := errors.New("store unavailable")
	_, aborted, err := d.Send(ctx, nil, []byte{0x60}, func(context.Context, Sent) error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("aborted Send err: want=%v got=%v", stop, err)
	}
	_, sent, err := d.Send(ctx, nil, []byte{0x60}, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Created != aborted.Created {
		t.Fatalf("created: want=%s got=%s", aborted.Created.Hex(), sent.Created.Hex())
	}
	if len(fake.nonces) != 1 || fake.nonces[0] != 2 {
		t.Fatalf("broadcast nonces: want=[2] got=%v", fake.nonces)
	}
}

func TestDeployerResyncsNonceAfterFailedBroadcast(t *testing.T) {
	ctx := context.Background()
	fake := &fakeEth{base: 3, sendErrs: 1}
	d := newTestDeployer(t, fake, Config{})

	if _, _, err := d.Send(ctx, nil, []byte{0x60}, nil); err == nil {
		t.Fatalf("first Send: want error")
	}
	fake.mu.Lock()
	fake.base = 4
	fake.mu.Unlock()
	if _, _, err := d.Send(ctx, nil, []byte{0x60}, nil); err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if fake.nonceCalls != 2 {
		t.Fatalf("nonce lookups: want=2 got=%d", fake.nonceCalls)
	}
	if len(fake.nonces) != 1 || fake.nonces[0] != 4 {
		t.Fatalf("broadcast nonces: want=[4] got=%v", fake.nonces)
	}
}

func TestWaitForReceiptPollsUntilMined(t *testing.T) {
	ctx := context.Background()
	fake := &fakeEth{pendingPolls: 2}
	d := newTestDeployer(t, fake, Config{})

	if _, _, err := d.Send(ctx, nil, []byte{0x60}, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if fake.polls != 3 {
		t.Fatalf("receipt polls: want=3 got=%d", fake.polls)
	}
}

func TestWaitForReceiptReturnsRPCErrors(t *testing.T) {
	fake := &fakeEth{receiptErr: errors.New("unauthorized")}
	d := newTestDeployer(t, fake, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := d.WaitForReceipt(ctx, common.HexToHash("0x01"))
	if err == nil {
		t.Fatalf("WaitForReceipt: want error")
	}
	if errors.Is(err, context.DeadlineExceeded) || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("WaitForReceipt err: want rpc error got=%v", err)
	}
}

func TestWaitForReceiptTimesOut(t *testing.T) {
	fake := &fakeEth{}
	d := newTestDeployer(t, fake, Config{ReceiptTimeout: 20 * time.Millisecond})

	_, err := d.WaitForReceipt(context.Background(), common.HexToHash("0x02"))
	if !errors.Is(err, ErrReceiptTimeout) {
		t.Fatalf("WaitForReceipt err: want=%v got=%v", ErrReceiptTimeout, err)
	}
}
