package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/court-deployer/internal/deploy/plan"
	"github.com/yungbote/court-deployer/internal/deploy/store"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

const (
	testCaller = "0x9999999999999999999999999999999999999999"
	testTarget = "0x3333333333333333333333333333333333333333"
)

func addr(n int) string { return fmt.Sprintf("0x%040x", n) }

type fakeFactory struct {
	mu      sync.Mutex
	seq     int
	creates map[deploy.ModuleKind]int
	attach  map[deploy.ModuleKind]int
	args    map[deploy.ModuleKind][]any

	// failAfterSubmit makes Create fail once the creation was broadcast.
	failAfterSubmit map[deploy.ModuleKind]error
	failBefore      map[deploy.ModuleKind]error
	noCreationRef   bool
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		seq:             100,
		creates:         map[deploy.ModuleKind]int{},
		attach:          map[deploy.ModuleKind]int{},
		args:            map[deploy.ModuleKind][]any{},
		failAfterSubmit: map[deploy.ModuleKind]error{},
		failBefore:      map[deploy.ModuleKind]error{},
	}
}

func (f *fakeFactory) Attach(ctx context.Context, kind deploy.ModuleKind, artifact, address string) (deploy.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attach[kind]++
	return deploy.Handle{Kind: kind, Artifact: artifact, Address: address}, nil
}

func (f *fakeFactory) Create(ctx context.Context, req deploy.CreateRequest) (deploy.Handle, error) {
	f.mu.Lock()
	if err := f.failBefore[req.Kind]; err != nil {
		f.mu.Unlock()
		return deploy.Handle{}, err
	}
	f.seq++
	n := f.seq
	f.creates[req.Kind]++
	f.args[req.Kind] = req.Args
	failErr := f.failAfterSubmit[req.Kind]
	noRef := f.noCreationRef
	f.mu.Unlock()

	sub := deploy.Submission{TxRef: fmt.Sprintf("0xtx%d", n), PredictedAddress: addr(n), ConstructorArgs: "0xabcd"}
	if req.OnSubmit != nil {
		if err := req.OnSubmit(ctx, sub); err != nil {
			return deploy.Handle{}, err
		}
	}
	if failErr != nil {
		return deploy.Handle{}, failErr
	}
	h := deploy.Handle{Kind: req.Kind, Artifact: req.Artifact, Address: sub.PredictedAddress, CreationRef: sub.TxRef, ConstructorArgs: sub.ConstructorArgs}
	if noRef {
		h.CreationRef = ""
	}
	return h, nil
}

func (f *fakeFactory) totalCreates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.creates {
		n += c
	}
	return n
}

type fakeController struct {
	mu       sync.Mutex
	governor string
	bound    []string
	setCalls int
	ids      [][32]byte
	addrs    []string
	changes  []string
}

func (c *fakeController) BindController(ctx context.Context, address string) (Controller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bound = append(c.bound, address)
	return c, nil
}

func (c *fakeController) ModulesGovernor(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.governor, nil
}

func (c *fakeController) SetModules(ctx context.Context, ids [][32]byte, addresses []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	c.ids = ids
	c.addrs = addresses
	return nil
}

func (c *fakeController) ChangeModulesGovernor(ctx context.Context, to string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, to)
	c.governor = to
	return nil
}

type fakeMinter struct {
	mu     sync.Mutex
	minted []string
}

func (m *fakeMinter) MintTestToken(ctx context.Context, tok plan.Token) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.minted = append(m.minted, tok.Symbol)
	return addr(900 + len(m.minted)), nil
}

type fakeProber struct{ code map[string]bool }

func (p fakeProber) HasCode(ctx context.Context, address string) (bool, error) {
	return p.code[strings.ToLower(address)], nil
}

type fakeVerifier struct {
	mu    sync.Mutex
	calls map[deploy.ModuleKind]int
	last  deploy.VerifyRequest
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{calls: map[deploy.ModuleKind]int{}}
}

func (v *fakeVerifier) Verify(ctx context.Context, req deploy.VerifyRequest) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls[req.Handle.Kind]++
	v.last = req
	return "https://verify.test/" + string(req.Handle.Kind), nil
}

func (v *fakeVerifier) total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, c := range v.calls {
		n += c
	}
	return n
}

type harness struct {
	store      store.Store
	factory    *fakeFactory
	controller *fakeController
	minter     *fakeMinter
	verifier   *fakeVerifier
	prober     CodeProber
	opts       Options
}

func newHarness() *harness {
	return &harness{
		store:      store.NewMemoryStore("staging"),
		factory:    newFakeFactory(),
		controller: &fakeController{governor: testCaller},
		minter:     &fakeMinter{},
		opts:       Options{Caller: testCaller},
	}
}

func (h *harness) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	deps := Deps{
		Log:         logger.NewNop(),
		Store:       h.store,
		Factory:     h.factory,
		Controllers: h.controller,
		Minter:      h.minter,
		Prober:      h.prober,
	}
	// a nil *fakeVerifier must stay a nil interface
	if h.verifier != nil {
		deps.Verifier = h.verifier
	}
	o, err := New(deps, h.opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func testPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p, err := plan.Load("../plan/testdata/plan.yaml", "staging")
	if err != nil {
		t.Fatalf("load plan: %v", err)
	}
	return p
}
