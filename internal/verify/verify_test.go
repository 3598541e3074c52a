package verify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memObjects) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = raw
	m.types[key] = contentType
	return nil
}

func (m *memObjects) PublicURL(key string) string {
	return "https://storage.googleapis.com/bucket/" + key
}

func testRequest() deploy.VerifyRequest {
	rec := deploy.DeploymentRecord{
		Network:         "staging",
		Kind:            deploy.KindRegistry,
		Address:         "0x00000000000000000000000000000000000000aa",
		CreationRef:     "0xtx",
		SchemaVersion:   deploy.SchemaVersion,
		Artifact:        "JurorsRegistry",
		ConstructorArgs: "0xbeef",
	}
	return deploy.VerifyRequest{
		Network:       "staging",
		Handle:        deploy.Handle{Kind: deploy.KindRegistry, Artifact: "JurorsRegistry", Address: rec.Address},
		Record:        rec,
		SourcePackage: "@aragon/court",
		Headers:       []string{"Commit sha: abc"},
	}
}

func TestGCSVerifierPublishesBundle(t *testing.T) {
	objs := &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
	v := NewGCSVerifier(logger.NewNop(), objs, "/deploys/")
	v.now = func() time.Time { return time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC) }

	ref, err := v.Verify(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	key := "deploys/staging/registry.json"
	if ref != "https://storage.googleapis.com/bucket/"+key {
		t.Fatalf("ref: got=%s", ref)
	}
	if objs.types[key] != "application/json" {
		t.Fatalf("content type: got=%s", objs.types[key])
	}
	var b Bundle
	if err := json.Unmarshal(objs.objects[key], &b); err != nil {
		t.Fatalf("decode bundle: %v", err)
	}
	if b.Address != testRequest().Record.Address || b.ConstructorArgs != "0xbeef" || b.SourcePackage != "@aragon/court" {
		t.Fatalf("bundle: %+v", b)
	}
	if len(b.Headers) != 1 || b.Module != deploy.KindRegistry {
		t.Fatalf("bundle headers/module: %+v", b)
	}
}

type etherscanFake struct {
	mu       sync.Mutex
	submits  int
	polls    int
	form     map[string]string
	pending  int
	rejected bool
	// throttle answers the first N status checks with 503
	throttle int
}

func (f *etherscanFake) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = r.ParseForm()
	switch r.Form.Get("action") {
	case "verifysourcecode":
		f.submits++
		f.form = map[string]string{}
		for k := range r.PostForm {
			f.form[k] = r.PostForm.Get(k)
		}
		_ = json.NewEncoder(w).Encode(etherscanResponse{Status: "1", Message: "OK", Result: "guid-1"})
	case "checkverifystatus":
		f.polls++
		if f.polls <= f.throttle {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		if f.polls <= f.pending {
			_ = json.NewEncoder(w).Encode(etherscanResponse{Status: "0", Message: "NOTOK", Result: "Pending in queue"})
			return
		}
		if f.rejected {
			_ = json.NewEncoder(w).Encode(etherscanResponse{Status: "0", Message: "NOTOK", Result: "Fail - Unable to verify"})
			return
		}
		_ = json.NewEncoder(w).Encode(etherscanResponse{Status: "1", Message: "OK", Result: "Pass - Verified"})
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func newEtherscan(t *testing.T, fake *etherscanFake) *EtherscanVerifier {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "JurorsRegistry.sol"), []byte("contract JurorsRegistry {}"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	v, err := NewEtherscanVerifier(logger.NewNop(), EtherscanConfig{
		APIURL:          srv.URL + "/api",
		ExplorerURL:     "https://explorer.test/",
		APIKey:          "key",
		SourcesDir:      dir,
		CompilerVersion: "v0.5.8+commit.23d335f2",
		OptimizerRuns:   200,
		PollInterval:    time.Millisecond,
		MaxPolls:        5,
	})
	if err != nil {
		t.Fatalf("NewEtherscanVerifier: %v", err)
	}
	return v
}

func TestEtherscanVerifierPollsUntilVerified(t *testing.T) {
	fake := &etherscanFake{pending: 2}
	v := newEtherscan(t, fake)

	ref, err := v.Verify(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	want := "https://explorer.test/address/0x00000000000000000000000000000000000000aa#code"
	if ref != want {
		t.Fatalf("ref: want=%s got=%s", want, ref)
	}
	if fake.submits != 1 || fake.polls != 3 {
		t.Fatalf("calls: submits=%d polls=%d", fake.submits, fake.polls)
	}
	if fake.form["constructorArguements"] != "beef" {
		t.Fatalf("constructor args: got=%s", fake.form["constructorArguements"])
	}
	src := fake.form["sourceCode"]
	if !strings.HasPrefix(src, "/**\n * Commit sha: abc\n") || !strings.Contains(src, "contract JurorsRegistry") {
		t.Fatalf("source not prefixed with headers: %q", src)
	}
	if fake.form["optimizationUsed"] != "1" || fake.form["runs"] != "200" {
		t.Fatalf("optimizer settings: %v", fake.form)
	}
}

func TestEtherscanVerifierRejected(t *testing.T) {
	fake := &etherscanFake{rejected: true}
	v := newEtherscan(t, fake)

	_, err := v.Verify(context.Background(), testRequest())
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("err: want=%v got=%v", ErrVerificationFailed, err)
	}
}

func TestEtherscanVerifierMissingSource(t *testing.T) {
	v := newEtherscan(t, &etherscanFake{})
	req := testRequest()
	req.Handle.Artifact = "Unknown"
	if _, err := v.Verify(context.Background(), req); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestEtherscanVerifierPollsThroughThrottling(t *testing.T) {
	fake := &etherscanFake{throttle: 2}
	v := newEtherscan(t, fake)

	if _, err := v.Verify(context.Background(), testRequest()); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if fake.submits != 1 || fake.polls != 3 {
		t.Fatalf("calls: submits=%d polls=%d", fake.submits, fake.polls)
	}
}
