package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
	"github.com/yungbote/court-deployer/internal/pkg/httpx"
	"github.com/yungbote/court-deployer/internal/pkg/logger"
)

var ErrVerificationFailed = errors.New("explorer rejected verification")

type EtherscanConfig struct {
	APIURL      string
	ExplorerURL string
	APIKey      string
	// SourcesDir holds flattened sources named <artifact>.sol.
	SourcesDir      string
	CompilerVersion string
	OptimizerRuns   int
	PollInterval    time.Duration
	MaxPolls        int
}

// EtherscanVerifier submits flattened sources to an Etherscan-compatible API.
type EtherscanVerifier struct {
	log  *logger.Logger
	cfg  EtherscanConfig
	http *http.Client
}

type etherscanHTTPError struct {
	StatusCode int
	Body       string
}

func (e *etherscanHTTPError) Error() string {
	return fmt.Sprintf("etherscan http %d: %s", e.StatusCode, e.Body)
}

func (e *etherscanHTTPError) HTTPStatusCode() int { return e.StatusCode }

type etherscanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func NewEtherscanVerifier(log *logger.Logger, cfg EtherscanConfig) (*EtherscanVerifier, error) {
	if strings.TrimSpace(cfg.APIURL) == "" || strings.TrimSpace(cfg.ExplorerURL) == "" {
		return nil, fmt.Errorf("etherscan api and explorer urls are required")
	}
	if strings.TrimSpace(cfg.CompilerVersion) == "" {
		return nil, fmt.Errorf("etherscan compiler version is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 24
	}
	return &EtherscanVerifier{
		log:  log.With("service", "EtherscanVerifier"),
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (v *EtherscanVerifier) Verify(ctx context.Context, req deploy.VerifyRequest) (string, error) {
	artifact := req.Handle.Artifact
	if artifact == "" {
		artifact = req.Record.Artifact
	}
	address := req.Record.Address
	src, err := os.ReadFile(filepath.Join(v.cfg.SourcesDir, artifact+".sol"))
	if err != nil {
		return "", fmt.Errorf("read flattened source for %s: %w", artifact, err)
	}
	args := req.Record.ConstructorArgs
	if args == "" {
		args = req.Handle.ConstructorArgs
	}

	optimized := "0"
	if v.cfg.OptimizerRuns > 0 {
		optimized = "1"
	}
	form := url.Values{}
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("apikey", v.cfg.APIKey)
	form.Set("contractaddress", address)
	form.Set("sourceCode", withHeaders(string(src), req.Headers))
	form.Set("codeformat", "solidity-single-file")
	form.Set("contractname", artifact)
	form.Set("compilerversion", v.cfg.CompilerVersion)
	form.Set("optimizationUsed", optimized)
	form.Set("runs", fmt.Sprint(v.cfg.OptimizerRuns))
	// the misspelling is part of the API
	form.Set("constructorArguements", strings.TrimPrefix(args, "0x"))

	var submit etherscanResponse
	if err := v.do(ctx, http.MethodPost, v.cfg.APIURL, strings.NewReader(form.Encode()), &submit); err != nil {
		return "", err
	}
	if submit.Status != "1" {
		if alreadyVerified(submit.Result) {
			return v.codeURL(address), nil
		}
		return "", fmt.Errorf("%w: %s", ErrVerificationFailed, submit.Result)
	}
	guid := submit.Result
	log := v.log.With("module", req.Handle.Kind, "address", address, "guid", guid)
	log.Info("Submitted source for verification")

	for i := 0; i < v.cfg.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(v.cfg.PollInterval):
		}
		q := url.Values{}
		q.Set("module", "contract")
		q.Set("action", "checkverifystatus")
		q.Set("guid", guid)
		q.Set("apikey", v.cfg.APIKey)
		var status etherscanResponse
		if err := v.do(ctx, http.MethodGet, v.cfg.APIURL+"?"+q.Encode(), nil, &status); err != nil {
			// status checks are reads, so a throttled or failed poll only costs one attempt
			if ctx.Err() == nil && httpx.IsRetryableError(err) {
				log.Warn("Verification status check failed; polling again", "error", err)
				continue
			}
			return "", err
		}
		switch {
		case status.Status == "1" || alreadyVerified(status.Result):
			log.Info("Source verified")
			return v.codeURL(address), nil
		case strings.Contains(strings.ToLower(status.Result), "pending"):
			continue
		default:
			return "", fmt.Errorf("%w: %s", ErrVerificationFailed, status.Result)
		}
	}
	return "", fmt.Errorf("verification of %s still pending after %d polls", address, v.cfg.MaxPolls)
}

func (v *EtherscanVerifier) codeURL(address string) string {
	return strings.TrimRight(v.cfg.ExplorerURL, "/") + "/address/" + address + "#code"
}

func (v *EtherscanVerifier) do(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &etherscanHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("etherscan decode error: %w; raw=%s", err, string(raw))
	}
	return nil
}

func withHeaders(src string, headers []string) string {
	if len(headers) == 0 {
		return src
	}
	var b strings.Builder
	b.WriteString("/**\n")
	for _, h := range headers {
		b.WriteString(" * " + h + "\n")
	}
	b.WriteString(" */\n\n")
	b.WriteString(src)
	return b.String()
}

func alreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}
