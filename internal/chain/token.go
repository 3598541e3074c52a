package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/court-deployer/internal/deploy/plan"
	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

const TestTokenArtifact = "ERC20Mock"

// TokenMinter deploys ERC20Mock instances for plans without a token address.
type TokenMinter struct {
	factory  *Factory
	artifact string
}

func NewTokenMinter(f *Factory, artifact string) *TokenMinter {
	if strings.TrimSpace(artifact) == "" {
		artifact = TestTokenArtifact
	}
	return &TokenMinter{factory: f, artifact: artifact}
}

func (m *TokenMinter) MintTestToken(ctx context.Context, tok plan.Token) (string, error) {
	name := strings.TrimSpace(tok.Name)
	if name == "" {
		name = tok.Symbol
	}
	h, err := m.factory.Create(ctx, deploy.CreateRequest{
		Artifact: m.artifact,
		Args:     []any{name, tok.Symbol, tok.Decimals},
	})
	if err != nil {
		return "", fmt.Errorf("mint test token %s: %w", tok.Symbol, err)
	}
	return h.Address, nil
}
