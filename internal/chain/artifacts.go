package chain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract: its ABI and creation bytecode.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// artifactFile matches truffle and hardhat build output.
type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// Artifacts loads <dir>/<name>.json files and caches them.
type Artifacts struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Artifact
}

func NewArtifacts(dir string) *Artifacts {
	return &Artifacts{dir: dir, cache: map[string]*Artifact{}}
}

func (a *Artifacts) Load(name string) (*Artifact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("artifact name is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if art, ok := a.cache[name]; ok {
		return art, nil
	}
	raw, err := os.ReadFile(filepath.Join(a.dir, name+".json"))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	art, err := ParseArtifact(name, raw)
	if err != nil {
		return nil, err
	}
	a.cache[name] = art
	return art, nil
}

func ParseArtifact(name string, raw []byte) (*Artifact, error) {
	var f artifactFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", name, err)
	}
	if len(f.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", name)
	}
	parsed, err := abi.JSON(bytes.NewReader(f.ABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi of %s: %w", name, err)
	}
	code, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(f.Bytecode), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode bytecode of %s: %w", name, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("artifact %s has no bytecode (abstract contract or unlinked library?)", name)
	}
	return &Artifact{Name: name, ABI: parsed, Bytecode: code}, nil
}

// PackConstructor ABI-encodes constructor arguments given as plain values.
func (a *Artifact) PackConstructor(args []any) ([]byte, error) {
	inputs := a.ABI.Constructor.Inputs
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("%s constructor takes %d arguments, got %d", a.Name, len(inputs), len(args))
	}
	typed := make([]any, len(args))
	for i, in := range inputs {
		v, err := coerce(in.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("%s constructor argument %q: %w", a.Name, in.Name, err)
		}
		typed[i] = v
	}
	return inputs.Pack(typed...)
}
