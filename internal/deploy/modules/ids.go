package modules

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

type ModuleID [32]byte

func (id ModuleID) Hex() string { return "0x" + hex.EncodeToString(id[:]) }

// ModuleIDFor is keccak256 of the module's wiring name.
func ModuleIDFor(name string) ModuleID {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(name))
	var out ModuleID
	copy(out[:], h.Sum(nil))
	return out
}

type Wiring struct {
	Name string
	ID   ModuleID
	Kind deploy.ModuleKind
}

// WiringOrder is the order the Controller expects in setModules.
var WiringOrder = []Wiring{
	{Name: "DISPUTE_MANAGER", ID: ModuleIDFor("DISPUTE_MANAGER"), Kind: deploy.KindDisputeManager},
	{Name: "TREASURY", ID: ModuleIDFor("TREASURY"), Kind: deploy.KindTreasury},
	{Name: "VOTING", ID: ModuleIDFor("VOTING"), Kind: deploy.KindVoting},
	{Name: "JURORS_REGISTRY", ID: ModuleIDFor("JURORS_REGISTRY"), Kind: deploy.KindRegistry},
	{Name: "SUBSCRIPTIONS", ID: ModuleIDFor("SUBSCRIPTIONS"), Kind: deploy.KindSubscriptions},
}
