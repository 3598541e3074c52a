package verify

import (
	"time"

	"github.com/yungbote/court-deployer/internal/domain/deploy"
)

// Bundle is the provenance document published for one deployed module.
type Bundle struct {
	Network         string            `json:"network"`
	Module          deploy.ModuleKind `json:"module"`
	Artifact        string            `json:"artifact"`
	Address         string            `json:"address"`
	CreationRef     string            `json:"creation_ref"`
	ConstructorArgs string            `json:"constructor_args,omitempty"`
	SchemaVersion   string            `json:"schema_version"`
	SourcePackage   string            `json:"source_package"`
	Headers         []string          `json:"headers,omitempty"`
	PublishedAt     time.Time         `json:"published_at"`
}

func newBundle(req deploy.VerifyRequest, now time.Time) Bundle {
	artifact := req.Handle.Artifact
	if artifact == "" {
		artifact = req.Record.Artifact
	}
	args := req.Handle.ConstructorArgs
	if args == "" {
		args = req.Record.ConstructorArgs
	}
	return Bundle{
		Network:         req.Network,
		Module:          req.Handle.Kind,
		Artifact:        artifact,
		Address:         req.Record.Address,
		CreationRef:     req.Record.CreationRef,
		ConstructorArgs: args,
		SchemaVersion:   req.Record.SchemaVersion,
		SourcePackage:   req.SourcePackage,
		Headers:         req.Headers,
		PublishedAt:     now.UTC(),
	}
}
