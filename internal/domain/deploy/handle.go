package deploy

import "context"

// Handle is a live reference to a deployed module instance.
type Handle struct {
	Kind        ModuleKind `json:"kind"`
	Artifact    string     `json:"artifact"`
	Address     string     `json:"address"`
	CreationRef string     `json:"creation_ref,omitempty"`
	// hex-encoded ABI constructor arguments
	ConstructorArgs string `json:"constructor_args,omitempty"`
}

// Submission describes a creation transaction just before it is broadcast.
type Submission struct {
	TxRef            string
	PredictedAddress string
	ConstructorArgs  string
}

type CreateRequest struct {
	Kind     ModuleKind
	Artifact string
	Args     []any
	// OnSubmit runs after signing and before broadcast; an error aborts the creation.
	OnSubmit func(ctx context.Context, sub Submission) error
}

type VerifyRequest struct {
	Network       string
	Handle        Handle
	Record        DeploymentRecord
	SourcePackage string
	Headers       []string
}
