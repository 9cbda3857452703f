package memory

import (
	"context"

	"github.com/aretw0/deploykit/pkg/ports"
)

// Program is an in-memory ports.ArtifactSource. A nil Program means "not built".
type Program []byte

// CompiledProgram implements ports.ArtifactSource.
func (p Program) CompiledProgram(context.Context) ([]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return p, nil
}

var _ ports.ArtifactSource = Program(nil)
