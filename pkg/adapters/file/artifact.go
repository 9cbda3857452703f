// Package file reads compiled programs produced by the build step from disk.
package file

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/deploykit/pkg/ports"
)

// Artifact implements ports.ArtifactSource over a file. The file holds either
// the raw assembly (.dll) or the hex text returned by the build service.
type Artifact struct {
	Path string
}

// NewArtifact creates an artifact source for path.
func NewArtifact(path string) *Artifact {
	return &Artifact{Path: path}
}

// CompiledProgram returns the program bytes, or nil when the file is absent or empty.
func (a *Artifact) CompiledProgram(ctx context.Context) ([]byte, error) {
	if a.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(a.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	if strings.EqualFold(filepath.Ext(a.Path), ".dll") {
		if len(data) == 0 {
			return nil, nil
		}
		return data, nil
	}

	text := bytes.TrimSpace(data)
	text = bytes.TrimPrefix(text, []byte("0x"))
	if len(text) == 0 {
		return nil, nil
	}
	code := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(code, text); err != nil {
		// Not hex text: treat as a raw binary under another extension.
		return data, nil
	}
	return code, nil
}

var _ ports.ArtifactSource = (*Artifact)(nil)
