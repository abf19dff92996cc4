package facts

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// fileDocument is the facts file written by the platform's redundancy manager
type fileDocument struct {
	Role              string `yaml:"role"`
	RedundancyEnabled bool   `yaml:"redundancyEnabled"`
	SiblingAddress    string `yaml:"siblingAddress"`
	SiblingUser       string `yaml:"siblingUser"`
}

// FileProvider reads redundancy facts from a YAML file
type FileProvider struct {
	path string
	fs   afero.Fs

	mu    sync.RWMutex
	facts RedundancyContext
}

// FileProviderOption configures a FileProvider
type FileProviderOption func(*FileProvider)

// WithFileSystem overrides the filesystem the facts file is read from
func WithFileSystem(fsys afero.Fs) FileProviderOption {
	return func(p *FileProvider) {
		p.fs = fsys
	}
}

// NewFileProvider creates a provider backed by the file at path
func NewFileProvider(path string, opts ...FileProviderOption) *FileProvider {
	p := &FileProvider{
		path:  path,
		fs:    afero.NewOsFs(),
		facts: RedundancyContext{Role: RoleUnknown},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh re-reads the facts file. The previous snapshot is kept on error.
func (p *FileProvider) Refresh(_ context.Context) error {
	data, err := afero.ReadFile(p.fs, p.path)
	if err != nil {
		return fmt.Errorf("failed to read facts file %s: %w", p.path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse facts file %s: %w", p.path, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.facts = RedundancyContext{
		Role:              ParseRole(doc.Role),
		RedundancyEnabled: doc.RedundancyEnabled,
		SiblingAddress:    doc.SiblingAddress,
		SiblingUser:       doc.SiblingUser,
	}
	return nil
}

// Facts returns the last successfully read snapshot
func (p *FileProvider) Facts() RedundancyContext {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.facts
}
