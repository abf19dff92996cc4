// Package helpers provides fixtures and a server harness for the data-syncd
// integration tests.
package helpers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/onsi/gomega"
)

// Tree is the on-disk layout of one test: a source tree, a destination tree
// standing in for the sibling unit, a rules directory and a state directory
type Tree struct {
	Root  string
	Src   string
	Dst   string
	Rules string
	State string
}

// NewTree creates the directories of a Tree under root
func NewTree(root string) *Tree {
	tree := &Tree{
		Root:  root,
		Src:   filepath.Join(root, "src"),
		Dst:   filepath.Join(root, "dst"),
		Rules: filepath.Join(root, "rules"),
		State: filepath.Join(root, "state"),
	}
	for _, dir := range []string{tree.Src, tree.Dst, tree.Rules, tree.State} {
		gomega.Expect(os.MkdirAll(dir, 0750)).To(gomega.Succeed())
	}
	return tree
}

// WriteSource writes content to a file below the source tree and returns its path
func (t *Tree) WriteSource(name, content string) string {
	path := filepath.Join(t.Src, name)
	gomega.Expect(os.MkdirAll(filepath.Dir(path), 0750)).To(gomega.Succeed())
	gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
	return path
}

// SrcPath returns the path of name in the source tree
func (t *Tree) SrcPath(name string) string {
	return filepath.Join(t.Src, name)
}

// DstPath returns the path of name in the destination tree
func (t *Tree) DstPath(name string) string {
	return filepath.Join(t.Dst, name)
}

// ReadDestination returns the content of name in the destination tree, or
// an error when it has not been copied
func (t *Tree) ReadDestination(name string) (string, error) {
	data, err := os.ReadFile(t.DstPath(name))
	return string(data), err
}

// RuleEntry is one rule of a rule document
type RuleEntry struct {
	Path             string `json:"Path"`
	DestinationPath  string `json:"DestinationPath,omitempty"`
	Description      string `json:"Description,omitempty"`
	SyncDirection    string `json:"SyncDirection"`
	SyncType         string `json:"SyncType"`
	PeriodicityInSec int    `json:"PeriodicityInSec,omitempty"`
}

// RuleDocument is the on-disk shape of a rule file
type RuleDocument struct {
	Files       []RuleEntry `json:"Files,omitempty"`
	Directories []RuleEntry `json:"Directories,omitempty"`
}

// WriteRuleDocument writes doc into the rules directory as name
func (t *Tree) WriteRuleDocument(name string, doc RuleDocument) {
	data, err := json.MarshalIndent(doc, "", "  ")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	gomega.Expect(os.WriteFile(filepath.Join(t.Rules, name), data, 0600)).To(gomega.Succeed())
}

// WriteRawRuleDocument writes content into the rules directory unchanged
func (t *Tree) WriteRawRuleDocument(name, content string) {
	gomega.Expect(os.WriteFile(filepath.Join(t.Rules, name), []byte(content), 0600)).To(gomega.Succeed())
}

// Facts are the static redundancy facts written into the settings file
type Facts struct {
	Role           string
	Enabled        bool
	SiblingAddress string
}

// WriteConfigYAML writes a settings file using the native transfer and
// static facts and returns its path
func (t *Tree) WriteConfigYAML(facts Facts) string {
	configContent := fmt.Sprintf(`rulesDir: %s
stateDir: %s

transfer:
  mode: native

redundancy:
  source: static
  static:
    role: %s
    enabled: %t
`, t.Rules, t.State, facts.Role, facts.Enabled)
	if facts.SiblingAddress != "" {
		configContent += fmt.Sprintf("    siblingAddress: %s\n", facts.SiblingAddress)
	}

	path := filepath.Join(t.Root, "settings.yaml")
	gomega.Expect(os.WriteFile(path, []byte(configContent), 0600)).To(gomega.Succeed())
	return path
}
