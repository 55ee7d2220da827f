package bisect

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// StoreFileName is the name of the store file inside the git directory
const StoreFileName = "nix-bisect.yml"

type patchsetYaml struct {
	Name string `yaml:"name"`

	Revisions []string  `yaml:"revisions,omitempty"` // The revisions the patchset is active for, or empty if active for all
	Overlays  []Overlay `yaml:"overlays"`
}

type storeYaml struct {
	EnvTool string `yaml:"envTool" default:"bisect-env"`

	Patchsets  []patchsetYaml `yaml:"patchsets,omitempty"`
	SkipRanges []SkipRange    `yaml:"skipRanges,omitempty"`
}

// A SkipRange records a revision skipped under a name
type SkipRange struct {
	Name     string `yaml:"name"`
	Revision string `yaml:"revision"`
	Patchset string `yaml:"patchset"` // The digest of the patchset the revision was skipped with
}

// A Store persists patchsets and named skips of a bisection as yaml.
// The file is read anew on every access, since the bisection might be driven by multiple invocations.
type Store struct {
	Path string // The path of the yaml file
}

// OpenStore returns the store inside of the git directory gitDir
func OpenStore(gitDir string) *Store {
	return &Store{Path: filepath.Join(gitDir, StoreFileName)}
}

func (s *Store) load() (*storeYaml, error) {
	var doc storeYaml

	data, err := os.ReadFile(s.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Join(fmt.Errorf("failed to read store %s", s.Path), err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to parse store %s", s.Path), err)
		}
	}
	if err := defaults.Set(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) save(doc *storeYaml) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	// Replace the store atomically
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Join(fmt.Errorf("failed to write store %s", s.Path), err)
	}
	return os.Rename(tmp, s.Path)
}

// EnvTool returns the name of the tool materializing patchsets
func (s *Store) EnvTool() (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	return doc.EnvTool, nil
}

// ActivePatchset returns the patchset active for the revision rev.
// It combines all patchsets of the store which are active for rev, in the order they were added.
func (s *Store) ActivePatchset(rev string) (Patchset, error) {
	doc, err := s.load()
	if err != nil {
		return Patchset{}, err
	}

	names := []string{}
	overlays := []Overlay{}
	for _, p := range doc.Patchsets {
		if !appliesTo(p, rev) {
			continue
		}
		names = append(names, p.Name)
		overlays = append(overlays, p.Overlays...)
	}

	name := "none"
	if len(names) > 0 {
		name = strings.Join(names, "+")
	}
	return Patchset{Name: name, Overlays: overlays}, nil
}

func appliesTo(p patchsetYaml, rev string) bool {
	if len(p.Revisions) == 0 {
		return true
	}
	for _, r := range p.Revisions {
		if r == rev {
			return true
		}
	}
	return false
}

// AddOverlays appends overlays to the patchset called name, activating it for rev.
// An empty rev activates the patchset for all revisions.
func (s *Store) AddOverlays(name, rev string, overlays []Overlay) error {
	if name == "" {
		return fmt.Errorf("patchset name must not be empty")
	}
	for _, o := range overlays {
		if err := o.Validate(); err != nil {
			return err
		}
	}

	doc, err := s.load()
	if err != nil {
		return err
	}

	var patchset *patchsetYaml
	for i := range doc.Patchsets {
		if doc.Patchsets[i].Name == name {
			patchset = &doc.Patchsets[i]
			break
		}
	}
	if patchset == nil {
		doc.Patchsets = append(doc.Patchsets, patchsetYaml{Name: name})
		patchset = &doc.Patchsets[len(doc.Patchsets)-1]
		if rev != "" {
			patchset.Revisions = []string{rev}
		}
	} else if rev == "" {
		patchset.Revisions = nil
	} else if len(patchset.Revisions) > 0 && !appliesTo(*patchset, rev) {
		patchset.Revisions = append(patchset.Revisions, rev)
	}
	patchset.Overlays = append(patchset.Overlays, overlays...)

	return s.save(doc)
}

// RecordSkip stores a named skip
func (s *Store) RecordSkip(skip SkipRange) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.SkipRanges = append(doc.SkipRanges, skip)
	return s.save(doc)
}

// SkipRanges returns all named skips, in the order they were recorded
func (s *Store) SkipRanges() ([]SkipRange, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.SkipRanges, nil
}

// ClearSkipRanges forgets all named skips and returns how many there were.
// The skips already recorded with the bisection itself are kept.
func (s *Store) ClearSkipRanges() (int, error) {
	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	n := len(doc.SkipRanges)
	doc.SkipRanges = nil
	return n, s.save(doc)
}
