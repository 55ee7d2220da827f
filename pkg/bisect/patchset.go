package bisect

import (
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
)

// An Overlay is a single modification of the environment a revision is tested in.
// Exactly one of its fields is set.
type Overlay struct {
	Pick string `yaml:"pick,omitempty"` // A commit to cherry-pick onto the tested revision
	Env  string `yaml:"env,omitempty"`  // An environment variable to set, in the form KEY=VALUE
}

// Validate checks that the overlay is well formed
func (o Overlay) Validate() error {
	if (o.Pick == "") == (o.Env == "") {
		return fmt.Errorf("overlay has to either pick a commit or set an environment variable, got %+v", o)
	}
	if o.Env != "" && !strings.Contains(o.Env, "=") {
		return fmt.Errorf("environment overlay %q is not of the form KEY=VALUE", o.Env)
	}
	return nil
}

func (o Overlay) String() string {
	if o.Pick != "" {
		return "pick " + o.Pick
	}
	return "env " + o.Env
}

// A Patchset is the ordered collection of overlays active while testing a revision
type Patchset struct {
	Name     string    // The names of the patchsets this one was combined from, or "none" if empty
	Overlays []Overlay // The overlays, in the order they get applied
}

// EnvArgs returns the arguments which make the environment tool apply the patchset
func (p Patchset) EnvArgs() []string {
	args := []string{}
	for _, o := range p.Overlays {
		if o.Pick != "" {
			args = append(args, "--try-pick", o.Pick)
		} else {
			args = append(args, "--setenv", o.Env)
		}
	}
	return args
}

// Digest identifies the overlays of the patchset. Patchsets with the same overlays in the same order share a digest
func (p Patchset) Digest() digest.Digest {
	var b strings.Builder
	for _, o := range p.Overlays {
		b.WriteString(o.String())
		b.WriteByte('\n')
	}
	return digest.FromString(b.String())
}
