package bisect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatchsetEnvArgs(t *testing.T) {
	patchset := Patchset{Overlays: []Overlay{
		{Pick: "abc123"},
		{Env: "NIXPKGS_ALLOW_BROKEN=1"},
		{Pick: "def456"},
	}}

	assert.Equal(t, []string{
		"--try-pick", "abc123",
		"--setenv", "NIXPKGS_ALLOW_BROKEN=1",
		"--try-pick", "def456",
	}, patchset.EnvArgs(), "Wrong env args")
	assert.Empty(t, Patchset{}.EnvArgs(), "Empty patchset resulted in env args")
}

func TestPatchsetDigest(t *testing.T) {
	a := Patchset{Name: "a", Overlays: []Overlay{{Pick: "abc"}, {Pick: "def"}}}
	b := Patchset{Name: "b", Overlays: []Overlay{{Pick: "abc"}, {Pick: "def"}}}
	reordered := Patchset{Name: "a", Overlays: []Overlay{{Pick: "def"}, {Pick: "abc"}}}

	assert.Equal(t, a.Digest(), b.Digest(), "Equal overlays resulted in different digests")
	assert.NotEqual(t, a.Digest(), reordered.Digest(), "Reordered overlays resulted in the same digest")
	assert.Nil(t, a.Digest().Validate(), "Invalid digest")
}

func TestOverlayValidate(t *testing.T) {
	values := []struct {
		overlay Overlay
		valid   bool
	}{
		{Overlay{Pick: "abc"}, true},
		{Overlay{Env: "FOO=bar"}, true},
		{Overlay{Env: "FOO="}, true},
		{Overlay{Env: "FOO"}, false},
		{Overlay{}, false},
		{Overlay{Pick: "abc", Env: "FOO=bar"}, false},
	}

	for _, v := range values {
		err := v.overlay.Validate()
		if v.valid {
			assert.Nilf(t, err, "Valid overlay %+v rejected", v.overlay)
		} else {
			assert.NotNilf(t, err, "Invalid overlay %+v accepted", v.overlay)
		}
	}
}
