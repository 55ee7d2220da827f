package buildstatus

import (
	"context"
	"fmt"
)

// fakeBuildSystem is an in-memory build system. Derivations not in broken build successfully
type fakeBuildSystem struct {
	deps   map[string][]string
	built  map[string]bool
	broken map[string]bool
	logs   map[string]string

	exprs map[string]string

	builds           []string
	instantiations   []string
	failDependencies bool
}

func newFakeBuildSystem() *fakeBuildSystem {
	return &fakeBuildSystem{
		deps:   make(map[string][]string),
		built:  make(map[string]bool),
		broken: make(map[string]bool),
		logs:   make(map[string]string),
		exprs:  make(map[string]string),
	}
}

func (f *fakeBuildSystem) Instantiate(ctx context.Context, expr, file string) (string, error) {
	f.instantiations = append(f.instantiations, expr)
	drv, ok := f.exprs[expr]
	if !ok {
		return "", fmt.Errorf("attribute %s not found in %s", expr, file)
	}
	return drv, nil
}

func (f *fakeBuildSystem) Dependencies(ctx context.Context, drv string) ([]string, error) {
	if f.failDependencies {
		return nil, fmt.Errorf("store unavailable")
	}
	return f.deps[drv], nil
}

func (f *fakeBuildSystem) IsBuilt(ctx context.Context, drv string) (bool, error) {
	return f.built[drv], nil
}

func (f *fakeBuildSystem) Build(ctx context.Context, drv string) (bool, error) {
	f.builds = append(f.builds, drv)
	if f.broken[drv] {
		return false, nil
	}
	f.built[drv] = true
	return true, nil
}

func (f *fakeBuildSystem) Log(ctx context.Context, drv string) ([]byte, error) {
	return []byte(f.logs[drv]), nil
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}
