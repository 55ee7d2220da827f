package bisect

import (
	"context"
	"fmt"
)

// fakePrimitive hands out revisions from next and records everything done to it
type fakePrimitive struct {
	head string
	next []string

	marks     []Vote
	checkouts []string
}

func (f *fakePrimitive) Mark(ctx context.Context, verdict Verdict, rev string) error {
	f.marks = append(f.marks, Vote{Revision: rev, Verdict: verdict})
	return nil
}

func (f *fakePrimitive) Next(ctx context.Context) (string, bool, error) {
	if len(f.next) == 0 {
		return "", false, nil
	}
	rev := f.next[0]
	f.next = f.next[1:]
	return rev, true, nil
}

func (f *fakePrimitive) Checkout(ctx context.Context, rev string) error {
	f.checkouts = append(f.checkouts, rev)
	f.head = rev
	return nil
}

func (f *fakePrimitive) ResolveRev(ctx context.Context, rev string) (string, error) {
	if rev == "HEAD" {
		return f.head, nil
	}
	if rev == "" {
		return "", fmt.Errorf("empty revision")
	}
	return rev, nil
}

// scriptedProbe exits with the codes of exitCodes in order
type scriptedProbe struct {
	exitCodes []int
	runs      [][]string
}

func (s *scriptedProbe) Run(ctx context.Context, argv []string) (int, error) {
	s.runs = append(s.runs, argv)
	if len(s.exitCodes) == 0 {
		return 0, fmt.Errorf("probe ran more often than scripted")
	}
	code := s.exitCodes[0]
	s.exitCodes = s.exitCodes[1:]
	return code, nil
}
