package git

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DominicWuest/nix-bisect/pkg/bisect"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ bisect.Primitive = &Repo{}

// initTestRepo creates a repository with a linear history of n commits and returns it with the hashes of its commits, oldest first
func initTestRepo(t *testing.T, n int) (*Repo, []string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test",
		)
		out, err := cmd.CombinedOutput()
		require.Nilf(t, err, "git %v failed: %s", args, out)
		return strings.TrimSpace(string(out))
	}
	run("init", "-b", "main")
	run("config", "user.name", "test")
	run("config", "user.email", "test@test")

	commits := []string{}
	for i := 0; i < n; i++ {
		require.Nil(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte(fmt.Sprint(i)), 0644))
		run("add", "-A")
		run("commit", "-m", fmt.Sprintf("commit %d", i))
		commits = append(commits, run("rev-parse", "HEAD"))
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRepo(dir, logrus.NewEntry(log)), commits
}

func updateRef(t *testing.T, repo *Repo, ref, sha string) {
	t.Helper()
	out, err := exec.Command("git", "-C", repo.Dir, "update-ref", ref, sha).CombinedOutput()
	require.Nilf(t, err, "update-ref failed: %s", out)
}

func TestNext(t *testing.T) {
	ctx := context.Background()

	t.Run("Candidate lies between good and bad", func(t *testing.T) {
		repo, commits := initTestRepo(t, 7)
		updateRef(t, repo, "refs/bisect/bad", commits[6])
		updateRef(t, repo, "refs/bisect/good-"+commits[0], commits[0])

		next, ok, err := repo.Next(ctx)
		assert.Nil(t, err, "Next returned an error")
		assert.True(t, ok, "Bisection reported as exhausted")
		assert.Contains(t, commits[1:6], next, "Candidate outside of the bisected range")
	})
	t.Run("Skipped candidates are passed over", func(t *testing.T) {
		repo, commits := initTestRepo(t, 7)
		updateRef(t, repo, "refs/bisect/bad", commits[6])
		updateRef(t, repo, "refs/bisect/good-"+commits[0], commits[0])

		first, _, err := repo.Next(ctx)
		require.Nil(t, err, "Next returned an error")
		updateRef(t, repo, "refs/bisect/skip-"+first, first)

		next, ok, err := repo.Next(ctx)
		assert.Nil(t, err, "Next returned an error")
		assert.True(t, ok, "Bisection reported as exhausted")
		assert.NotEqual(t, first, next, "Skipped candidate returned")
		assert.Contains(t, commits[1:6], next, "Candidate outside of the bisected range")
	})
	t.Run("Only skipped candidates exhaust the bisection", func(t *testing.T) {
		repo, commits := initTestRepo(t, 4)
		updateRef(t, repo, "refs/bisect/bad", commits[3])
		updateRef(t, repo, "refs/bisect/good-"+commits[0], commits[0])
		for _, c := range commits[1:3] {
			updateRef(t, repo, "refs/bisect/skip-"+c, c)
		}

		_, ok, err := repo.Next(ctx)
		assert.Nil(t, err, "Next returned an error")
		assert.False(t, ok, "Bisection with only skipped candidates not exhausted")
	})
	t.Run("Adjacent good and bad exhaust the bisection", func(t *testing.T) {
		repo, commits := initTestRepo(t, 3)
		updateRef(t, repo, "refs/bisect/bad", commits[2])
		updateRef(t, repo, "refs/bisect/good-"+commits[1], commits[1])

		_, ok, err := repo.Next(ctx)
		assert.Nil(t, err, "Next returned an error")
		assert.False(t, ok, "Bisection of adjacent commits not exhausted")
	})
	t.Run("Missing bisection is reported", func(t *testing.T) {
		repo, _ := initTestRepo(t, 1)

		_, _, err := repo.Next(ctx)
		assert.NotNil(t, err, "Next without bisection succeeded")
	})
}

func TestMark(t *testing.T) {
	ctx := context.Background()
	repo, commits := initTestRepo(t, 7)

	out, err := exec.Command("git", "-C", repo.Dir, "bisect", "start").CombinedOutput()
	require.Nilf(t, err, "git bisect start failed: %s", out)

	assert.Nil(t, repo.Mark(ctx, bisect.Bad, commits[6]), "Marking bad failed")
	assert.Nil(t, repo.Mark(ctx, bisect.Good, commits[0]), "Marking good failed")

	bad, err := repo.ResolveRev(ctx, "refs/bisect/bad")
	assert.Nil(t, err, "Bad ref missing")
	assert.Equal(t, commits[6], bad, "Wrong bad ref")

	good, err := repo.ResolveRev(ctx, "refs/bisect/good-"+commits[0])
	assert.Nil(t, err, "Good ref missing")
	assert.Equal(t, commits[0], good, "Wrong good ref")

	assert.NotNil(t, repo.Mark(ctx, bisect.Verdict(7), commits[3]), "Invalid verdict accepted")
}

func TestCheckoutAndResolve(t *testing.T) {
	ctx := context.Background()
	repo, commits := initTestRepo(t, 3)

	assert.Nil(t, repo.Checkout(ctx, commits[1]), "Checkout failed")
	head, err := repo.ResolveRev(ctx, "HEAD")
	assert.Nil(t, err, "ResolveRev failed")
	assert.Equal(t, commits[1], head, "Wrong revision checked out")

	_, err = repo.ResolveRev(ctx, "does-not-exist")
	var cmdErr *CommandError
	assert.ErrorAs(t, err, &cmdErr, "Unknown revision did not result in a command error")

	gitDir, err := repo.GitDir(ctx)
	assert.Nil(t, err, "GitDir failed")
	assert.True(t, filepath.IsAbs(gitDir), "Git directory is not absolute")
	assert.Equal(t, ".git", filepath.Base(gitDir), "Wrong git directory")
}
