package sync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// newClone creates a bare remote with one commit on main and returns the
// path of a working clone.
func newClone(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}

	remoteDir := t.TempDir()
	run(t, remoteDir, "git", "init", "--bare")

	workDir := t.TempDir()
	run(t, workDir, "git", "clone", remoteDir, "repo")
	repoDir := filepath.Join(workDir, "repo")

	run(t, repoDir, "git", "config", "user.email", "kitchen@hotfoods.test")
	run(t, repoDir, "git", "config", "user.name", "Kitchen")
	run(t, repoDir, "git", "branch", "-m", "main")
	if err := os.WriteFile(filepath.Join(repoDir, ".gitkeep"), nil, 0o644); err != nil {
		t.Fatalf("write .gitkeep: %v", err)
	}
	run(t, repoDir, "git", "add", ".")
	run(t, repoDir, "git", "commit", "-m", "init")
	run(t, repoDir, "git", "push", "origin", "main")
	return repoDir
}

func commitCount(t *testing.T, repo string) int {
	t.Helper()
	cmd := exec.Command("git", "rev-list", "--count", "HEAD")
	cmd.Dir = repo
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("rev-list: %v", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		t.Fatalf("rev-list output %q: %v", out, err)
	}
	return n
}

func TestGitDestination(t *testing.T) {
	repo := newClone(t)
	dest := NewGitDestination(repo, "hotfoods.jsonl", "main")
	ctx := context.Background()

	data1 := []byte(`{"version":"1","type":"header"}` + "\n")
	if err := dest.Write(ctx, data1); err != nil {
		t.Fatalf("first write: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(repo, "hotfoods.jsonl"))
	if err != nil || string(got) != string(data1) {
		t.Fatalf("file after first write = %q, %v", got, err)
	}
	after1 := commitCount(t, repo)

	// Unchanged data makes no commit.
	if err := dest.Write(ctx, data1); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if n := commitCount(t, repo); n != after1 {
		t.Fatalf("no-op write committed: %d commits, want %d", n, after1)
	}

	data2 := []byte(`{"version":"1","type":"header","menu_count":1}` + "\n")
	if err := dest.Write(ctx, data2); err != nil {
		t.Fatalf("third write: %v", err)
	}
	if n := commitCount(t, repo); n != after1+1 {
		t.Fatalf("changed write: %d commits, want %d", n, after1+1)
	}
}

func TestGitDestination_SubDirectory(t *testing.T) {
	repo := newClone(t)
	dest := NewGitDestination(repo, "data/hotfoods.jsonl", "main")

	data := []byte(`{"type":"header"}` + "\n")
	if err := dest.Write(context.Background(), data); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(repo, "data", "hotfoods.jsonl"))
	if err != nil || string(got) != string(data) {
		t.Fatalf("content = %q, %v", got, err)
	}
}

func TestGitDestination_MissingBranch(t *testing.T) {
	repo := newClone(t)
	dest := NewGitDestination(repo, "hotfoods.jsonl", "no-such-branch")

	err := dest.Write(context.Background(), []byte("x\n"))
	if err == nil || !strings.Contains(err.Error(), "git checkout") {
		t.Fatalf("expected checkout error, got %v", err)
	}
	if !strings.HasPrefix(dest.Name(), "git:") {
		t.Fatalf("Name = %q", dest.Name())
	}
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("%s %v failed: %v\n%s", name, args, err, out)
	}
}
