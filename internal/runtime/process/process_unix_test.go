//go:build unix

package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Paintersrp/sma/internal/command"
)

func spawnShell(t *testing.T, script string, opts SpawnOptions) *Process {
	t.Helper()
	proc, err := NewSpawner().Spawn(0, command.Parsed{Program: "/bin/sh", Args: []string{"-c", script}}, opts)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	t.Cleanup(func() {
		_ = proc.Terminate(context.Background(), 0)
		_ = proc.Wait()
	})
	return proc
}

func TestSpawnReportsIdentity(t *testing.T) {
	proc, err := NewSpawner().Spawn(3, command.Parsed{Program: "sleep", Args: []string{"5"}}, SpawnOptions{Mode: Detached})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer func() {
		_ = proc.Terminate(context.Background(), 0)
		_ = proc.Wait()
	}()

	if proc.Index() != 3 {
		t.Fatalf("expected index 3, got %d", proc.Index())
	}
	if proc.PID() <= 0 {
		t.Fatalf("expected a positive pid, got %d", proc.PID())
	}
	if proc.Program() != "sleep" {
		t.Fatalf("expected program sleep, got %q", proc.Program())
	}
	if proc.Exited() {
		t.Fatalf("process reported exited immediately after spawn")
	}
}

func TestSpawnMissingExecutable(t *testing.T) {
	_, err := NewSpawner().Spawn(0, command.Parsed{Program: "/definitely/not/here"}, SpawnOptions{})
	if err == nil {
		t.Fatalf("expected spawn error, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestSpawnEmptyProgram(t *testing.T) {
	_, err := NewSpawner().Spawn(0, command.Parsed{}, SpawnOptions{})
	if !errors.Is(err, command.ErrEmptyProgram) {
		t.Fatalf("expected ErrEmptyProgram, got %v", err)
	}
}

func TestSpawnUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	proc := spawnShell(t, "pwd > out.txt", SpawnOptions{Dir: dir})
	if err := proc.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	got, err := filepath.EvalSymlinks(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	if got != want {
		t.Fatalf("expected working directory %s, got %s", want, got)
	}
}

func TestDetachedChildGetsOwnProcessGroup(t *testing.T) {
	detached := spawnShell(t, "exec sleep 5", SpawnOptions{Mode: Detached})
	attached := spawnShell(t, "exec sleep 5", SpawnOptions{Mode: Attached})

	own, err := unix.Getpgid(os.Getpid())
	if err != nil {
		t.Fatalf("own pgid: %v", err)
	}
	detachedGroup, err := unix.Getpgid(detached.PID())
	if err != nil {
		t.Fatalf("detached pgid: %v", err)
	}
	attachedGroup, err := unix.Getpgid(attached.PID())
	if err != nil {
		t.Fatalf("attached pgid: %v", err)
	}

	if detachedGroup != detached.PID() {
		t.Fatalf("expected detached child to lead its own group, got pgid %d for pid %d", detachedGroup, detached.PID())
	}
	if attachedGroup != own {
		t.Fatalf("expected attached child to share group %d, got %d", own, attachedGroup)
	}
}

func TestWaitAcceptsNonZeroExit(t *testing.T) {
	proc := spawnShell(t, "exit 7", SpawnOptions{})
	if err := proc.Wait(); err != nil {
		t.Fatalf("expected nil wait error for non-zero exit, got %v", err)
	}
	if !proc.Exited() {
		t.Fatalf("expected process to be exited after wait")
	}
	if code := proc.ExitCode(); code != 7 {
		t.Fatalf("expected exit code 7, got %d", code)
	}
}

func TestTerminateKillsRunningProcess(t *testing.T) {
	proc := spawnShell(t, "exec sleep 30", SpawnOptions{Mode: Detached})

	start := time.Now()
	if err := proc.Terminate(context.Background(), 0); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("terminate took too long: %v", elapsed)
	}
}

func TestTerminateAlreadyExitedIsNotAnError(t *testing.T) {
	proc := spawnShell(t, "true", SpawnOptions{})
	if err := proc.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := proc.Terminate(context.Background(), 0); err != nil {
		t.Fatalf("expected nil for exited process, got %v", err)
	}
	if err := proc.Terminate(context.Background(), time.Second); err != nil {
		t.Fatalf("expected nil on repeated terminate, got %v", err)
	}
}

func TestTerminateGracePeriodLetsProcessExit(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "stopped")
	script := "trap 'touch " + marker + "; exit 0' TERM; while true; do sleep 0.05; done"
	proc := spawnShell(t, script, SpawnOptions{Mode: Detached})

	// Give the shell a moment to install its trap.
	time.Sleep(200 * time.Millisecond)

	if err := proc.Terminate(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if !proc.Exited() {
		t.Fatalf("expected process to have exited within the grace period")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("expected trap marker, got %v", err)
	}
}

func TestTerminateGracePeriodFallsBackToKill(t *testing.T) {
	proc := spawnShell(t, "trap '' TERM; exec sleep 30", SpawnOptions{Mode: Detached})
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	if err := proc.Terminate(context.Background(), 200*time.Millisecond); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("fallback kill took too long: %v", elapsed)
	}
}

func TestTerminateKillsWhenContextIsDone(t *testing.T) {
	proc := spawnShell(t, "trap '' TERM; exec sleep 30", SpawnOptions{Mode: Detached})
	time.Sleep(200 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := proc.Terminate(ctx, 10*time.Second); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("process ignoring SIGTERM survived a terminate with a done context")
	}
}

func TestSpawnModeString(t *testing.T) {
	if Attached.String() != "attached" || Detached.String() != "detached" {
		t.Fatalf("unexpected mode names: %s %s", Attached, Detached)
	}
}
