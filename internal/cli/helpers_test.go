package cli

import (
	"bytes"
	stdcontext "context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Paintersrp/sma/internal/command"
	"github.com/Paintersrp/sma/internal/engine"
	"github.com/Paintersrp/sma/internal/runtime/process"
)

func executeRoot(t *testing.T, configure func(*context), args ...string) (string, string, error) {
	t.Helper()

	root, ctx := newRootCommand()
	if configure != nil {
		configure(ctx)
	}

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(stdcontext.Background())
	return stdout.String(), stderr.String(), err
}

func writeConfigFile(t *testing.T, name string, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

type fakeSpawner struct {
	mu      sync.Mutex
	spawned []*fakeProcess
	opts    []process.SpawnOptions
}

func (s *fakeSpawner) Spawn(index int, cmd command.Parsed, opts process.SpawnOptions) (engine.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc := &fakeProcess{index: index, pid: 1000 + index, program: cmd.Program, done: make(chan struct{})}
	s.spawned = append(s.spawned, proc)
	s.opts = append(s.opts, opts)
	return proc, nil
}

func (s *fakeSpawner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spawned)
}

// fakeProcess exits as soon as it is waited on or terminated.
type fakeProcess struct {
	index   int
	pid     int
	program string

	once       sync.Once
	done       chan struct{}
	terminated bool
}

func (p *fakeProcess) Index() int      { return p.index }
func (p *fakeProcess) PID() int        { return p.pid }
func (p *fakeProcess) Program() string { return p.program }
func (p *fakeProcess) ExitCode() int   { return 0 }

func (p *fakeProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *fakeProcess) Wait() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

func (p *fakeProcess) Terminate(ctx stdcontext.Context, grace time.Duration) error {
	p.terminated = true
	p.once.Do(func() { close(p.done) })
	return nil
}

func withFakeSpawner(spawner *fakeSpawner) func(*context) {
	return func(ctx *context) {
		ctx.supervisorOptions = append(ctx.supervisorOptions, engine.WithSpawner(spawner))
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
