package proctree

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// Signaler terminates processes that are only known by id.
type Signaler interface {
	Kill(ctx context.Context, pid int) error
}

// SystemSignaler kills host processes through gopsutil.
type SystemSignaler struct{}

// Kill forcibly terminates pid. A process that is already gone is not an
// error.
func (SystemSignaler) Kill(ctx context.Context, pid int) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		if gone(ctx, pid) {
			return nil
		}
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	if err := p.KillWithContext(ctx); err != nil {
		if gone(ctx, pid) {
			return nil
		}
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	return nil
}

func gone(ctx context.Context, pid int) bool {
	exists, err := process.PidExistsWithContext(ctx, int32(pid))
	return err == nil && !exists
}
