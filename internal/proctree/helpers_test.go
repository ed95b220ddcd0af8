package proctree

import (
	"context"

	"github.com/shirou/gopsutil/v4/process"
)

func pidExists(pid int) (bool, error) {
	return process.PidExistsWithContext(context.Background(), int32(pid))
}
