package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// PIDFile guards the socket: a stale socket file may only be removed
// when the process that owned it is gone.
type PIDFile struct {
	path string
}

// NewPIDFile creates a PID file manager for the given path
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Acquire writes the current process ID, failing when another live
// process holds the file
func (p *PIDFile) Acquire() error {
	running, pid, err := p.IsRunning()
	if err != nil {
		return err
	}
	if running {
		return fmt.Errorf("another bridge is already running (PID: %d)", pid)
	}

	if err := p.removeStale(); err != nil {
		return err
	}

	content := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(p.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Release removes the PID file
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// IsRunning reports whether the recorded process is still alive
func (p *PIDFile) IsRunning() (bool, int, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Unreadable PID file, treat as not running.
		return false, 0, nil
	}

	if processExists(pid) {
		return true, pid, nil
	}
	return false, pid, nil
}

// removeStale removes the file when its process is gone
func (p *PIDFile) removeStale() error {
	running, _, err := p.IsRunning()
	if err != nil {
		return err
	}
	if !running {
		if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// processExists checks for a live process via signal 0
func processExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
