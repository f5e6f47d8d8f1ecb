// Package pid guards against concurrent daemon instances with a PID
// file under the system temp directory.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"codeberg.org/mutker/homemon/internal/errors"
)

const pidFile = "homemon.pid"

func path() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write records the current process ID. It fails with ErrAlreadyRunning
// when the file names a live process; a stale file is overwritten.
func Write() error {
	errFactory := errors.New()

	if running, err := otherInstanceRunning(); err != nil {
		return err
	} else if running {
		return errFactory.New(errors.ErrAlreadyRunning)
	}

	if err := os.WriteFile(path(), []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove() error {
	if _, err := os.Stat(path()); os.IsNotExist(err) {
		return nil
	}

	if err := os.Remove(path()); err != nil {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func otherInstanceRunning() (bool, error) {
	errFactory := errors.New()

	bytes, err := os.ReadFile(path())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errFactory.Wrap(errors.ErrInternal, err)
	}

	pid, err := strconv.Atoi(string(bytes))
	if err != nil {
		// Unreadable PID file, treat as stale.
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, errFactory.Wrap(errors.ErrInternal, err)
	}

	// Signal 0 probes for existence without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil, nil
}
