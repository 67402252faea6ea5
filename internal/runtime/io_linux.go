//go:build linux

package runtime

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

const sharedMemDir = "/dev/shm"

// CreateIoDescriptors generates the stdin/stdout exchange files for a
// session in /dev/shm, keeping payload exchange off disk.
func CreateIoDescriptors(id uuid.UUID) (stdin *os.File, stdout *os.File, err error) {
	stdinPattern := fmt.Sprintf("%s_stdin-*.tmp", id)
	stdoutPattern := fmt.Sprintf("%s_stdout-*.tmp", id)

	cleanup := func() {
		if stdin != nil {
			stdin.Close()
			os.Remove(stdin.Name())
		}
		if stdout != nil {
			stdout.Close()
			os.Remove(stdout.Name())
		}
	}

	if stdin, err = os.CreateTemp(sharedMemDir, stdinPattern); err != nil {
		return nil, nil, fmt.Errorf("stdin creation: %w", err)
	}

	if stdout, err = os.CreateTemp(sharedMemDir, stdoutPattern); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("stdout creation: %w", err)
	}

	return stdin, stdout, nil
}

func cleanupSessionDescriptors(s *Session) {
	if s.Stdin != nil {
		s.Stdin.Close()
		os.Remove(s.Stdin.Name())
	}
	if s.Stdout != nil {
		s.Stdout.Close()
		os.Remove(s.Stdout.Name())
	}
}
