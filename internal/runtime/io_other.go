//go:build !linux

package runtime

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// CreateIoDescriptors generates the stdin/stdout exchange files for a
// session in the system temp directory. Shared-memory files are not
// portable outside linux, so plain temp files are used instead.
func CreateIoDescriptors(id uuid.UUID) (stdin *os.File, stdout *os.File, err error) {
	idStr := id.String()
	stdinPattern := fmt.Sprintf("stdin_%s_*.tmp", idStr[:16])
	stdoutPattern := fmt.Sprintf("stdout_%s_*.tmp", idStr[:16])

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

	if stdin, err = os.CreateTemp("", stdinPattern); err != nil {
		return nil, nil, fmt.Errorf("stdin creation: %w", err)
	}

	if stdout, err = os.CreateTemp("", stdoutPattern); err != nil {
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
