// Package addon runs a user supplied command over an album's files
// after its genres were written.
package addon

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

const markerFiles = "<files>"

type Subproc struct {
	command string
	args    []string
}

func NewSubproc(conf string) (*Subproc, error) {
	parts, err := shlex.Split(conf)
	if err != nil {
		return nil, fmt.Errorf("split command: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no command provided")
	}
	return &Subproc{command: parts[0], args: parts[1:]}, nil
}

// ProcessAlbum runs the command with <files> expanded to the album's
// track paths.
func (s *Subproc) ProcessAlbum(ctx context.Context, paths []string) error {
	var args []string
	for _, arg := range s.args {
		switch arg {
		case markerFiles:
			args = append(args, paths...)
		default:
			args = append(args, arg)
		}
	}

	cmd := exec.CommandContext(ctx, s.command, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run cmd: %w", err)
	}
	return nil
}

func (s *Subproc) String() string {
	args := fmt.Sprintf("%q", append([]string{s.command}, s.args...))
	args = strings.TrimPrefix(args, "[")
	args = strings.TrimSuffix(args, "]")
	return fmt.Sprintf("subproc (%s)", args)
}
