package uv

import (
	"context"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lockbridge/pkg/errors"
)

// Runner executes the resolver subprocess. The call blocks until the
// process completes or the context is cancelled; a non-zero exit is
// fatal with no automatic retry.
type Runner struct {
	Root   string // working directory for the subprocess (project root)
	Logger *log.Logger
}

// Run executes args with the working directory set to the project
// root. The subprocess inherits stderr so resolver progress stays
// visible. Only the redacted form of the command is ever logged.
func (r *Runner) Run(ctx context.Context, args []Arg) error {
	if len(args) == 0 {
		return errors.New(errors.ErrCodeInternal, "empty resolver command")
	}
	if r.Logger != nil {
		r.Logger.Debugf("Running lock command: %s", Display(args))
	}

	argv := Values(args)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Root
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeExternalTool, err, "resolver failed: %s", Display(args))
	}
	return nil
}
