// Package checksum delegates per-file checksumming to an external command.
package checksum

import (
	"context"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/anonymise-pipeline/internal/domain"
)

// SidecarSuffix is appended to the output file's path to name its
// checksum sidecar.
const SidecarSuffix = ".md5"

// Summer produces a checksum sidecar for one output file.
type Summer interface {
	Sum(ctx context.Context, path string) error
}

// Command invokes an external checksum program (md5sum by default) and
// writes its output next to the file.
type Command struct {
	log     *logrus.Logger
	command string
}

// NewCommand creates a Summer around the given checksum program.
func NewCommand(log *logrus.Logger, command string) *Command {
	return &Command{log: log, command: command}
}

// Sum runs the checksum command on path and writes the sidecar. A failing
// command is fatal for the run.
func (c *Command) Sum(ctx context.Context, path string) error {
	out, err := exec.CommandContext(ctx, c.command, path).Output()
	if err != nil {
		return domain.WrapError(domain.CategoryChecksum, err, "checksum command %q failed for %s", c.command, path)
	}
	sidecar := path + SidecarSuffix
	if err := os.WriteFile(sidecar, out, 0644); err != nil {
		return domain.WrapError(domain.CategoryChecksum, err, "cannot write checksum sidecar %s", sidecar)
	}
	c.log.WithField("file", path).Debug("Checksum sidecar written")
	return nil
}
