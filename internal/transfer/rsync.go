package transfer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// DefaultRsyncPath is the rsync binary looked up on PATH
const DefaultRsyncPath = "rsync"

var defaultRsyncArgs = []string{"--archive", "--compress"}

// RemoteFunc returns the remote shell target (host or user@host) the
// destination lives on. An empty result means a local destination.
type RemoteFunc func() string

// Rsync transfers paths with the rsync command
type Rsync struct {
	binary    string
	extraArgs []string
	remote    RemoteFunc
}

// RsyncOption configures Rsync
type RsyncOption func(*Rsync)

// WithBinary sets the rsync executable
func WithBinary(path string) RsyncOption {
	return func(r *Rsync) {
		if path != "" {
			r.binary = path
		}
	}
}

// WithExtraArgs appends arguments after the defaults
func WithExtraArgs(args ...string) RsyncOption {
	return func(r *Rsync) {
		r.extraArgs = append(r.extraArgs, args...)
	}
}

// WithRemote makes destinations remote to the target returned by fn
func WithRemote(fn RemoteFunc) RsyncOption {
	return func(r *Rsync) {
		r.remote = fn
	}
}

// NewRsync creates an rsync backed Transferer
func NewRsync(opts ...RsyncOption) *Rsync {
	r := &Rsync{binary: DefaultRsyncPath}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transfer runs rsync once. A non-zero exit is reported as *Error.
func (r *Rsync) Transfer(ctx context.Context, src, dst string) error {
	args := r.args(src, dst)
	cmd := exec.CommandContext(ctx, r.binary, args...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	slog.Debug("Running rsync", "binary", r.binary, "args", args)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			slog.Debug("rsync exited with error", "exit_code", exitErr.ExitCode(), "source", src)
		}
		return &Error{
			Source:      src,
			Destination: dst,
			Output:      strings.TrimSpace(output.String()),
			Err:         err,
		}
	}
	return nil
}

func (r *Rsync) args(src, dst string) []string {
	args := make([]string, 0, len(defaultRsyncArgs)+len(r.extraArgs)+2)
	args = append(args, defaultRsyncArgs...)
	args = append(args, r.extraArgs...)

	// a directory source is copied by contents so dst mirrors src
	if info, err := os.Stat(src); err == nil && info.IsDir() && !strings.HasSuffix(src, "/") {
		src += "/"
	}

	if r.remote != nil {
		if target := r.remote(); target != "" {
			dst = target + ":" + dst
		}
	}

	return append(args, src, dst)
}
