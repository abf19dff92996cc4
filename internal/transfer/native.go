package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Native copies files in-process through an afero filesystem. It preserves
// permission bits and modification times and replaces files atomically.
type Native struct {
	fs afero.Fs
}

// NewNative creates a Native transferer on fsys, the OS filesystem when nil
func NewNative(fsys afero.Fs) *Native {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Native{fs: fsys}
}

// Transfer copies src to dst. A directory source is copied recursively and
// dst receives its contents.
func (n *Native) Transfer(ctx context.Context, src, dst string) error {
	info, err := n.fs.Stat(src)
	if err != nil {
		return &Error{Source: src, Destination: dst, Err: err}
	}

	if !info.IsDir() {
		if err := n.copyFile(src, dst, info); err != nil {
			return &Error{Source: src, Destination: dst, Err: err}
		}
		return nil
	}

	err = afero.Walk(n.fs, src, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case fi.IsDir():
			return n.fs.MkdirAll(target, fi.Mode().Perm())
		case fi.Mode().IsRegular():
			return n.copyFile(path, target, fi)
		default:
			// sockets, devices and symlinks are not replicated
			return nil
		}
	})
	if err != nil {
		return &Error{Source: src, Destination: dst, Err: err}
	}
	return nil
}

func (n *Native) copyFile(src, dst string, info os.FileInfo) error {
	if err := n.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	in, err := n.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".data-sync.tmp"
	out, err := n.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = n.fs.Remove(tmp)
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = n.fs.Remove(tmp)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := n.fs.Chmod(tmp, info.Mode().Perm()); err != nil {
		_ = n.fs.Remove(tmp)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := n.fs.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
		_ = n.fs.Remove(tmp)
		return fmt.Errorf("failed to set modification time: %w", err)
	}

	if err := n.fs.Rename(tmp, dst); err != nil {
		_ = n.fs.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
