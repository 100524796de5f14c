package dedup

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio"
)

// copyTree copies the contents of src into dst, writing each file through
// renameio so a reader of dst never observes a partially written file —
// the same atomic-rename idiom the teacher uses for any output it expects
// concurrent readers of (cmd/distri/build.go's renameio.TempFile writes).
func copyTree(src, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm()|0755)
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := renameio.TempFile("", dst)
	if err != nil {
		return err
	}
	defer out.Cleanup()

	out.Chmod(mode)
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.CloseAtomicallyReplace()
}
