package filetasks

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"buildtasks/internal/task"
)

// CopyTaskName is the name of the long path aware copy task.
const CopyTaskName = "copy"

// Copy copies files to a folder or to explicit destinations, creating the
// missing directories. It works with paths longer than MAX_PATH on Windows.
type Copy struct {
	SourceFiles       []string `yaml:"source-files"`
	DestinationFolder string   `yaml:"destination-folder"`
	DestinationFiles  []string `yaml:"destination-files"`
}

func (t *Copy) Name() string { return CopyTaskName }

func (t *Copy) Execute(h *task.Host) (bool, error) {
	if len(t.SourceFiles) == 0 {
		h.Outputs.SetList("DestinationFiles", nil)
		h.Outputs.SetList("CopiedFiles", nil)
		return true, nil
	}
	destinations, err := t.destinations()
	if err != nil {
		return false, err
	}

	ok := true
	copied := make([]string, 0, len(destinations))
	for i, src := range t.SourceFiles {
		dst := destinations[i]

		dir, err := filepath.Abs(filepath.Dir(dst))
		if err == nil && !dirExists(dir) {
			err = createDirectory(h.Log, dir)
		}
		if err != nil {
			h.Log.ErrorFromErr(err)
			ok = false
			continue
		}

		h.Log.Message(task.ImportanceLow, "Copying file from \"%s\" to \"%s\".", src, dst)
		if err := copyFile(src, dst); err != nil {
			h.Log.ErrorFromErr(err)
			ok = false
			continue
		}
		copied = append(copied, dst)
	}

	h.Outputs.SetList("DestinationFiles", destinations)
	h.Outputs.SetList("CopiedFiles", copied)
	return ok, nil
}

func (t *Copy) destinations() ([]string, error) {
	switch {
	case len(t.DestinationFiles) > 0 && t.DestinationFolder != "":
		return nil, task.Errorf(task.KindParameter, CopyTaskName, "destination-files and destination-folder cannot both be set")
	case len(t.DestinationFiles) > 0:
		if len(t.DestinationFiles) != len(t.SourceFiles) {
			return nil, task.Errorf(task.KindParameter, CopyTaskName,
				"%d destination files were given for %d source files", len(t.DestinationFiles), len(t.SourceFiles))
		}
		return append([]string(nil), t.DestinationFiles...), nil
	case t.DestinationFolder != "":
		out := make([]string, len(t.SourceFiles))
		for i, src := range t.SourceFiles {
			out[i] = filepath.Join(t.DestinationFolder, filepath.Base(src))
		}
		return out, nil
	default:
		return nil, task.Errorf(task.KindParameter, CopyTaskName, "destination-files or destination-folder is required")
	}
}

func dirExists(dir string) bool {
	info, err := os.Stat(LongPath(dir))
	return err == nil && info.IsDir()
}

// createDirectory creates the absolute directory dir one segment at a time.
func createDirectory(log *task.Log, dir string) error {
	log.Message(task.ImportanceNormal, "Creating directory \"%s\".", dir)

	vol := filepath.VolumeName(dir)
	path := vol
	for _, seg := range strings.Split(dir[len(vol):], string(filepath.Separator)) {
		if seg == "" {
			continue
		}
		path += string(filepath.Separator) + seg
		if dirExists(path) {
			continue
		}
		if err := os.Mkdir(LongPath(path), 0755); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}
	return nil
}

// copyFile overwrites dst with the content, permissions and modification
// time of src.
func copyFile(src, dst string) error {
	in, err := os.Open(LongPath(absOrSelf(src)))
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("failed to copy %s: is a directory", src)
	}

	target := LongPath(absOrSelf(dst))
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	_ = os.Chmod(target, info.Mode().Perm())
	_ = os.Chtimes(target, info.ModTime(), info.ModTime())
	return nil
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
