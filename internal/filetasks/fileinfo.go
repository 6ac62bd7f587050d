// Package filetasks holds the tasks that inspect and copy files.
package filetasks

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"buildtasks/internal/task"
)

// FileInfoTaskName is the name of the file inspection task.
const FileInfoTaskName = "file-info"

const (
	// ticks between 0001-01-01 and the Unix epoch
	unixEpochTicks = 621355968000000000
	// kind bits of a binary DateTime holding a UTC time
	utcKindFlag = uint64(1) << 62
)

// FileInfo reports the attributes of a single file.
type FileInfo struct {
	Path string `yaml:"path" validate:"required"`
}

// FileAttributes is what FileInfo publishes.
type FileAttributes struct {
	Exists     bool
	IsReadOnly bool
	Length     int64
	Name       string
	FullName   string
	// Version changes whenever the file is written.
	Version string
}

func (t *FileInfo) Name() string { return FileInfoTaskName }

func (t *FileInfo) Execute(h *task.Host) (bool, error) {
	attrs, err := t.Inspect()
	if err != nil {
		return false, err
	}
	h.Outputs.SetBool("Exists", attrs.Exists)
	h.Outputs.SetBool("IsReadOnly", attrs.IsReadOnly)
	h.Outputs.SetInt("Length", attrs.Length)
	h.Outputs.Set("Name", attrs.Name)
	h.Outputs.Set("FullName", attrs.FullName)
	h.Outputs.Set("Version", attrs.Version)
	return true, nil
}

// Inspect stats the file. A missing file is not an error.
func (t *FileInfo) Inspect() (FileAttributes, error) {
	if err := task.ValidateParameters(FileInfoTaskName, t); err != nil {
		return FileAttributes{}, err
	}
	full, err := filepath.Abs(t.Path)
	if err != nil {
		return FileAttributes{}, task.Errorf(task.KindParameter, FileInfoTaskName, "failed to resolve %s: %w", t.Path, err)
	}
	attrs := FileAttributes{Name: filepath.Base(full), FullName: full}

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return attrs, nil
	}
	if err != nil {
		return FileAttributes{}, task.Errorf(task.KindIO, FileInfoTaskName, "failed to stat %s: %w", full, err)
	}
	if info.IsDir() {
		return attrs, nil
	}

	attrs.Exists = true
	attrs.IsReadOnly = info.Mode().Perm()&0200 == 0
	attrs.Length = info.Size()
	attrs.Version = BinaryTime(info.ModTime())
	return attrs, nil
}

// BinaryTime encodes t the way .NET serializes a UTC DateTime with
// ToBinary: 100ns ticks since 0001-01-01 with the UTC kind bit set,
// rendered as lowercase hex.
func BinaryTime(t time.Time) string {
	t = t.UTC()
	ticks := t.Unix()*10_000_000 + int64(t.Nanosecond()/100) + unixEpochTicks
	return strconv.FormatUint(uint64(ticks)|utcKindFlag, 16)
}
