package ingest

import (
	"authviz/internal/types"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/nxadm/tail"
)

// FileReader reads a whole log file once, in order
type FileReader struct {
	path string
}

// NewFileReader creates a reader for a path
func NewFileReader(path string) *FileReader {
	return &FileReader{
		path: path,
	}
}

// Path returns the file being read
func (f *FileReader) Path() string {
	return f.path
}

// ReadLines returns every line of the file without line terminators. The
// file is read to EOF and released before returning.
func (f *FileReader) ReadLines() ([]string, error) {
	if err := f.check(); err != nil {
		return nil, err
	}

	// No follow, no reopen: tail reads to EOF (including a final line
	// without newline) and closes Lines.
	config := tail.Config{
		Follow:    false,
		ReOpen:    false,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	}

	t, err := tail.TailFile(f.path, config)
	if err != nil {
		return nil, classify(f.path, err)
	}
	defer t.Cleanup()

	var lines []string
	var lineErr error
	for line := range t.Lines {
		if line.Err != nil {
			if lineErr == nil {
				lineErr = line.Err
			}
			continue
		}
		lines = append(lines, strings.TrimRight(line.Text, "\r"))
	}

	if err := t.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFileUnreadable, f.path, err)
	}
	if lineErr != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFileUnreadable, f.path, lineErr)
	}

	return lines, nil
}

// check opens the file once so missing and unreadable files are reported
// with their own error kinds.
func (f *FileReader) check() error {
	info, err := os.Stat(f.path)
	if err != nil {
		return classify(f.path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", types.ErrFileUnreadable, f.path)
	}

	fh, err := os.Open(f.path)
	if err != nil {
		return classify(f.path, err)
	}
	return fh.Close()
}

func classify(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", types.ErrFileNotFound, path)
	}
	return fmt.Errorf("%w: %s: %v", types.ErrFileUnreadable, path, err)
}
