package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// staged is a complete copy of a document's new content sitting next to the
// document, waiting to be renamed over it.
type staged struct {
	path    string
	tmp     string
	content []byte
}

// stage writes content to a synced temporary file in path's directory. The
// dot prefix keeps it out of the watcher's base-name filter, and the shared
// directory keeps the later rename atomic.
func stage(path string, content []byte, perm os.FileMode) (*staged, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	s := &staged{path: path, tmp: f.Name(), content: content}

	_, err = f.Write(content)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(s.tmp, perm)
	}
	if err != nil {
		s.discard()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	return s, nil
}

// commit renames the staged file over the document. Readers see the old
// content or the new, never a mix.
func (s *staged) commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		s.discard()
		return fmt.Errorf("rename temp to final: %w", err)
	}
	return nil
}

func (s *staged) discard() {
	_ = os.Remove(s.tmp)
}

// replaceFile stages content and commits it. announce, if set, receives the
// content after staging succeeded and before the rename, the only step a
// watcher of path observes. A rename failure after announce leaves a stale
// announcement, which the watcher drops on the next change it can't match.
func replaceFile(path string, content []byte, perm os.FileMode, announce func(content []byte)) error {
	s, err := stage(path, content, perm)
	if err != nil {
		return err
	}
	if announce != nil {
		announce(s.content)
	}
	return s.commit()
}

// fileMode returns the permissions of an existing file, or def.
func fileMode(path string, def os.FileMode) os.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return def
	}
	return info.Mode().Perm()
}
