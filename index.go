package geocode

import (
	"bufio"
	"compress/bzip2"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteIndex persists entries to path in order. The file is written to a
// temporary sibling and renamed into place, so an interrupted write never
// leaves a truncated index behind. A compressed "<path>.bz2" left from an
// earlier build is removed, since ReadIndex would prefer it.
func WriteIndex(path string, entries []PlaceEntry) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp index: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := EncodeIndex(w, entries); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing index: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting index permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming index into place: %w", err)
	}
	if err := os.Remove(path + ".bz2"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale compressed index: %w", err)
	}
	return nil
}

// EncodeIndex writes entries to w in the persisted format.
func EncodeIndex(w io.Writer, entries []PlaceEntry) error {
	if entries == nil {
		entries = []PlaceEntry{}
	}
	if err := gob.NewEncoder(w).Encode(entries); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	return nil
}

// DecodeIndex reads entries written by EncodeIndex.
func DecodeIndex(r io.Reader) ([]PlaceEntry, error) {
	var entries []PlaceEntry
	if err := gob.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	return entries, nil
}

// ReadIndex loads a persisted index. A bzip2-compressed "<path>.bz2" is
// preferred over the plain file when both exist.
func ReadIndex(path string) ([]PlaceEntry, error) {
	r, cleanup, err := openOptionallyBzippedFile(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return DecodeIndex(bufio.NewReader(r))
}

func openOptionallyBzippedFile(file string) (io.Reader, func() error, error) {
	fh, err := os.Open(file + ".bz2")
	if err != nil {
		fh, err = os.Open(file)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", file, err)
		}
		return fh, fh.Close, nil
	}
	return bzip2.NewReader(fh), fh.Close, nil
}
