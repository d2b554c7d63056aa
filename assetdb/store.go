// Package assetdb is a file-backed asset database for texmod projects.
//
// A Store implements texmod.AssetWriter on top of a project directory.
// Outside an editing session writes go straight to disk. Inside one they are
// staged in memory and only become visible on Refresh; closing the outermost
// session drops whatever was never refreshed. Every file is replaced through
// a temporary sibling and a rename, so readers never see a partial asset.
package assetdb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"

	"github.com/setanarut/texmod"
)

// Directory holding the processed copies of source textures.
const importedDir = ".texmod/imported"

var ErrPathOutsideProject = errors.New("assetdb: path escapes project root")

type Store struct {
	root string

	mu     sync.Mutex
	depth  int
	staged map[string][]byte
	order  []string
}

// Open returns a store rooted at dir. The directory must exist.
func Open(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("assetdb: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("assetdb: open: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("assetdb: open: %s is not a directory", abs)
	}
	return &Store{root: abs, staged: make(map[string][]byte)}, nil
}

func (s *Store) Root() string { return s.root }

// localPath maps a slash separated asset path to a file path under the root.
func (s *Store) localPath(p string) (string, error) {
	rel := filepath.FromSlash(path.Clean(p))
	if p == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrPathOutsideProject, p)
	}
	return filepath.Join(s.root, rel), nil
}

// CreateOrOverwriteAsset stores tex at p. An asset already at p, staged or
// on disk, keeps its GUID.
func (s *Store) CreateOrOverwriteAsset(p string, tex *texmod.Texture) error {
	if _, err := s.localPath(p); err != nil {
		return err
	}
	guid, err := s.guidFor(p)
	if err != nil {
		return err
	}
	data, err := Marshal(guid, tex)
	if err != nil {
		return err
	}
	return s.put(p, data)
}

func (s *Store) WriteFile(p string, data []byte) error {
	if _, err := s.localPath(p); err != nil {
		return err
	}
	return s.put(p, slices.Clone(data))
}

// StartAssetEditing opens an editing session. Sessions nest.
func (s *Store) StartAssetEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth++
}

// StopAssetEditing closes a session. Closing the outermost one discards
// staged writes that were never refreshed.
func (s *Store) StopAssetEditing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.depth == 0 {
		return
	}
	s.depth--
	if s.depth == 0 && len(s.order) > 0 {
		texmod.Logger().Warn("discarding unrefreshed writes", "count", len(s.order))
		clear(s.staged)
		s.order = s.order[:0]
	}
}

// Refresh writes every staged file in the order it was first staged.
// Files that fail stay staged.
func (s *Store) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) > 0 {
		p := s.order[0]
		if err := s.writeNow(p, s.staged[p]); err != nil {
			return err
		}
		delete(s.staged, p)
		s.order = s.order[1:]
	}
	return nil
}

// Editing reports whether a session is open.
func (s *Store) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth > 0
}

// Staged returns the paths waiting for Refresh.
func (s *Store) Staged() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// DiscardStaged withdraws staged writes to paths before they reach Refresh.
// Writes made outside a session are already on disk and stay there.
func (s *Store) DiscardStaged(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		if _, ok := s.staged[p]; !ok {
			continue
		}
		delete(s.staged, p)
		s.order = slices.DeleteFunc(s.order, func(q string) bool { return q == p })
	}
}

func (s *Store) put(p string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.depth == 0 {
		return s.writeNow(p, data)
	}
	if _, ok := s.staged[p]; !ok {
		s.order = append(s.order, p)
	}
	s.staged[p] = data
	return nil
}

// writeNow must be called with mu held.
func (s *Store) writeNow(p string, data []byte) error {
	dst, err := s.localPath(p)
	if err != nil {
		return err
	}
	if err := writeAtomic(dst, data); err != nil {
		return fmt.Errorf("assetdb: write %s: %w", p, err)
	}
	texmod.Logger().Debug("file written", "path", p, "bytes", len(data))
	return nil
}

func writeAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ReadFile returns the content of p as Refresh would leave it: staged data
// first, then the file on disk.
func (s *Store) ReadFile(p string) ([]byte, error) {
	s.mu.Lock()
	data, ok := s.staged[p]
	s.mu.Unlock()
	if ok {
		return slices.Clone(data), nil
	}
	src, err := s.localPath(p)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(src)
}

func (s *Store) guidFor(p string) (GUID, error) {
	data, err := s.ReadFile(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NewGUID()
	case err != nil:
		return GUID{}, fmt.Errorf("assetdb: %w", err)
	}
	h, err := ParseHeader(data)
	if err != nil {
		texmod.Logger().Warn("replacing unreadable asset", "path", p, "err", err)
		return NewGUID()
	}
	return h.GUID, nil
}

// AssetInfo reads only the header of the asset at p.
func (s *Store) AssetInfo(p string) (Header, error) {
	data, err := s.ReadFile(p)
	if err != nil {
		return Header{}, fmt.Errorf("assetdb: %w", err)
	}
	return ParseHeader(data)
}

// LoadAsset decodes the asset at p.
func (s *Store) LoadAsset(p string) (Header, *texmod.Texture, error) {
	data, err := s.ReadFile(p)
	if err != nil {
		return Header{}, nil, fmt.Errorf("assetdb: %w", err)
	}
	h, tex, err := Unmarshal(data)
	if err != nil {
		return Header{}, nil, fmt.Errorf("%s: %w", p, err)
	}
	return h, tex, nil
}

// ImportedPath is where the processed copy of the source texture p lives.
func ImportedPath(p string) string {
	return path.Join(importedDir, p) + ".asset"
}

// SaveImported stores the in-place result of processing the source texture
// p. Convert outputs and effect-only selections end up here.
func (s *Store) SaveImported(p string, tex *texmod.Texture) error {
	return s.CreateOrOverwriteAsset(ImportedPath(p), tex)
}

func (s *Store) LoadImported(p string) (Header, *texmod.Texture, error) {
	return s.LoadAsset(ImportedPath(p))
}
