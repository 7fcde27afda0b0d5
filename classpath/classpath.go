package classpath

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	charmerrors "github.com/wippyai/charm/errors"
)

// ClassPath resolves class names against an ordered list of directories
// and jar or zip archives. The first entry containing a resource wins.
// Archives are opened on first use and kept open until Close. A lookup
// after Close reopens them; resources found before Close must not be
// opened after it.
type ClassPath struct {
	cache   map[string]*Resource
	entries []entry
	mu      sync.Mutex
}

type entry interface {
	find(name string) (*Resource, error)
	close() error
	String() string
}

// New creates a classpath. A leading ~ in an entry is expanded; entries
// that do not exist are kept and simply never match.
func New(paths ...string) (*ClassPath, error) {
	cp := &ClassPath{cache: make(map[string]*Resource)}
	for _, p := range paths {
		if p == "" {
			continue
		}
		expanded, err := homedir.Expand(p)
		if err != nil {
			return nil, charmerrors.Wrap(charmerrors.PhaseLookup, charmerrors.KindInvalidInput, err, "expand classpath entry "+p)
		}
		if isArchive(expanded) {
			cp.entries = append(cp.entries, &archive{path: expanded})
		} else {
			cp.entries = append(cp.entries, dir(expanded))
		}
	}
	Logger().Debug("classpath", zap.Strings("entries", cp.Entries()))
	return cp, nil
}

// Split splits a classpath string on the platform list separator.
func Split(list string) []string {
	if list == "" {
		return nil
	}
	return filepath.SplitList(list)
}

func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jar" || ext == ".zip"
}

// Entries returns the classpath entries in lookup order.
func (cp *ClassPath) Entries() []string {
	out := make([]string, len(cp.entries))
	for i, e := range cp.entries {
		out[i] = e.String()
	}
	return out
}

// ResourceName maps a dotted class name to its resource path.
func ResourceName(className string) string {
	return strings.ReplaceAll(className, ".", "/") + ".class"
}

// Find locates a class by its dotted qualified name. A miss returns an
// error matching errors.ErrNotFound.
func (cp *ClassPath) Find(className string) (*Resource, error) {
	r, err := cp.FindResource(ResourceName(className))
	if charmerrors.IsNotFound(err) {
		return nil, charmerrors.NotFound(charmerrors.PhaseLookup, "class", className)
	}
	return r, err
}

// FindResource locates a resource by slash separated path.
func (cp *ClassPath) FindResource(name string) (*Resource, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if r, ok := cp.cache[name]; ok {
		return r, nil
	}
	for _, e := range cp.entries {
		r, err := e.find(name)
		if err != nil {
			return nil, err
		}
		if r != nil {
			Logger().Debug("resource found", zap.String("name", name), zap.String("location", r.Location))
			cp.cache[name] = r
			return r, nil
		}
	}
	return nil, charmerrors.NotFound(charmerrors.PhaseLookup, "resource", name)
}

// Close releases every opened archive and forgets cached lookups.
func (cp *ClassPath) Close() error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	var err error
	for _, e := range cp.entries {
		err = multierr.Append(err, e.close())
	}
	clear(cp.cache)
	return err
}

// Resource is a located class file or other classpath resource.
type Resource struct {
	open func() (io.ReadCloser, error)
	// Location is file:///path for directory entries and
	// jar:file:///archive!/name for archive members.
	Location string
	Name     string
}

// Open returns a reader over the resource bytes.
func (r *Resource) Open() (io.ReadCloser, error) {
	rc, err := r.open()
	if err != nil {
		return nil, charmerrors.Wrap(charmerrors.PhaseLookup, charmerrors.KindInvalidInput, err, "open "+r.Location)
	}
	return rc, nil
}

// Bytes reads the whole resource.
func (r *Resource) Bytes() ([]byte, error) {
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	_, err = io.Copy(&buf, rc)
	err = multierr.Append(err, rc.Close())
	if err != nil {
		return nil, charmerrors.Wrap(charmerrors.PhaseLookup, charmerrors.KindInvalidInput, err, "read "+r.Location)
	}
	return buf.Bytes(), nil
}

type dir string

func (d dir) String() string { return string(d) }

func (d dir) close() error { return nil }

func (d dir) find(name string) (*Resource, error) {
	path := filepath.Join(string(d), filepath.FromSlash(name))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Resource{
		Name:     name,
		Location: "file://" + filepath.ToSlash(abs),
		open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

type archive struct {
	zr      *zip.ReadCloser
	files   map[string]*zip.File
	path    string
	missing bool
}

func (a *archive) String() string { return a.path }

func (a *archive) close() error {
	if a.zr == nil {
		return nil
	}
	err := a.zr.Close()
	a.zr, a.files = nil, nil
	return err
}

func (a *archive) load() error {
	if a.files != nil || a.missing {
		return nil
	}
	if _, err := os.Stat(a.path); err != nil {
		a.missing = true
		return nil
	}
	zr, err := zip.OpenReader(a.path)
	if err != nil {
		return charmerrors.Wrap(charmerrors.PhaseLookup, charmerrors.KindInvalidInput, err, "open archive "+a.path)
	}
	a.zr = zr
	a.files = make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		a.files[f.Name] = f
	}
	Logger().Debug("opened archive", zap.String("path", a.path), zap.Int("entries", len(zr.File)))
	return nil
}

func (a *archive) find(name string) (*Resource, error) {
	if err := a.load(); err != nil {
		return nil, err
	}
	f, ok := a.files[name]
	if !ok {
		return nil, nil
	}
	abs, err := filepath.Abs(a.path)
	if err != nil {
		abs = a.path
	}
	return &Resource{
		Name:     name,
		Location: "jar:file://" + filepath.ToSlash(abs) + "!/" + name,
		open:     f.Open,
	}, nil
}
