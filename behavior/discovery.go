package behavior

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/syssam/propel"
	"github.com/syssam/propel/locator"
)

// Manifest file names and the package type that marks a behavior.
const (
	LockFile     = "propel.lock"
	ManifestFile = "propel.json"
	PackageType  = "propel-behavior"
)

// Precedence decides which source wins when the lock file and the project
// manifest announce the same behavior name.
type Precedence uint8

const (
	// ManifestOverridesLock reads the lock file first and lets the manifest
	// replace its entries.
	ManifestOverridesLock Precedence = iota
	// LockOverridesManifest keeps lock file entries over manifest ones.
	LockOverridesManifest
)

// Discovered is one behavior announced by a manifest.
type Discovered struct {
	Name    string // schema name, e.g. "versionable"
	Class   string // qualified class bound with RegisterClass
	Package string // announcing package
	Source  string // file the entry was read from
}

type (
	manifestPackage struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Extra struct {
			Name  string `json:"name"`
			Class string `json:"class"`
		} `json:"extra"`
	}
	lockDocument struct {
		Packages []manifestPackage `json:"packages"`
	}
)

type discoverConfig struct {
	precedence Precedence
	lock       string
	manifest   string
	logger     *slog.Logger
	fsys       fs.FS
}

// DiscoverOption configures Discover.
type DiscoverOption func(*discoverConfig)

// WithPrecedence sets the clash policy between lock file and manifest.
func WithPrecedence(p Precedence) DiscoverOption {
	return func(c *discoverConfig) { c.precedence = p }
}

// WithLockFile overrides the lock file name.
func WithLockFile(name string) DiscoverOption {
	return func(c *discoverConfig) { c.lock = name }
}

// WithManifestFile overrides the manifest file name.
func WithManifestFile(name string) DiscoverOption {
	return func(c *discoverConfig) { c.manifest = name }
}

// WithDiscoverFS reads located paths from fsys instead of the disk. Use it
// with a locator.FS over the same file system.
func WithDiscoverFS(fsys fs.FS) DiscoverOption {
	return func(c *discoverConfig) { c.fsys = fsys }
}

// WithDiscoverLogger sets the logger for skipped entries.
func WithDiscoverLogger(l *slog.Logger) DiscoverOption {
	return func(c *discoverConfig) { c.logger = l }
}

// Discover reads the lock file and the manifest found by loc and returns the
// announced behaviors in file order. Missing files are not an error; malformed
// ones fail with ParseError.
func Discover(loc locator.Locator, opts ...DiscoverOption) ([]Discovered, error) {
	cfg := &discoverConfig{lock: LockFile, manifest: ManifestFile, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	lock, err := cfg.read(loc, cfg.lock, true)
	if err != nil {
		return nil, err
	}
	manifest, err := cfg.read(loc, cfg.manifest, false)
	if err != nil {
		return nil, err
	}
	first, second := lock, manifest
	if cfg.precedence == LockOverridesManifest {
		first, second = manifest, lock
	}
	var (
		out   []Discovered
		index = make(map[string]int)
	)
	for _, src := range [][]Discovered{first, second} {
		for _, d := range src {
			if i, ok := index[d.Name]; ok {
				cfg.logger.Debug("behavior overridden", "name", d.Name, "class", d.Class, "source", d.Source, "previous", out[i].Source)
				out[i] = d
				continue
			}
			index[d.Name] = len(out)
			out = append(out, d)
		}
	}
	return out, nil
}

// Discover runs discovery and binds the result.
func (r *Registry) Discover(loc locator.Locator, opts ...DiscoverOption) ([]Discovered, error) {
	ds, err := Discover(loc, opts...)
	if err != nil {
		return nil, err
	}
	r.Bind(ds...)
	return ds, nil
}

func (c *discoverConfig) read(loc locator.Locator, name string, lock bool) ([]Discovered, error) {
	path, err := loc.Locate(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var data []byte
	if c.fsys != nil {
		data, err = fs.ReadFile(c.fsys, path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, propel.NewIOError("read", path, err)
	}
	var pkgs []manifestPackage
	if lock {
		var doc lockDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, propel.NewParseError("json", path, err, err.Error())
		}
		pkgs = doc.Packages
	} else {
		var pkg manifestPackage
		if err := json.Unmarshal(data, &pkg); err != nil {
			return nil, propel.NewParseError("json", path, err, err.Error())
		}
		pkgs = []manifestPackage{pkg}
	}
	var out []Discovered
	for _, p := range pkgs {
		if p.Type != PackageType {
			continue
		}
		if p.Extra.Name == "" || p.Extra.Class == "" {
			c.logger.Warn("behavior package without extra.name or extra.class", "package", p.Name, "source", path)
			continue
		}
		out = append(out, Discovered{Name: p.Extra.Name, Class: p.Extra.Class, Package: p.Name, Source: path})
	}
	return out, nil
}
