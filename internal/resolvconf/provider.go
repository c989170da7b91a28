package resolvconf

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/lc/nspick/internal/filesys"
	"github.com/lc/nspick/internal/log"
	"github.com/lc/nspick/internal/nameservers"
)

const (
	// DefaultPath is the conventional primary resolver configuration file.
	DefaultPath = "/etc/resolv.conf"
	// DefaultOverrideDir is the conventional directory of per-domain
	// override files, one file per domain, named after it.
	DefaultOverrideDir = "/etc/resolver"
)

// ErrNoFiles is returned when a provider is constructed without a primary
// file or any override files.
var ErrNoFiles = errors.New("no files to parse")

var (
	_ Provider = (*UnixProvider)(nil)
	_ Provider = Noop{}
)

// Provider answers which DNS servers should be queried for a hostname.
type Provider interface {
	// ServersFor walks the hostname's domain suffixes and returns a stream
	// over the most specific configured override, falling back to the
	// default servers. ok is false when nothing is configured for it.
	ServersFor(hostname string) (stream nameservers.Stream, ok bool)
	// MayOverrideNameServers reports whether this provider can answer any
	// query at all. Callers use it to decide whether to keep the provider
	// or fall back to something else.
	MayOverrideNameServers() bool
}

// UnixProvider is a Provider backed by Unix-style resolver configuration
// files. It is built once and immutable afterwards, so it is safe for
// concurrent use without locking.
type UnixProvider struct {
	domains map[string]nameservers.Source
	// def holds the primary file's own entry; nil when the primary file
	// contributed no un-prefixed nameserver lines.
	def nameservers.Source
}

// Opt configures provider construction.
type Opt func(*options)

type options struct {
	fs    filesys.ReadFS
	build BuildSource
}

// WithFS returns an option to read configuration through a custom file
// system implementation.
func WithFS(fsys filesys.ReadFS) Opt {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithBuildSource returns an option to replace the load-balancing policy
// applied to committed address lists (e.g. nameservers.Rotating).
func WithBuildSource(build BuildSource) Opt {
	return func(o *options) {
		o.build = build
	}
}

func buildOptions(opts []Opt) options {
	o := options{
		fs:    filesys.OS(),
		build: nameservers.Shuffled,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds a provider from a primary configuration file (the
// /etc/resolv.conf format, optional) and a set of per-domain override files
// (optional). At least one of the two must be supplied. Override files are
// parsed first and win ties against domain entries from the primary file;
// the primary file's entry matching its own name becomes the default.
func New(primary string, overrides []string, opts ...Opt) (*UnixProvider, error) {
	if primary == "" && len(overrides) == 0 {
		return nil, ErrNoFiles
	}
	o := buildOptions(opts)
	p := parser{fs: o.fs, build: o.build}

	domains, err := p.parse(overrides...)
	if err != nil {
		return nil, err
	}
	prov := &UnixProvider{domains: domains}

	if primary != "" {
		primaryMap, err := p.parse(primary)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(primary)
		prov.def = primaryMap[name]
		delete(primaryMap, name)
		for domain, src := range primaryMap {
			insertIfAbsent(domains, domain, src)
		}
	}
	return prov, nil
}

// NewFromDir is New with the override files taken from a directory, the way
// /etc/resolver is laid out. A missing directory means no override files.
func NewFromDir(primary, overrideDir string, opts ...Opt) (*UnixProvider, error) {
	o := buildOptions(opts)
	overrides, err := overrideFiles(o.fs, overrideDir)
	if err != nil {
		return nil, err
	}
	return New(primary, overrides, opts...)
}

func overrideFiles(fsys filesys.ReadFS, dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read resolver directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// ServersFor checks the hostname as given, then each parent-domain suffix
// obtained by stripping the leftmost label, returning the first exact match.
// Once no dot remains to strip (or only a trailing one does), it falls back
// to the default servers. Each step checks the current string verbatim;
// adjacent dots are not special-cased.
func (p *UnixProvider) ServersFor(hostname string) (nameservers.Stream, bool) {
	h := hostname
	for {
		i := indexOfDot(h)
		if i < 0 || i == len(h)-1 {
			if p.def == nil {
				return nil, false
			}
			return p.def.Stream(), true
		}
		if src, ok := p.domains[h]; ok {
			return src.Stream(), true
		}
		h = h[i+1:]
	}
}

// indexOfDot returns the index of the first '.' at position >= 1, or -1.
// Requiring the dot index be at least 1 is what keeps the suffix walk
// terminating.
func indexOfDot(h string) int {
	if len(h) < 2 {
		return -1
	}
	if i := strings.IndexByte(h[1:], '.'); i >= 0 {
		return i + 1
	}
	return -1
}

// MayOverrideNameServers reports whether any domain override is configured,
// or the default source exists and yields at least one address.
func (p *UnixProvider) MayOverrideNameServers() bool {
	if len(p.domains) > 0 {
		return true
	}
	if p.def == nil {
		return false
	}
	_, ok := p.def.Stream().Next()
	return ok
}

// ParseSilently builds a provider from the conventional paths. Any failure,
// and a configuration that cannot override anything, yield a Noop provider;
// bootstrap must never fail because the host's resolver configuration is
// broken.
func ParseSilently(opts ...Opt) Provider {
	prov, err := NewFromDir(DefaultPath, DefaultOverrideDir, opts...)
	if err != nil {
		log.Debugf("resolvconf: failed to parse %s and/or %s: %v", DefaultPath, DefaultOverrideDir, err)
		return Noop{}
	}
	if !prov.MayOverrideNameServers() {
		return Noop{}
	}
	return prov
}

// Noop is a Provider that resolves nothing.
type Noop struct{}

func (Noop) ServersFor(string) (nameservers.Stream, bool) { return nil, false }

func (Noop) MayOverrideNameServers() bool { return false }
