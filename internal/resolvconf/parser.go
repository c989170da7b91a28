package resolvconf

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/miekg/dns"
	"go.uber.org/multierr"

	"github.com/lc/nspick/internal/filesys"
	"github.com/lc/nspick/internal/log"
	"github.com/lc/nspick/internal/nameservers"
)

const (
	nameserverLabel = "nameserver"
	domainLabel     = "domain"
	portLabel       = "port"
	sortlistLabel   = "sortlist"
)

// BuildSource turns a committed address list into the Source stored in the
// domain map. The default is nameservers.Shuffled.
type BuildSource func(addrs []netip.AddrPort) nameservers.Source

// parser reads resolver configuration files into a domain map. It holds no
// per-file state; that lives in fileState and is discarded after each file.
type parser struct {
	fs    filesys.ReadFS
	build BuildSource
}

// fileState is the working state threaded through the lines of one file:
// the domain the next commit goes under, the port applied to nameserver
// lines without an explicit one, and the addresses accumulated so far.
type fileState struct {
	domain  string
	port    uint16
	pending []netip.AddrPort
}

// parse reads the given files in order into a single domain map. Missing and
// non-regular files are skipped; anything else that goes wrong aborts the
// whole parse.
func (p parser) parse(paths ...string) (map[string]nameservers.Source, error) {
	m := make(map[string]nameservers.Source, 2*len(paths))
	for _, path := range paths {
		if err := p.parseFile(path, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (p parser) parseFile(path string, m map[string]nameservers.Source) (err error) {
	info, err := p.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := p.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	st := fileState{
		domain: filepath.Base(path),
		port:   nameservers.DefaultPort,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := p.consumeLine(&st, strings.TrimSpace(scanner.Text()), path, m); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	p.flush(&st, m)
	return nil
}

// consumeLine interprets a single trimmed line against the working state.
// Unknown directives are ignored for forward compatibility; malformed values
// of known directives are fatal.
func (p parser) consumeLine(st *fileState, line, path string, m map[string]nameservers.Source) error {
	if line == "" || line[0] == '#' || line[0] == ';' {
		return nil
	}

	if value, ok := directiveValue(line, nameserverLabel); ok {
		if value == "" {
			return fmt.Errorf("%s: missing %s value", path, nameserverLabel)
		}
		addr, err := parseNameserver(value, st.port)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		st.pending = append(st.pending, addr)
		return nil
	}

	if value, ok := directiveValue(line, domainLabel); ok {
		if value == "" {
			return fmt.Errorf("%s: missing %s value", path, domainLabel)
		}
		// Addresses accumulated so far belong to the previous domain.
		p.flush(st, m)
		if _, valid := dns.IsDomainName(value); !valid {
			log.Debugf("resolvconf: %q in %s is not a valid domain name, keeping it verbatim", value, path)
		}
		st.domain = value
		return nil
	}

	if value, ok := directiveValue(line, portLabel); ok {
		if value == "" {
			return fmt.Errorf("%s: missing %s value", path, portLabel)
		}
		port, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return fmt.Errorf("%s: invalid %s value %q: %w", path, portLabel, value, err)
		}
		st.port = uint16(port)
		return nil
	}

	if _, ok := directiveValue(line, sortlistLabel); ok {
		log.Infof("resolvconf: %s is not supported, ignoring line %q in %s", sortlistLabel, line, path)
		return nil
	}

	return nil
}

// flush commits the pending addresses under the working domain and clears
// them. A flush with nothing pending is a no-op.
func (p parser) flush(st *fileState, m map[string]nameservers.Source) {
	if len(st.pending) == 0 {
		return
	}
	insertIfAbsent(m, st.domain, p.build(st.pending))
	st.pending = nil
}

// insertIfAbsent adds src under domain unless the map already holds an entry
// for it. Earlier sources have priority over later ones, so a losing insert
// is only a diagnostic, never an error.
func insertIfAbsent(m map[string]nameservers.Source, domain string, src nameservers.Source) bool {
	if _, exists := m[domain]; exists {
		log.Debugf("resolvconf: domain %q already has name servers, discarding later entry", domain)
		return false
	}
	m[domain] = src
	return true
}

// directiveValue reports whether line carries the given directive and, if
// so, returns its argument. The directive must be followed by whitespace:
// "nameserverx ..." is an unknown directive, not a nameserver line. A bare
// directive with no argument matches with an empty value.
func directiveValue(line, label string) (string, bool) {
	if !strings.HasPrefix(line, label) {
		return "", false
	}
	rest := line[len(label):]
	if rest == "" {
		return "", true
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// parseNameserver parses the value of a nameserver line. Three forms are
// accepted: a bare IP literal, which gets the working port; host:port
// ("10.0.0.2:9953", "[::1]:5353"); and an IP literal with a trailing
// .<digits> port suffix ("8.8.8.8.8053", "::1.8053").
func parseNameserver(value string, workingPort uint16) (netip.AddrPort, error) {
	if addr, err := netip.ParseAddr(value); err == nil {
		return netip.AddrPortFrom(addr, workingPort), nil
	}
	if ap, err := netip.ParseAddrPort(value); err == nil {
		return ap, nil
	}

	i := strings.LastIndexByte(value, '.')
	if i < 0 || i+1 >= len(value) {
		return netip.AddrPort{}, fmt.Errorf("invalid %s value %q", nameserverLabel, value)
	}
	port, err := strconv.ParseUint(value[i+1:], 10, 16)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid port suffix in %s value %q: %w", nameserverLabel, value, err)
	}
	addr, err := netip.ParseAddr(value[:i])
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid %s value %q: %w", nameserverLabel, value, err)
	}
	return netip.AddrPortFrom(addr, uint16(port)), nil
}
