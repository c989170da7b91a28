package resolvconf

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lc/nspick/internal/nameservers"
)

type ParserTestSuite struct {
	suite.Suite
	dir string
}

func (s *ParserTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

// write drops a file with the given base name into the suite's temp dir.
// The base name matters: it is the file's initial working domain.
func (s *ParserTestSuite) write(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newPrimary builds a provider over a single primary file with the ordered
// (rotating) source policy so address order is observable.
func (s *ParserTestSuite) newPrimary(content string) *UnixProvider {
	prov, err := New(s.write("resolv.conf", content), nil, WithBuildSource(nameservers.Rotating))
	s.Require().NoError(err)
	return prov
}

func (s *ParserTestSuite) drain(st nameservers.Stream) []string {
	out := make([]string, 0, st.Size())
	for i := 0; i < st.Size(); i++ {
		addr, ok := st.Next()
		s.Require().True(ok)
		out = append(out, addr.String())
	}
	return out
}

// defaults returns the provider's default servers via a single-label query,
// which skips the domain map entirely.
func (s *ParserTestSuite) defaults(prov *UnixProvider) []string {
	st, ok := prov.ServersFor("localhost")
	s.Require().True(ok)
	return s.drain(st)
}

func (s *ParserTestSuite) TestParseNameserverForms() {
	testCases := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "bare IPv4 gets working port", value: "8.8.8.8", expected: "8.8.8.8:53"},
		{name: "bare IPv6 gets working port", value: "2001:db8::1", expected: "[2001:db8::1]:53"},
		{name: "IPv4 with dot port suffix", value: "8.8.8.8.8053", expected: "8.8.8.8:8053"},
		{name: "IPv6 with dot port suffix", value: "::1.8053", expected: "[::1]:8053"},
		{name: "IPv4 host:port", value: "10.0.0.2:9953", expected: "10.0.0.2:9953"},
		{name: "bracketed IPv6 host:port", value: "[2001:db8::1]:5353", expected: "[2001:db8::1]:5353"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			addr, err := parseNameserver(tc.value, nameservers.DefaultPort)
			s.Require().NoError(err)
			s.Equal(netip.MustParseAddrPort(tc.expected), addr)
		})
	}
}

func (s *ParserTestSuite) TestParseNameserverRejectsGarbage() {
	testCases := []struct {
		name  string
		value string
	}{
		{name: "not an address at all", value: "banana"},
		{name: "port suffix overflows uint16", value: "1.2.3.4.99999"},
		{name: "octet out of range", value: "10.0.0.300"},
		{name: "trailing dot with no port", value: "1.2.3.4."},
		{name: "port suffix on garbage host", value: "banana.53"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := parseNameserver(tc.value, nameservers.DefaultPort)
			s.Error(err)
		})
	}
}

func (s *ParserTestSuite) TestDirectiveValue() {
	testCases := []struct {
		name    string
		line    string
		label   string
		value   string
		matched bool
	}{
		{name: "space separated", line: "nameserver 1.1.1.1", label: "nameserver", value: "1.1.1.1", matched: true},
		{name: "tab separated", line: "nameserver\t1.1.1.1", label: "nameserver", value: "1.1.1.1", matched: true},
		{name: "bare directive matches with empty value", line: "nameserver", label: "nameserver", value: "", matched: true},
		{name: "prefix without whitespace is unknown", line: "nameserverx 1.1.1.1", label: "nameserver", matched: false},
		{name: "different directive", line: "search example.com", label: "nameserver", matched: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			value, ok := directiveValue(tc.line, tc.label)
			s.Equal(tc.matched, ok)
			if tc.matched {
				s.Equal(tc.value, value)
			}
		})
	}
}

func (s *ParserTestSuite) TestWorkingPortAppliesToBareEntries() {
	prov := s.newPrimary(`
port 9953
nameserver 1.1.1.1
nameserver 2.2.2.2.53
nameserver 3.3.3.3
`)
	s.Equal([]string{"1.1.1.1:9953", "2.2.2.2:53", "3.3.3.3:9953"}, s.defaults(prov))
}

func (s *ParserTestSuite) TestPortIsNotRetroactive() {
	prov := s.newPrimary(`
nameserver 1.1.1.1
port 9953
nameserver 2.2.2.2
`)
	s.Equal([]string{"1.1.1.1:53", "2.2.2.2:9953"}, s.defaults(prov))
}

func (s *ParserTestSuite) TestDomainFlushesUnderPreviousName() {
	prov := s.newPrimary(`
nameserver 1.1.1.1
domain example.com
nameserver 2.2.2.2
domain other.net
`)

	// The servers before the domain directive belong to the file itself.
	s.Equal([]string{"1.1.1.1:53"}, s.defaults(prov))

	// 2.2.2.2 was flushed under example.com by the second domain directive.
	st, ok := prov.ServersFor("www.example.com")
	s.Require().True(ok)
	s.Equal([]string{"2.2.2.2:53"}, s.drain(st))

	// other.net never accumulated an address, so walking past it lands on
	// the default.
	st, ok = prov.ServersFor("www.other.net")
	s.Require().True(ok)
	s.Equal([]string{"1.1.1.1:53"}, s.drain(st))
}

func (s *ParserTestSuite) TestDomainDoesNotResetWorkingPort() {
	prov := s.newPrimary(`
port 5353
domain example.com
nameserver 1.1.1.1
`)
	st, ok := prov.ServersFor("www.example.com")
	s.Require().True(ok)
	s.Equal([]string{"1.1.1.1:5353"}, s.drain(st))
}

func (s *ParserTestSuite) TestFirstWinsWithinOneFile() {
	prov := s.newPrimary(`
nameserver 1.1.1.1
domain example.com
nameserver 2.2.2.2
domain example.com
nameserver 3.3.3.3
`)
	// The second domain directive committed 2.2.2.2 under example.com; the
	// end-of-file flush of 3.3.3.3 lost and was discarded.
	st, ok := prov.ServersFor("www.example.com")
	s.Require().True(ok)
	s.Equal([]string{"2.2.2.2:53"}, s.drain(st))
}

func (s *ParserTestSuite) TestCommentsAndUnknownDirectivesIgnored() {
	prov := s.newPrimary(`
# a comment
; another comment
   # indented comment
search example.com
options ndots:5
nameserverx 9.9.9.9
nameserver 1.1.1.1
`)
	s.Equal([]string{"1.1.1.1:53"}, s.defaults(prov))
}

func (s *ParserTestSuite) TestSortlistIsRecognizedButIgnored() {
	prov := s.newPrimary(`
sortlist 130.155.160.0/255.255.240.0
nameserver 1.1.1.1
`)
	s.Equal([]string{"1.1.1.1:53"}, s.defaults(prov))
}

func (s *ParserTestSuite) TestMalformedDirectivesAbortConstruction() {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "invalid nameserver value", content: "nameserver banana"},
		{name: "nameserver without value", content: "nameserver"},
		{name: "domain without value", content: "domain"},
		{name: "port without value", content: "port"},
		{name: "non-numeric port", content: "port banana"},
		{name: "port out of range", content: "port 99999"},
		{name: "nameserver port suffix out of range", content: "nameserver 1.2.3.4.99999"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			path := s.write("resolv.conf", tc.content+"\n")
			_, err := New(path, nil)
			s.Error(err)
		})
	}
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserTestSuite))
}
