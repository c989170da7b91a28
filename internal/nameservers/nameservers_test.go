package nameservers

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/suite"
)

type NameserversTestSuite struct {
	suite.Suite
}

func (s *NameserversTestSuite) addrs(raw ...string) []netip.AddrPort {
	out := make([]netip.AddrPort, 0, len(raw))
	for _, r := range raw {
		out = append(out, netip.MustParseAddrPort(r))
	}
	return out
}

func (s *NameserversTestSuite) drain(st Stream) []string {
	out := make([]string, 0, st.Size())
	for i := 0; i < st.Size(); i++ {
		addr, ok := st.Next()
		s.Require().True(ok)
		out = append(out, addr.String())
	}
	return out
}

func (s *NameserversTestSuite) TestShuffledStreamCoversAllAddresses() {
	backing := s.addrs("10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:9953", "[::1]:53")
	src := Shuffled(backing)

	st := src.Stream()
	s.Equal(len(backing), st.Size())
	s.ElementsMatch(
		[]string{"10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:9953", "[::1]:53"},
		s.drain(st),
	)
}

func (s *NameserversTestSuite) TestShuffledStreamCycles() {
	src := Shuffled(s.addrs("10.0.0.1:53", "10.0.0.2:53"))

	st := src.Stream()
	seen := make(map[string]int)
	for i := 0; i < 2*st.Size(); i++ {
		addr, ok := st.Next()
		s.Require().True(ok)
		seen[addr.String()]++
	}
	s.Equal(map[string]int{"10.0.0.1:53": 2, "10.0.0.2:53": 2}, seen)
}

func (s *NameserversTestSuite) TestShuffledDoesNotShareOrderBetweenStreams() {
	backing := s.addrs("10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:53")
	src := Shuffled(backing)

	// Every stream is a permutation of the backing list, whatever order
	// it picked.
	for i := 0; i < 8; i++ {
		s.ElementsMatch(
			[]string{"10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:53"},
			s.drain(src.Stream()),
		)
	}
}

func (s *NameserversTestSuite) TestRotatingStartsAtSuccessivePositions() {
	src := Rotating(s.addrs("10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:53"))

	s.Equal([]string{"10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:53"}, s.drain(src.Stream()))
	s.Equal([]string{"10.0.0.2:53", "10.0.0.3:53", "10.0.0.1:53"}, s.drain(src.Stream()))
	s.Equal([]string{"10.0.0.3:53", "10.0.0.1:53", "10.0.0.2:53"}, s.drain(src.Stream()))
	s.Equal([]string{"10.0.0.1:53", "10.0.0.2:53", "10.0.0.3:53"}, s.drain(src.Stream()))
}

func (s *NameserversTestSuite) TestEmptySources() {
	for _, src := range []Source{Shuffled(nil), Rotating(nil)} {
		st := src.Stream()
		s.Zero(st.Size())
		_, ok := st.Next()
		s.False(ok)
	}
}

func (s *NameserversTestSuite) TestSourceIsIsolatedFromCallerSlice() {
	backing := s.addrs("10.0.0.1:53", "10.0.0.2:53")
	src := Rotating(backing)

	// Mutating the caller's slice after construction must not leak into
	// the source.
	backing[0] = netip.MustParseAddrPort("192.0.2.1:53")

	s.Equal([]string{"10.0.0.1:53", "10.0.0.2:53"}, s.drain(src.Stream()))
}

func TestNameserversSuite(t *testing.T) {
	suite.Run(t, new(NameserversTestSuite))
}
