// Package nameservers defines the address-source abstraction used to hand
// out DNS server endpoints in a load-balancing order. A Source is built once
// from a static, ordered address list and stays immutable; every query opens
// a fresh Stream over it.
package nameservers

import (
	"math/rand"
	"net/netip"

	"go.uber.org/atomic"
)

// DefaultPort is the standard DNS port applied when a nameserver entry
// carries no explicit port.
const DefaultPort uint16 = 53

// Source turns a static list of server endpoints into query-time ordered
// streams. The ordering policy lives in the Source implementation.
type Source interface {
	// Stream opens a new iteration over the backing addresses.
	Stream() Stream
}

// Stream iterates over the addresses of a Source. A stream over a non-empty
// backing list cycles indefinitely; only a stream over an empty list reports
// ok=false.
type Stream interface {
	// Next returns the next address to try.
	Next() (netip.AddrPort, bool)
	// Size returns the number of distinct addresses behind the stream.
	Size() int
}

var (
	_ Source = (*shuffledSource)(nil)
	_ Source = (*rotatingSource)(nil)
)

// Shuffled returns a Source whose streams each present the addresses in a
// fresh random order. This is the default policy: it spreads query load
// across the listed servers without any shared state between opens.
func Shuffled(addrs []netip.AddrPort) Source {
	return &shuffledSource{addrs: clone(addrs)}
}

type shuffledSource struct {
	addrs []netip.AddrPort
}

func (s *shuffledSource) Stream() Stream {
	shuffled := clone(s.addrs)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &sequentialStream{addrs: shuffled}
}

// Rotating returns a Source whose streams preserve the configured order but
// start one position further on every open, round-robining the first server
// tried across queries.
func Rotating(addrs []netip.AddrPort) Source {
	return &rotatingSource{addrs: clone(addrs)}
}

type rotatingSource struct {
	addrs []netip.AddrPort
	next  atomic.Uint32
}

func (s *rotatingSource) Stream() Stream {
	if len(s.addrs) == 0 {
		return &sequentialStream{}
	}
	start := int((s.next.Inc() - 1) % uint32(len(s.addrs)))
	rotated := make([]netip.AddrPort, 0, len(s.addrs))
	rotated = append(rotated, s.addrs[start:]...)
	rotated = append(rotated, s.addrs[:start]...)
	return &sequentialStream{addrs: rotated}
}

// sequentialStream walks its slice in order and wraps around. It is not
// safe for concurrent use; callers open one stream per query.
type sequentialStream struct {
	addrs []netip.AddrPort
	i     int
}

func (st *sequentialStream) Next() (netip.AddrPort, bool) {
	if len(st.addrs) == 0 {
		return netip.AddrPort{}, false
	}
	addr := st.addrs[st.i%len(st.addrs)]
	st.i++
	return addr, true
}

func (st *sequentialStream) Size() int { return len(st.addrs) }

func clone(addrs []netip.AddrPort) []netip.AddrPort {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]netip.AddrPort, len(addrs))
	copy(out, addrs)
	return out
}
