package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testSrcIP = [4]byte{10, 1, 2, 3}
	testDstIP = [4]byte{10, 0, 0, 1}
)

func TestParseValid(t *testing.T) {
	pkt := testPacket(t, testSrcIP, testDstIP, 54321, 443, FlagSYN, nil)

	p, ok := Parse(pkt)
	require.True(t, ok)
	require.Len(t, p.IP, 20)
	require.Len(t, p.TCP, 20)
	require.Equal(t, byte(FlagSYN), p.Flags())

	// Views are zero-copy: mutating the buffer shows through.
	pkt[13] = 0x42
	require.Equal(t, byte(0x42), p.IP[13])
}

func TestParseWithOptions(t *testing.T) {
	// IHL=6 (24-byte IP header), data offset=7 (28-byte TCP header).
	pkt := make([]byte, 24+28)
	pkt[0] = 0x46
	pkt[24+12] = 7 << 4

	p, ok := Parse(pkt)
	require.True(t, ok)
	require.Len(t, p.IP, 24)
	require.Len(t, p.TCP, 28)
}

func TestParseTruncatedPrefixes(t *testing.T) {
	pkt := testPacket(t, testSrcIP, testDstIP, 54321, 443, FlagACK, []byte("hello"))

	for n := 0; n < 40; n++ {
		_, ok := Parse(pkt[:n])
		require.False(t, ok, "prefix length %d", n)
	}
	_, ok := Parse(pkt)
	require.True(t, ok)
}

func TestParseRejections(t *testing.T) {
	base := func() []byte {
		return testPacket(t, testSrcIP, testDstIP, 54321, 443, FlagSYN, nil)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"version 6", func(b []byte) []byte { b[0] = 0x65; return b }},
		{"ihl 4", func(b []byte) []byte { b[0] = 0x44; return b }},
		{"ihl past buffer", func(b []byte) []byte { b[0] = 0x4F; return b[:40] }},
		{"tcp offset 4", func(b []byte) []byte { b[20+12] = 4 << 4; return b }},
		{"tcp offset past buffer", func(b []byte) []byte { b[20+12] = 15 << 4; return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Parse(tt.mutate(base()))
			require.False(t, ok)
		})
	}
}
