package packet

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// testPacket builds a minimal IPv4+TCP packet with valid checksums.
func testPacket(t *testing.T, srcIP, dstIP [4]byte, srcPort, dstPort uint16, flags byte, payload []byte) []byte {
	t.Helper()

	buf := make([]byte, 40+len(payload))
	ip := buf[:20]
	tcp := buf[20:40]
	copy(buf[40:], payload)

	ip[0] = 0x45
	binary.BigEndian.PutUint16(ip[2:4], uint16(len(buf)))
	binary.BigEndian.PutUint16(ip[4:6], 0x1234) // id
	ip[8] = 64
	ip[9] = 6
	copy(ip[12:16], srcIP[:])
	copy(ip[16:20], dstIP[:])

	binary.BigEndian.PutUint16(tcp[0:2], srcPort)
	binary.BigEndian.PutUint16(tcp[2:4], dstPort)
	binary.BigEndian.PutUint32(tcp[4:8], 0xDEADBEEF)  // seq
	binary.BigEndian.PutUint32(tcp[8:12], 0x12345678) // ack
	tcp[12] = 5 << 4
	tcp[13] = flags
	binary.BigEndian.PutUint16(tcp[14:16], 64240) // window

	binary.BigEndian.PutUint16(ip[10:12], IPv4Checksum(ip))
	binary.BigEndian.PutUint16(tcp[16:18], TCPChecksum(ip, tcp, payload))
	return buf
}

func TestIPv4ChecksumRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		hdr := make([]byte, 20)
		rng.Read(hdr)
		hdr[0] = 0x45
		hdr[10], hdr[11] = 0, 0

		sum := IPv4Checksum(hdr)
		binary.BigEndian.PutUint16(hdr[10:12], sum)

		// A header carrying its own correct checksum sums to zero.
		require.Equal(t, uint16(0), IPv4Checksum(hdr))
	}
}

func TestTCPChecksumRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for _, payloadLen := range []int{0, 1, 7, 16, 31, 32, 1000} {
		ip := make([]byte, 20)
		rng.Read(ip)
		ip[0] = 0x45
		ip[9] = 6

		tcp := make([]byte, 20)
		rng.Read(tcp)
		tcp[12] = 5 << 4
		tcp[16], tcp[17] = 0, 0

		payload := make([]byte, payloadLen)
		rng.Read(payload)

		sum := TCPChecksum(ip, tcp, payload)
		binary.BigEndian.PutUint16(tcp[16:18], sum)

		require.Equal(t, uint16(0), TCPChecksum(ip, tcp, payload),
			"payload length %d", payloadLen)
	}
}

func TestChecksumOddLengthPadding(t *testing.T) {
	// An odd trailing byte counts as the high half of a final word.
	even := []byte{0x12, 0x34, 0x56, 0x00}
	odd := []byte{0x12, 0x34, 0x56}
	require.Equal(t, fold(sum16(0, even)), fold(sum16(0, odd)))
}
