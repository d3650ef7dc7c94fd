package packet

import (
	"encoding/binary"
	"math/rand"
)

// DecoyTTL makes the decoy expire a few hops out, after it has crossed
// DPI equipment near the host but before it reaches the server.
const DecoyTTL = 5

// Junk payload size bounds, inclusive.
const (
	junkMin = 16
	junkMax = 32
)

// BuildDecoy crafts a synthetic SYN segment from a genuine outbound packet.
// The real headers (including options) are copied verbatim, then the copy
// gets TTL=DecoyTTL, SYN-only flags, a random sequence number, zero ack,
// a random junk payload, and fresh checksums. The result is a new buffer;
// the input views are not touched.
func BuildDecoy(p Parsed, rng *rand.Rand) []byte {
	ipLen, tcpLen := len(p.IP), len(p.TCP)
	junk := junkMin + rng.Intn(junkMax-junkMin+1)

	buf := make([]byte, ipLen+tcpLen+junk)
	copy(buf, p.IP)
	copy(buf[ipLen:], p.TCP)

	ip := buf[:ipLen]
	tcp := buf[ipLen : ipLen+tcpLen]
	payload := buf[ipLen+tcpLen:]

	binary.BigEndian.PutUint16(ip[2:4], uint16(len(buf)))
	ip[8] = DecoyTTL
	ip[10], ip[11] = 0, 0

	// Keep the data-offset nibble, clear every flag and reserved bit,
	// then raise SYN alone.
	tcp[12] &= 0xF0
	tcp[13] = FlagSYN
	binary.BigEndian.PutUint32(tcp[4:8], rng.Uint32()) // fresh seq
	binary.BigEndian.PutUint32(tcp[8:12], 0)           // ack
	tcp[16], tcp[17] = 0, 0

	rng.Read(payload)

	binary.BigEndian.PutUint16(ip[10:12], IPv4Checksum(ip))
	binary.BigEndian.PutUint16(tcp[16:18], TCPChecksum(ip, tcp, payload))

	return buf
}
