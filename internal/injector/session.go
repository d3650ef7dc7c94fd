package injector

import "happycat-dpi/internal/packet"

// sessionKey is a compact flow identifier: source address, destination
// address, source port, destination port — byte-for-byte as they appear in
// the packet, so everything stays in network byte order and no conversion
// can drift between hashing and equality.
type sessionKey [12]byte

func makeSessionKey(p packet.Parsed) sessionKey {
	var k sessionKey
	copy(k[0:8], p.IP[12:20])
	copy(k[8:12], p.TCP[0:4])
	return k
}

// firstSeen inserts the key and reports whether this flow was not yet
// tracked. The first packet of every (re-)established flow gets a decoy.
func (e *Engine) firstSeen(k sessionKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[k]; ok {
		return false
	}
	e.sessions[k] = struct{}{}
	e.metrics.SetSessionsActive(len(e.sessions))
	return true
}

// markDone forgets a flow once a FIN or RST has been observed for it.
func (e *Engine) markDone(k sessionKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, k)
	e.metrics.SetSessionsActive(len(e.sessions))
}
