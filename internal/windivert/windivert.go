// Package windivert is a minimal client for the WinDivert packet-diversion
// driver: just the five entry points the injection engine needs, resolved
// from WinDivert.dll at runtime. The Driver interface lets tests substitute
// an in-memory implementation.
package windivert

// Handle identifies an open diversion handle.
type Handle uintptr

// InvalidHandle is the sentinel for "no handle open".
const InvalidHandle = ^Handle(0)

// Layer selects where in the stack the driver diverts packets.
type Layer int32

// LayerNetwork diverts whole IP packets entering or leaving the host.
const LayerNetwork Layer = 0

// ShutdownHow selects which directions WinDivertShutdown drains.
type ShutdownHow uint32

const (
	ShutdownRecv ShutdownHow = 0x1
	ShutdownSend ShutdownHow = 0x2
	ShutdownBoth ShutdownHow = 0x3
)

// Open flags.
const (
	FlagSniff     = 0x0001
	FlagDrop      = 0x0002
	FlagRecvOnly  = 0x0004
	FlagSendOnly  = 0x0008
	FlagNoInstall = 0x0010
	// FlagFragments asks the driver to deliver IP-fragmented packets whole.
	FlagFragments = 0x0020
)

// MaxPacketSize is the largest packet the network layer can deliver.
const MaxPacketSize = 0xFFFF

// Network identifies the interface a network-layer packet traversed.
type Network struct {
	IfIdx    uint32
	SubIfIdx uint32
}

// Address mirrors WINDIVERT_ADDRESS. Recv fills it in; passing the same
// record back to Send reinjects the packet on the same interface in the
// same direction.
type Address struct {
	Timestamp int64
	Flags     uint32 // packed bitfields: layer, event, sniffed, outbound, ...
	Reserved  uint32
	Network   Network
	_         [56]byte // pads the layer-data union to 64 bytes
}

// Driver is the diversion surface the engine runs against. The production
// implementation (Load) calls into WinDivert.dll; tests provide a
// programmable stub.
type Driver interface {
	// Open installs a diversion filter and returns a handle to it.
	Open(filter string, layer Layer, priority int16, flags uint64) (Handle, error)
	// Recv blocks until a diverted packet is copied into buf. It returns
	// the packet length and fills addr with the packet's address record.
	Recv(h Handle, buf []byte, addr *Address) (int, error)
	// Send reinjects a packet using the direction and interface in addr.
	Send(h Handle, pkt []byte, addr *Address) (int, error)
	// Shutdown drains the handle's packet queues, unblocking Recv.
	Shutdown(h Handle, how ShutdownHow) error
	// Close releases the handle.
	Close(h Handle) error
}
