//go:build windows

package windivert

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modWinDivert = windows.NewLazySystemDLL("WinDivert.dll")

	procOpen     = modWinDivert.NewProc("WinDivertOpen")
	procRecv     = modWinDivert.NewProc("WinDivertRecv")
	procSend     = modWinDivert.NewProc("WinDivertSend")
	procShutdown = modWinDivert.NewProc("WinDivertShutdown")
	procClose    = modWinDivert.NewProc("WinDivertClose")

	loadOnce sync.Once
	loadErr  error
)

// Load resolves WinDivert.dll and its five entry points. The DLL stays
// loaded for the process lifetime; repeated calls return the first result.
func Load() (Driver, error) {
	loadOnce.Do(func() {
		if err := modWinDivert.Load(); err != nil {
			loadErr = fmt.Errorf("load WinDivert.dll: %w", err)
			return
		}
		for _, p := range []*windows.LazyProc{procOpen, procRecv, procSend, procShutdown, procClose} {
			if err := p.Find(); err != nil {
				loadErr = fmt.Errorf("resolve %s: %w", p.Name, err)
				return
			}
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return dllDriver{}, nil
}

// dllDriver calls straight into WinDivert.dll.
type dllDriver struct{}

func (dllDriver) Open(filter string, layer Layer, priority int16, flags uint64) (Handle, error) {
	f, err := windows.BytePtrFromString(filter)
	if err != nil {
		return InvalidHandle, err
	}
	r1, _, errno := procOpen.Call(
		uintptr(unsafe.Pointer(f)),
		uintptr(layer),
		uintptr(uint16(priority)),
		uintptr(flags),
	)
	if Handle(r1) == InvalidHandle {
		return InvalidHandle, fmt.Errorf("WinDivertOpen: %w", errno)
	}
	return Handle(r1), nil
}

func (dllDriver) Recv(h Handle, buf []byte, addr *Address) (int, error) {
	var recvLen uint32
	r1, _, errno := procRecv.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&recvLen)),
		uintptr(unsafe.Pointer(addr)),
	)
	if r1 == 0 {
		return 0, fmt.Errorf("WinDivertRecv: %w", errno)
	}
	return int(recvLen), nil
}

func (dllDriver) Send(h Handle, pkt []byte, addr *Address) (int, error) {
	var sendLen uint32
	r1, _, errno := procSend.Call(
		uintptr(h),
		uintptr(unsafe.Pointer(&pkt[0])),
		uintptr(len(pkt)),
		uintptr(unsafe.Pointer(&sendLen)),
		uintptr(unsafe.Pointer(addr)),
	)
	if r1 == 0 {
		return 0, fmt.Errorf("WinDivertSend: %w", errno)
	}
	return int(sendLen), nil
}

func (dllDriver) Shutdown(h Handle, how ShutdownHow) error {
	r1, _, errno := procShutdown.Call(uintptr(h), uintptr(how))
	if r1 == 0 {
		return fmt.Errorf("WinDivertShutdown: %w", errno)
	}
	return nil
}

func (dllDriver) Close(h Handle) error {
	r1, _, errno := procClose.Call(uintptr(h))
	if r1 == 0 {
		return fmt.Errorf("WinDivertClose: %w", errno)
	}
	return nil
}
