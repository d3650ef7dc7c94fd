//go:build windows

package main

import (
	"log"

	"golang.org/x/sys/windows"
)

const singleInstanceMutex = "Global\\HappycatDPIEngine"

// acquireSingleInstance tries to create a named mutex. Only one engine may
// run at a time — the driver accepts one filter per purpose-built handle.
// Returns true if this is the first instance.
func acquireSingleInstance() bool {
	name, _ := windows.UTF16PtrFromString(singleInstanceMutex)
	h, err := windows.CreateMutex(nil, false, name)
	if err == windows.ERROR_ALREADY_EXISTS {
		if h != 0 {
			windows.CloseHandle(h)
		}
		return false
	}
	if h == 0 {
		log.Printf("[Core] CreateMutex failed: %v", err)
		return true // proceed anyway on unexpected error
	}
	// Keep the handle open for the lifetime of the process (closed on exit).
	return true
}
