//go:build windows

package signer

// mlock is a no-op on Windows; VirtualLock needs privileges most users lack.
func mlock(_ []byte) bool {
	return false
}

func munlock(_ []byte) {}
