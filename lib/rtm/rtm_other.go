//go:build !amd64

package rtm

// Supported reports whether the CPU implements RTM. It never does off amd64.
func Supported() bool {
	return false
}

// TxBegin panics: RTM only exists on amd64.
func TxBegin() (status uint32) {
	panic("rtm: not available on this architecture")
}

// TxEnd panics: RTM only exists on amd64.
func TxEnd() {
	panic("rtm: not available on this architecture")
}

// TxAbort panics: RTM only exists on amd64.
func TxAbort(code uint8) {
	panic("rtm: not available on this architecture")
}

// TxTest always reports false.
func TxTest() bool {
	return false
}
