package zapf

import "fmt"

// InvalidAddressError reports an address string that does not match the
// backend's grammar. It is permanent: a backend is never constructed from
// a bad address and no network I/O is attempted.
type InvalidAddressError struct {
	Format string
}

func (e InvalidAddressError) Error() string {
	return "invalid address, must be " + e.Format
}

// WrappedError annotates a lower-level error with the operation it
// happened in ("read", "write", "connect").
type WrappedError struct {
	Op  string
	Err error
}

func (e WrappedError) Error() string {
	return fmt.Sprintf("during %s: %v", e.Op, e.Err)
}

func (e WrappedError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return WrappedError{Op: op, Err: err}
}

// ADSError is a non-zero ADS error or command result code. The message is
// resolved against the vendor error catalog.
type ADSError struct {
	Code uint32
}

func (e ADSError) Error() string {
	return fmt.Sprintf("ADS error 0x%x: %s", e.Code, adsErrorString(e.Code))
}

// FrameError reports a reply whose shape does not match the request
// (wrong state flags, length or invoke id). It signals a desynchronized
// or untrusted peer and is always terminal for the call.
type FrameError struct {
	Reason string
}

func (e FrameError) Error() string {
	return "protocol mismatch: " + e.Reason
}

// AddressRangeError reports a byte address that, after adding the base
// offset, does not fit the backend's native address width.
type AddressRangeError struct {
	Addr int
}

func (e AddressRangeError) Error() string {
	return fmt.Sprintf("address %#x out of range for backend", e.Addr)
}

// ProxyError reports a device-proxy backend whose remote device violates
// the expected command interface.
type ProxyError struct {
	Reason string
}

func (e ProxyError) Error() string {
	return "device proxy error: " + e.Reason
}

// PLCError is a device-level failure reported by this library itself,
// e.g. an unsupported or missing generation signature.
type PLCError struct {
	Message string
}

func (e PLCError) Error() string {
	return "PLC error: " + e.Message
}
