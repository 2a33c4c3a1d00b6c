package zapf

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fixed per-operation timeouts. These are deployment constants, not
// per-call settings: every blocking call of every backend is bounded by
// them.
const (
	ConnectTimeout = 1 * time.Second
	ReadTimeout    = 1 * time.Second
	WriteTimeout   = 1 * time.Second
)

// Protocol is the capability set every backend implements. Byte
// addresses are in the caller-visible coordinate space; unit conversion
// (e.g. to 16-bit registers) is internal to the backend.
//
// A backend owns at most one live transport handle. ReadInto and Write
// lazily reconnect when no handle is held and disconnect the backend
// before propagating a transport failure, so a caller never observes a
// stale handle.
//
// A Protocol is not safe for concurrent use from multiple goroutines.
type Protocol interface {
	// Connect establishes the transport and performs the backend's
	// handshake. Safe to call again after Disconnect.
	Connect() error

	// Disconnect drops the transport handle. It always succeeds and
	// performs no network round-trip.
	Disconnect()

	// Reconnect re-establishes the connection; the disconnect state is
	// implicit.
	Reconnect() error

	// ReadInto fills buf exactly from the process image at addr.
	ReadInto(addr int, buf []byte) error

	// Write stores buf to the process image at addr.
	Write(addr int, buf []byte) error

	// Offsets returns the backend's ordered candidate probe offsets for
	// generation detection.
	Offsets() []int

	// SetOffset installs the base offset added to every subsequent
	// address.
	SetOffset(offset int)
}

// Read is the convenience composition of ReadInto over a freshly
// allocated buffer.
func Read(p Protocol, addr, length int) ([]byte, error) {
	buf := make([]byte, length)
	if err := p.ReadInto(addr, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

type config struct {
	logger *zap.Logger
	dialer ProxyDialer
}

// Option configures a backend at construction time.
type Option func(*config)

// WithLogger installs a zap logger; the default is a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithProxyDialer installs the external device-proxy binding used by the
// tango:// backend.
func WithProxyDialer(dial ProxyDialer) Option {
	return func(cfg *config) {
		cfg.dialer = dial
	}
}

func newConfig(opts []Option) config {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

const protoAddrFormats = "ads://..., modbus://... or tango://..."

// NewProtocol constructs the backend selected by the address scheme.
func NewProtocol(addr string, opts ...Option) (Protocol, error) {
	switch {
	case strings.HasPrefix(addr, "ads://"):
		return NewAdsProto(addr, opts...)
	case strings.HasPrefix(addr, "modbus://"):
		return NewModbusProto(addr, opts...)
	case strings.HasPrefix(addr, "tango://"):
		return NewTangoProto(addr, opts...)
	}
	return nil, InvalidAddressError{Format: protoAddrFormats}
}
