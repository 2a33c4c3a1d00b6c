package zapf

import (
	"math"
	"regexp"

	"go.uber.org/zap"
)

var tgAddrRe = regexp.MustCompile(`^tango://([\w.-]+:\d+/)?([\w-]+/){2}[\w-]+(#dbase=(no|yes))?$`)

const tgAddrFormat = "tango://[database:port/]domain/family/member[#dbase=no]"

// CommandData is the typed payload of a device-proxy command.
type CommandData interface {
	isCommandData()
}

// VoidData is the empty argument.
type VoidData struct{}

// ULongArray is an array of 32-bit unsigned integers.
type ULongArray []uint32

// CharArray is an array of raw bytes.
type CharArray []byte

func (VoidData) isCommandData()   {}
func (ULongArray) isCommandData() {}
func (CharArray) isCommandData()  {}

// DeviceProxy is the external device-proxy binding the tango:// backend
// delegates to. The wire format is owned by that binding; this library
// only invokes named commands with typed payloads.
type DeviceProxy interface {
	CommandInOut(name string, arg CommandData) (CommandData, error)
	HasCommand(name string) bool
	Close() error
}

// ProxyDialer connects a DeviceProxy to a device address.
type ProxyDialer func(device string) (DeviceProxy, error)

// TangoProto forwards reads and writes as remote command invocations on
// a device proxy.
type TangoProto struct {
	device string
	offset int

	log   *zap.Logger
	dial  ProxyDialer
	proxy DeviceProxy
}

// NewTangoProto validates a tango:// address. The proxy binding is
// supplied with WithProxyDialer; without one, Connect fails.
func NewTangoProto(addr string, opts ...Option) (*TangoProto, error) {
	cfg := newConfig(opts)

	if !tgAddrRe.MatchString(addr) {
		return nil, InvalidAddressError{Format: tgAddrFormat}
	}
	return &TangoProto{
		device: addr,
		log:    cfg.logger,
		dial:   cfg.dialer,
	}, nil
}

// Connect dials the proxy, verifies the device is alive with a State
// call and checks that it exposes the byte-access interface.
func (p *TangoProto) Connect() error {
	p.Disconnect()
	if p.dial == nil {
		return ProxyError{Reason: "no device proxy dialer configured"}
	}
	proxy, err := p.dial(p.device)
	if err != nil {
		return err
	}
	if _, err := proxy.CommandInOut("State", VoidData{}); err != nil {
		proxy.Close()
		return err
	}
	if !proxy.HasCommand("ReadInputBytes") || !proxy.HasCommand("WriteOutputBytes") {
		proxy.Close()
		return ProxyError{Reason: "device has invalid interface"}
	}

	p.proxy = proxy
	p.log.Info("connected", zap.String("device", p.device))
	return nil
}

// Disconnect drops the proxy.
func (p *TangoProto) Disconnect() {
	if p.proxy != nil {
		p.proxy.Close()
		p.proxy = nil
	}
}

// Reconnect re-establishes the connection.
func (p *TangoProto) Reconnect() error {
	return p.Connect()
}

// ReadInto fills buf via the device's ReadInputBytes command. The
// returned payload must be a byte array of exactly the requested
// length.
func (p *TangoProto) ReadInto(addr int, buf []byte) error {
	if p.proxy == nil {
		if err := p.Reconnect(); err != nil {
			return err
		}
	}
	offset, err := p.convertAddr(addr)
	if err != nil {
		return err
	}

	result, err := p.proxy.CommandInOut("ReadInputBytes", ULongArray{offset, uint32(len(buf))})
	if err != nil {
		p.Disconnect()
		return wrap("read", err)
	}
	chars, ok := result.(CharArray)
	if !ok || len(chars) != len(buf) {
		p.Disconnect()
		return wrap("read", ProxyError{Reason: "invalid data type or length returned"})
	}
	copy(buf, chars)
	return nil
}

// Write forwards buf via the device's WriteOutputBytes command, each
// byte widened into the typed argument array after the offset.
func (p *TangoProto) Write(addr int, buf []byte) error {
	if p.proxy == nil {
		if err := p.Reconnect(); err != nil {
			return err
		}
	}
	offset, err := p.convertAddr(addr)
	if err != nil {
		return err
	}

	arg := make(ULongArray, 1+len(buf))
	arg[0] = offset
	for i, b := range buf {
		arg[1+i] = uint32(b)
	}
	if _, err := p.proxy.CommandInOut("WriteOutputBytes", arg); err != nil {
		p.Disconnect()
		return wrap("write", err)
	}
	return nil
}

// Offsets returns the generation probe offsets.
func (p *TangoProto) Offsets() []int {
	return []int{0}
}

// SetOffset installs the base offset added to every address.
func (p *TangoProto) SetOffset(offset int) {
	p.offset = offset
}

func (p *TangoProto) convertAddr(addr int) (uint32, error) {
	sum := p.offset + addr
	if sum < 0 || uint64(sum) > math.MaxUint32 {
		return 0, AddressRangeError{Addr: addr}
	}
	return uint32(sum), nil
}
