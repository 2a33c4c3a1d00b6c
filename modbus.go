package zapf

import (
	"net"
	"regexp"
	"strconv"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

var mbAddrRe = regexp.MustCompile(`^modbus://(.+?)(?::(\d+))?(?:/(\d+)?)?$`)

const mbAddrFormat = "modbus://host[:port][/slave]"

const (
	mbDefaultPort uint16 = 502

	// Largest byte span transferred per register read; 125 registers is
	// the protocol limit for a single holding-register request.
	mbChunkSize = 250
)

// registerClient is the slice of the external Modbus client this
// backend uses. Kept as an interface so chunking can be exercised
// against a mock.
type registerClient interface {
	Open() error
	Close() error
	ReadRegisters(addr uint16, quantity uint16, regType modbus.RegType) ([]uint16, error)
	WriteRegisters(addr uint16, values []uint16) error
}

// ModbusProto maps the byte-addressed process image onto 16-bit holding
// registers behind an external Modbus/TCP client.
type ModbusProto struct {
	host   string
	port   uint16
	slave  uint8
	offset int

	log    *zap.Logger
	dial   func() (registerClient, error)
	client registerClient
}

// NewModbusProto parses a modbus:// address. The port defaults to 502
// and the slave id to 0.
func NewModbusProto(addr string, opts ...Option) (*ModbusProto, error) {
	cfg := newConfig(opts)

	caps := mbAddrRe.FindStringSubmatch(addr)
	if caps == nil {
		return nil, InvalidAddressError{Format: mbAddrFormat}
	}

	port := mbDefaultPort
	if caps[2] != "" {
		n, err := strconv.ParseUint(caps[2], 10, 16)
		if err != nil {
			return nil, InvalidAddressError{Format: mbAddrFormat}
		}
		port = uint16(n)
	}
	var slave uint8
	if caps[3] != "" {
		n, err := strconv.ParseUint(caps[3], 10, 8)
		if err != nil {
			return nil, InvalidAddressError{Format: mbAddrFormat}
		}
		slave = uint8(n)
	}

	p := &ModbusProto{
		host:  caps[1],
		port:  port,
		slave: slave,
		log:   cfg.logger,
	}
	p.dial = p.dialModbus
	return p, nil
}

func (p *ModbusProto) dialModbus() (registerClient, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     "tcp://" + net.JoinHostPort(p.host, strconv.Itoa(int(p.port))),
		Timeout: ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := client.SetUnitId(p.slave); err != nil {
		return nil, err
	}
	return client, nil
}

// Connect opens the TCP transport.
func (p *ModbusProto) Connect() error {
	p.Disconnect()
	client, err := p.dial()
	if err != nil {
		return err
	}
	if err := client.Open(); err != nil {
		return err
	}
	p.client = client
	p.log.Info("connected", zap.String("host", p.host))
	return nil
}

// Disconnect drops the transport.
func (p *ModbusProto) Disconnect() {
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// Reconnect re-establishes the connection.
func (p *ModbusProto) Reconnect() error {
	return p.Connect()
}

// ReadInto fills buf from holding registers, splitting long reads into
// chunks. Each register supplies two bytes, least-significant first; an
// odd trailing byte is not transferred.
func (p *ModbusProto) ReadInto(addr int, buf []byte) error {
	if p.client == nil {
		if err := p.Reconnect(); err != nil {
			return err
		}
	}
	reg, err := p.convertAddr(addr, len(buf))
	if err != nil {
		return err
	}

	span := len(buf) &^ 1
	for start := 0; start < span; start += mbChunkSize {
		end := min(start+mbChunkSize, span)
		regs, err := p.client.ReadRegisters(reg+uint16(start/2), uint16((end-start)/2), modbus.HOLDING_REGISTER)
		if err != nil {
			p.Disconnect()
			return wrap("read", err)
		}
		for i, r := range regs {
			buf[start+2*i] = byte(r)
			buf[start+2*i+1] = byte(r >> 8)
		}
	}
	return nil
}

// Write packs byte pairs into registers least-significant first and
// issues a single multi-register write.
func (p *ModbusProto) Write(addr int, buf []byte) error {
	if p.client == nil {
		if err := p.Reconnect(); err != nil {
			return err
		}
	}
	reg, err := p.convertAddr(addr, len(buf))
	if err != nil {
		return err
	}

	regs := make([]uint16, len(buf)/2)
	for i := range regs {
		regs[i] = uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
	}
	if err := p.client.WriteRegisters(reg, regs); err != nil {
		p.Disconnect()
		return wrap("write", err)
	}
	return nil
}

// Offsets returns the generation probe offsets.
func (p *ModbusProto) Offsets() []int {
	return []int{0, 0x6000, 0x8000}
}

// SetOffset installs the base offset added to every address.
func (p *ModbusProto) SetOffset(offset int) {
	p.offset = offset
}

// convertAddr translates a byte address into a register index, checking
// that the whole span fits the 16-bit register space.
func (p *ModbusProto) convertAddr(addr, length int) (uint16, error) {
	first := p.offset + addr
	if first < 0 || first/2 > 0xFFFF {
		return 0, AddressRangeError{Addr: addr}
	}
	if length > 0 && (first+length-1)/2 > 0xFFFF {
		return 0, AddressRangeError{Addr: addr}
	}
	return uint16(first / 2), nil
}
