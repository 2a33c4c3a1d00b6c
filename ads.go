package zapf

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var adsAddrRe = regexp.MustCompile(`^ads://(.+?)/(\d+\.\d+\.\d+\.\d+(\.\d+\.\d+)?):(\d+)$`)

const adsAddrFormat = "ads://host[:port]/amsnetid:amsport"

// AdsProto talks the Beckhoff ADS protocol over a single AMS/TCP stream.
type AdsProto struct {
	host       string
	port       uint16
	udpPort    uint16
	target     netID
	targetPort uint16

	source     netID
	invokeID   uint32
	triedRoute bool
	offset     int

	log  *zap.Logger
	dial func(address string) (net.Conn, error)
	conn net.Conn
}

// NewAdsProto parses an ads:// address. The netid accepts the 4-octet
// short form, which is extended with ".1.1"; the TCP port defaults to
// the standard ADS port.
func NewAdsProto(addr string, opts ...Option) (*AdsProto, error) {
	cfg := newConfig(opts)

	caps := adsAddrRe.FindStringSubmatch(addr)
	if caps == nil {
		return nil, InvalidAddressError{Format: adsAddrFormat}
	}

	host := caps[1]
	port := adsTCPPort
	if i := strings.IndexByte(host, ':'); i >= 0 {
		n, err := strconv.ParseUint(host[i+1:], 10, 16)
		if err != nil {
			return nil, InvalidAddressError{Format: adsAddrFormat}
		}
		host, port = host[:i], uint16(n)
	}

	target, ok := parseNetID(caps[2])
	if !ok {
		return nil, InvalidAddressError{Format: adsAddrFormat}
	}
	amsPort, err := strconv.ParseUint(caps[4], 10, 16)
	if err != nil {
		return nil, InvalidAddressError{Format: adsAddrFormat}
	}

	p := &AdsProto{
		host:       host,
		port:       port,
		udpPort:    adsUDPPort,
		target:     target,
		targetPort: uint16(amsPort),
		log:        cfg.logger,
	}
	p.dial = func(address string) (net.Conn, error) {
		return net.DialTimeout("tcp", address, ConnectTimeout)
	}
	return p, nil
}

func parseNetID(s string) (netID, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 && len(parts) != 6 {
		return netID{}, false
	}
	var n netID
	for i, part := range parts {
		b, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return netID{}, false
		}
		n[i] = byte(b)
	}
	if len(parts) == 4 {
		n[4], n[5] = 1, 1
	}
	return n, true
}

// Connect dials the target and exchanges device info. When the router
// aborts the handshake and no route was provisioned yet, it broadcasts
// an add-route datagram and retries once.
func (p *AdsProto) Connect() error {
	p.Disconnect()
	conn, err := p.dial(net.JoinHostPort(p.host, strconv.Itoa(int(p.port))))
	if err != nil {
		return err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	p.conn = conn
	source, sourceIP := localSource(conn.LocalAddr())
	p.source = source

	info, err := p.deviceInfo()
	if err != nil {
		p.Disconnect()
		if isUnexpectedClose(err) && !p.triedRoute && p.port == adsTCPPort {
			p.log.Warn("connection aborted, trying to set a route...",
				zap.String("host", p.host))
			p.triedRoute = true
			p.setRoute(source, sourceIP)
			time.Sleep(routeSettleDelay)
			return p.Connect()
		}
		return err
	}

	p.log.Info("connected",
		zap.String("device", info.name),
		zap.String("version", strconv.Itoa(int(info.major))+"."+strconv.Itoa(int(info.minor))+"."+strconv.Itoa(int(info.build))))
	return nil
}

// Disconnect drops the TCP stream.
func (p *AdsProto) Disconnect() {
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// Reconnect re-establishes the connection.
func (p *AdsProto) Reconnect() error {
	return p.Connect()
}

// ReadInto fills buf from the merker area at addr.
func (p *AdsProto) ReadInto(addr int, buf []byte) error {
	if p.conn == nil {
		if err := p.Reconnect(); err != nil {
			return err
		}
	}
	offset, err := p.convertAddr(addr)
	if err != nil {
		return err
	}

	var echoed [4]byte
	err = p.communicate(cmdRead, readRequest(indexGroupMemory, offset, uint32(len(buf))), nil, echoed[:], buf)
	if err == nil {
		if n := binary.LittleEndian.Uint32(echoed[:]); int64(n) != int64(len(buf)) {
			err = FrameError{Reason: "short read from device"}
		}
	}
	if err != nil {
		p.Disconnect()
		return wrap("read", err)
	}
	return nil
}

// Write stores buf to the merker area at addr.
func (p *AdsProto) Write(addr int, buf []byte) error {
	if p.conn == nil {
		if err := p.Reconnect(); err != nil {
			return err
		}
	}
	offset, err := p.convertAddr(addr)
	if err != nil {
		return err
	}

	if err := p.communicate(cmdWrite, writeRequest(indexGroupMemory, offset, uint32(len(buf))), buf); err != nil {
		p.Disconnect()
		return wrap("write", err)
	}
	return nil
}

// Offsets returns the generation probe offsets.
func (p *AdsProto) Offsets() []int {
	return []int{0}
}

// SetOffset installs the base offset added to every address.
func (p *AdsProto) SetOffset(offset int) {
	p.offset = offset
}

func (p *AdsProto) convertAddr(addr int) (uint32, error) {
	sum := p.offset + addr
	if sum < 0 || uint64(sum) > math.MaxUint32 {
		return 0, AddressRangeError{Addr: addr}
	}
	return uint32(sum), nil
}

func (p *AdsProto) deviceInfo() (deviceInfo, error) {
	var raw [deviceInfoSize]byte
	if err := p.communicate(cmdDeviceInfo, nil, nil, raw[:]); err != nil {
		return deviceInfo{}, err
	}
	return parseDeviceInfo(raw[:]), nil
}

// communicate performs one request/reply cycle: it sends the command
// frame, reads the fixed-size reply head and validates state flags,
// data length, error code, invoke id and result code, in that order.
// Only then are the variable-length output buffers filled exactly.
func (p *AdsProto) communicate(cmd uint16, request, extra []byte, out ...[]byte) error {
	p.invokeID++
	header := amsHeader{
		target:     p.target,
		targetPort: p.targetPort,
		source:     p.source,
		sourcePort: amsSourcePort,
		command:    cmd,
		stateFlags: stateFlagsRequest,
		length:     uint32(len(request) + len(extra)),
		invokeID:   p.invokeID,
	}

	p.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if _, err := p.conn.Write(encodeFrame(header, request, extra)); err != nil {
		return err
	}

	expected := amsResultSize
	for _, b := range out {
		expected += len(b)
	}

	reply := make([]byte, amsReplySize)
	p.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	if _, err := io.ReadFull(p.conn, reply); err != nil {
		return err
	}

	rh := decodeAMSHeader(reply[amsTCPHeaderSize : amsTCPHeaderSize+amsHeaderSize])
	result := binary.LittleEndian.Uint32(reply[amsTCPHeaderSize+amsHeaderSize:])

	if rh.stateFlags != stateFlagsResponse {
		return FrameError{Reason: "unexpected state flags in reply"}
	}
	if rh.length != uint32(expected) {
		return FrameError{Reason: "unexpected data length in reply"}
	}
	if rh.errorCode != 0 {
		return ADSError{Code: rh.errorCode}
	}
	if rh.invokeID != header.invokeID {
		return FrameError{Reason: "invoke ID mismatch in reply"}
	}
	if result != 0 {
		return ADSError{Code: result}
	}

	for _, b := range out {
		p.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
		if _, err := io.ReadFull(p.conn, b); err != nil {
			return err
		}
	}
	return nil
}

// localSource derives the client AMS netid from the connection's local
// IPv4 address, extended with ".1.1" as routers expect.
func localSource(addr net.Addr) (netID, string) {
	var ip net.IP
	if a, ok := addr.(*net.TCPAddr); ok {
		ip = a.IP.To4()
	}
	if ip == nil {
		ip = net.IPv4(127, 0, 0, 1).To4()
	}
	var n netID
	copy(n[:4], ip)
	n[4], n[5] = 1, 1
	return n, ip.String()
}

// isUnexpectedClose reports the handshake failure signature of a missing
// route: the router accepts the TCP connection and then drops it.
func isUnexpectedClose(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
