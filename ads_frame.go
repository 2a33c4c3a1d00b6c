package zapf

import (
	"encoding/binary"
	"fmt"
)

// ADS/AMS frame structure constants. All multi-byte fields on the wire
// are little-endian and packed with no padding.
const (
	amsTCPHeaderSize = 6  // reserved(2) + length(4)
	amsHeaderSize    = 32 // netids, ports, command, flags, length, error, invoke id
	amsResultSize    = 4  // leading result code of every reply payload
	amsReplySize     = amsTCPHeaderSize + amsHeaderSize + amsResultSize

	adsTCPPort    uint16 = 0xBF02 // default ADS TCP port
	adsUDPPort    uint16 = 0xBF03 // fixed UDP route-provisioning port
	amsSourcePort uint16 = 58913  // fixed client AMS port

	cmdDeviceInfo uint16 = 1
	cmdRead       uint16 = 2
	cmdWrite      uint16 = 3

	stateFlagsRequest  uint16 = 4
	stateFlagsResponse uint16 = 5

	// Index group of the process-image merker area (%MB), the memory
	// region all byte addresses refer to.
	indexGroupMemory uint32 = 0x4020

	deviceInfoSize = 20 // major(1) + minor(1) + build(2) + name(16)
	readRequestLen = 12 // group(4) + offset(4) + length(4)
)

// netID is a 6-byte AMS network identifier.
type netID [6]byte

func (n netID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d.%d.%d", n[0], n[1], n[2], n[3], n[4], n[5])
}

// amsHeader is the 32-byte AMS header following the 6-byte AMS/TCP
// header.
type amsHeader struct {
	target     netID
	targetPort uint16
	source     netID
	sourcePort uint16
	command    uint16
	stateFlags uint16
	length     uint32
	errorCode  uint32
	invokeID   uint32
}

// encodeFrame builds a complete AMS/TCP frame: the 6-byte TCP header,
// the 32-byte AMS header and the concatenated payloads. The TCP length
// field counts the AMS header plus payloads; h.length must already hold
// the payload length alone.
func encodeFrame(h amsHeader, payloads ...[]byte) []byte {
	total := 0
	for _, p := range payloads {
		total += len(p)
	}

	buf := make([]byte, amsTCPHeaderSize+amsHeaderSize, amsTCPHeaderSize+amsHeaderSize+total)
	binary.LittleEndian.PutUint16(buf[0:2], 0) // reserved
	binary.LittleEndian.PutUint32(buf[2:6], uint32(amsHeaderSize+total))

	copy(buf[6:12], h.target[:])
	binary.LittleEndian.PutUint16(buf[12:14], h.targetPort)
	copy(buf[14:20], h.source[:])
	binary.LittleEndian.PutUint16(buf[20:22], h.sourcePort)
	binary.LittleEndian.PutUint16(buf[22:24], h.command)
	binary.LittleEndian.PutUint16(buf[24:26], h.stateFlags)
	binary.LittleEndian.PutUint32(buf[26:30], h.length)
	binary.LittleEndian.PutUint32(buf[30:34], h.errorCode)
	binary.LittleEndian.PutUint32(buf[34:38], h.invokeID)

	for _, p := range payloads {
		buf = append(buf, p...)
	}
	return buf
}

// decodeAMSHeader decodes the 32-byte AMS header; the caller strips the
// AMS/TCP header first.
func decodeAMSHeader(b []byte) amsHeader {
	var h amsHeader
	copy(h.target[:], b[0:6])
	h.targetPort = binary.LittleEndian.Uint16(b[6:8])
	copy(h.source[:], b[8:14])
	h.sourcePort = binary.LittleEndian.Uint16(b[14:16])
	h.command = binary.LittleEndian.Uint16(b[16:18])
	h.stateFlags = binary.LittleEndian.Uint16(b[18:20])
	h.length = binary.LittleEndian.Uint32(b[20:24])
	h.errorCode = binary.LittleEndian.Uint32(b[24:28])
	h.invokeID = binary.LittleEndian.Uint32(b[28:32])
	return h
}

// readRequest builds the payload of a read command: index group, byte
// offset and requested length.
func readRequest(group, offset, length uint32) []byte {
	buf := make([]byte, readRequestLen)
	binary.LittleEndian.PutUint32(buf[0:4], group)
	binary.LittleEndian.PutUint32(buf[4:8], offset)
	binary.LittleEndian.PutUint32(buf[8:12], length)
	return buf
}

// writeRequest builds the fixed part of a write command; the data bytes
// follow as a second payload.
func writeRequest(group, offset, length uint32) []byte {
	return readRequest(group, offset, length)
}

// deviceInfo is the decoded payload of a device-info reply.
type deviceInfo struct {
	major uint8
	minor uint8
	build uint16
	name  string
}

func parseDeviceInfo(b []byte) deviceInfo {
	info := deviceInfo{
		major: b[0],
		minor: b[1],
		build: binary.LittleEndian.Uint16(b[2:4]),
	}
	name := b[4:20]
	for i, c := range name {
		if c == 0 {
			name = name[:i]
			break
		}
	}
	info.name = string(name)
	return info
}
