package zapf

import (
	"encoding/binary"
	"net"
	"strconv"
	"time"
)

// Beckhoff UDP route-provisioning protocol. A single datagram asks the
// target's AMS router to add a route for our netid; without that route
// the router drops the TCP connection during the handshake.
const (
	routeMagic     uint32 = 0x71146603
	routeAddRoute  uint32 = 6
	routeAdminUser        = "Administrator"

	// AMS port advertised in the datagram itself, not related to the
	// TCP source port.
	routeAMSPort uint16 = 10000

	routeTagStatus    uint16 = 1
	routeTagPassword  uint16 = 2
	routeTagHost      uint16 = 5
	routeTagNetID     uint16 = 7
	routeTagRouteName uint16 = 12
	routeTagUserName  uint16 = 13

	routeSettleDelay  = 500 * time.Millisecond
	routeReplyTimeout = 500 * time.Millisecond
)

// routeDatagram builds an add-route request: magic, service id, source
// AMS address and five tagged items. Strings are NUL-terminated on the
// wire.
func routeDatagram(source netID, host, routeName, user, password string) []byte {
	buf := make([]byte, 0, 128)
	buf = binary.LittleEndian.AppendUint32(buf, routeMagic)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, routeAddRoute)
	buf = append(buf, source[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, routeAMSPort)
	buf = binary.LittleEndian.AppendUint32(buf, 5)

	buf = appendRouteString(buf, routeTagRouteName, routeName)
	buf = appendRouteItem(buf, routeTagNetID, source[:])
	buf = appendRouteString(buf, routeTagUserName, user)
	buf = appendRouteString(buf, routeTagPassword, password)
	buf = appendRouteString(buf, routeTagHost, host)
	return buf
}

func appendRouteItem(buf []byte, tag uint16, data []byte) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, tag)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(data)))
	return append(buf, data...)
}

func appendRouteString(buf []byte, tag uint16, s string) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, tag)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)+1))
	buf = append(buf, s...)
	return append(buf, 0)
}

// routeAckOK reports whether a reply datagram carries a zero status
// item.
func routeAckOK(b []byte) bool {
	if len(b) < 24 || binary.LittleEndian.Uint32(b[0:4]) != routeMagic {
		return false
	}
	items := binary.LittleEndian.Uint32(b[20:24])
	off := 24
	for i := uint32(0); i < items; i++ {
		if off+4 > len(b) {
			return false
		}
		tag := binary.LittleEndian.Uint16(b[off : off+2])
		size := int(binary.LittleEndian.Uint16(b[off+2 : off+4]))
		off += 4
		if off+size > len(b) {
			return false
		}
		if tag == routeTagStatus && size >= 4 {
			return binary.LittleEndian.Uint32(b[off:off+4]) == 0
		}
		off += size
	}
	return false
}

// setRoute provisions a route on the target host, trying an empty
// password first and "1" second. Best-effort: all failures are
// swallowed, the subsequent connect retry decides whether it worked.
func (p *AdsProto) setRoute(source netID, sourceIP string) {
	conn, err := net.Dial("udp", net.JoinHostPort(p.host, strconv.Itoa(int(p.udpPort))))
	if err != nil {
		return
	}
	defer conn.Close()

	routeName := "zapf-" + sourceIP
	reply := make([]byte, 512)
	for _, password := range []string{"", "1"} {
		if _, err := conn.Write(routeDatagram(source, sourceIP, routeName, routeAdminUser, password)); err != nil {
			continue
		}
		conn.SetReadDeadline(time.Now().Add(routeReplyTimeout))
		n, err := conn.Read(reply)
		if err != nil {
			continue
		}
		if routeAckOK(reply[:n]) {
			return
		}
	}
}
