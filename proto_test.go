package zapf

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewProtocol(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want any
	}{
		{"ads", "ads://192.168.1.5/5.53.35.202:851", &AdsProto{}},
		{"modbus", "modbus://192.168.1.5/2", &ModbusProto{}},
		{"tango", "tango://sys/tg_test/1", &TangoProto{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProtocol(tt.addr)
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}

func TestNewProtocolUnknownScheme(t *testing.T) {
	for _, addr := range []string{"", "s7://192.168.1.5", "192.168.1.5"} {
		_, err := NewProtocol(addr)
		var perr InvalidAddressError
		require.ErrorAs(t, err, &perr, "%q", addr)
		assert.Contains(t, err.Error(), "ads://")
	}
}

func TestNewProtocolPropagatesParseError(t *testing.T) {
	_, err := NewProtocol("ads://hostonly")
	var perr InvalidAddressError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, adsAddrFormat, perr.Format)
}

func TestRead(t *testing.T) {
	p := &fakeProto{offsets: []int{0}, magics: map[int]float32{0: 2021.09}}

	data, err := Read(p, 0, 4)
	require.NoError(t, err)
	assert.Len(t, data, 4)

	_, err = Read(p, 0x100, 4)
	assert.Error(t, err)
}

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	mock := newMockProxy()
	p, err := NewTangoProto("tango://sys/tg_test/1",
		WithLogger(logger),
		WithProxyDialer(func(string) (DeviceProxy, error) { return mock, nil }))
	require.NoError(t, err)

	require.NoError(t, p.Connect())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "connected", entry.Message)
	assert.Equal(t, "tango://sys/tg_test/1", entry.ContextMap()["device"])
}

func TestWrap(t *testing.T) {
	assert.NoError(t, wrap("read", nil))

	cause := errors.New("boom")
	err := wrap("read", cause)
	assert.EqualError(t, err, "during read: boom")
	assert.ErrorIs(t, err, cause)

	err = wrap("write", io.EOF)
	assert.ErrorIs(t, err, io.EOF)
}

func TestErrorMessages(t *testing.T) {
	assert.EqualError(t, InvalidAddressError{Format: "x://y"}, "invalid address, must be x://y")
	assert.EqualError(t, FrameError{Reason: "invoke ID mismatch in reply"}, "protocol mismatch: invoke ID mismatch in reply")
	assert.EqualError(t, AddressRangeError{Addr: 0x20000}, "address 0x20000 out of range for backend")
	assert.EqualError(t, ProxyError{Reason: "device has invalid interface"}, "device proxy error: device has invalid interface")
	assert.EqualError(t, PLCError{Message: "no supported magic or offset found"}, "PLC error: no supported magic or offset found")
}
