package zapf

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProto is an in-memory backend exposing magic floats at chosen
// probe offsets.
type fakeProto struct {
	offsets []int
	magics  map[int]float32
	probed  []int
	offset  int
}

func (f *fakeProto) Connect() error   { return nil }
func (f *fakeProto) Disconnect()      {}
func (f *fakeProto) Reconnect() error { return nil }
func (f *fakeProto) Offsets() []int   { return f.offsets }

func (f *fakeProto) SetOffset(offset int) { f.offset = offset }

func (f *fakeProto) ReadInto(addr int, buf []byte) error {
	f.probed = append(f.probed, addr)
	magic, ok := f.magics[addr]
	if !ok {
		return errors.New("read failed")
	}
	binary.LittleEndian.PutUint32(buf, math.Float32bits(magic))
	return nil
}

func (f *fakeProto) Write(addr int, buf []byte) error { return nil }

func TestDetectGeneration(t *testing.T) {
	tests := []struct {
		name   string
		magics map[int]float32
		gen    Generation
		ok     bool
	}{
		{"2015.02 at first offset", map[int]float32{0: 2015.02}, Generation2015_02, true},
		{"2021.09 at first offset", map[int]float32{0: 2021.09}, Generation2021_09, true},
		{"2021.09 at second offset", map[int]float32{0x6000: 2021.09}, Generation2021_09, true},
		{"garbage then match", map[int]float32{0: 1234.5, 0x6000: 2015.02}, Generation2015_02, true},
		{"no offset responds", map[int]float32{}, GenerationUnknown, false},
		{"outside outer range everywhere", map[int]float32{0: 1999, 0x6000: 3000}, GenerationUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProto{offsets: []int{0, 0x6000, 0x8000}, magics: tt.magics}
			gen, err := DetectGeneration(p)
			if !tt.ok {
				var plcErr PLCError
				require.ErrorAs(t, err, &plcErr)
				assert.Contains(t, plcErr.Message, "no supported magic or offset found")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.gen, gen)
		})
	}
}

func TestDetectGenerationUnsupportedIsTerminal(t *testing.T) {
	// A signature inside the recognized window but outside every
	// supported sub-range stops probing immediately, even though a
	// later offset would match.
	p := &fakeProto{
		offsets: []int{0, 0x6000},
		magics:  map[int]float32{0: 2030.0, 0x6000: 2021.09},
	}
	gen, err := DetectGeneration(p)
	var plcErr PLCError
	require.ErrorAs(t, err, &plcErr)
	assert.Contains(t, plcErr.Message, "2030")
	assert.Contains(t, plcErr.Message, "not supported")
	assert.Equal(t, GenerationUnknown, gen)
	assert.Equal(t, []int{0}, p.probed)
}

func TestDetectGenerationSkipsFailedReads(t *testing.T) {
	p := &fakeProto{
		offsets: []int{0, 0x6000, 0x8000},
		magics:  map[int]float32{0x8000: 2015.02},
	}
	gen, err := DetectGeneration(p)
	require.NoError(t, err)
	assert.Equal(t, Generation2015_02, gen)
	assert.Equal(t, []int{0, 0x6000, 0x8000}, p.probed)
}

func TestGenerationString(t *testing.T) {
	assert.Equal(t, "2015.02", Generation2015_02.String())
	assert.Equal(t, "2021.09", Generation2021_09.String())
	assert.Equal(t, "unknown", GenerationUnknown.String())
}

func TestNewDevice(t *testing.T) {
	p := &fakeProto{offsets: []int{0}, magics: map[int]float32{0: 2021.09}}
	dev, err := NewDevice(p)
	require.NoError(t, err)
	assert.Equal(t, Generation2021_09, dev.Generation())
	assert.Same(t, p, dev.Proto())

	buf := make([]byte, 4)
	require.NoError(t, dev.ReadInto(0, buf))
	require.NoError(t, dev.Write(0, buf))
}

func TestNewDeviceDetectionFailure(t *testing.T) {
	p := &fakeProto{offsets: []int{0}, magics: map[int]float32{}}
	_, err := NewDevice(p)
	var plcErr PLCError
	assert.ErrorAs(t, err, &plcErr)
}
