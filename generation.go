package zapf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Generation classifies the firmware generation of a PLC, derived from
// the float32 signature the firmware embeds at a known offset.
type Generation int

const (
	GenerationUnknown Generation = iota
	Generation2015_02
	Generation2021_09
)

func (g Generation) String() string {
	switch g {
	case Generation2015_02:
		return "2015.02"
	case Generation2021_09:
		return "2021.09"
	}
	return "unknown"
}

// DetectGeneration probes the backend's candidate offsets in order and
// classifies the first signature found. A signature inside the
// recognized window but outside every supported sub-range is terminal;
// probing does not continue past it.
func DetectGeneration(p Protocol) (Generation, error) {
	buf := make([]byte, 4)
	for _, offset := range p.Offsets() {
		if err := p.ReadInto(offset, buf); err != nil {
			continue
		}
		magic := math.Float32frombits(binary.LittleEndian.Uint32(buf))
		if magic < 2015 || magic > 2045 {
			continue
		}
		switch {
		case magic >= 2015.01 && magic <= 2015.03:
			return Generation2015_02, nil
		case magic >= 2021.08 && magic <= 2021.10:
			return Generation2021_09, nil
		}
		return GenerationUnknown, PLCError{Message: fmt.Sprintf("magic %v not supported", magic)}
	}
	return GenerationUnknown, PLCError{Message: "no supported magic or offset found"}
}

// Device couples a backend with the firmware generation detected once
// at construction.
type Device struct {
	proto Protocol
	gen   Generation
}

// NewDevice connects the backend and runs generation detection.
func NewDevice(p Protocol) (*Device, error) {
	if err := p.Connect(); err != nil {
		return nil, err
	}
	gen, err := DetectGeneration(p)
	if err != nil {
		return nil, err
	}
	return &Device{proto: p, gen: gen}, nil
}

// Generation returns the detected firmware generation.
func (d *Device) Generation() Generation {
	return d.gen
}

// Proto returns the underlying backend.
func (d *Device) Proto() Protocol {
	return d.proto
}

// ReadInto reads from the backend's process image.
func (d *Device) ReadInto(addr int, buf []byte) error {
	return d.proto.ReadInto(addr, buf)
}

// Write stores buf to the backend's process image.
func (d *Device) Write(addr int, buf []byte) error {
	return d.proto.Write(addr, buf)
}
