package zapf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdsErrorString(t *testing.T) {
	tests := []struct {
		code uint32
		text string
	}{
		{0x1, "internal error"},
		{0x6, "target port not found - ADS server not started?"},
		{0x7, "target machine not found - missing ADS routes?"},
		{0x706, "invalid data values"},
		{0x710, "symbol not found"},
		{0x745, "timeout has occurred - remote machine not responding?"},
		{0x1000, "internal error in the real-time system"},
		{0x100C, "Intel microcode update missing"},
		{0x0, "unknown error code"},
		{0x4242, "unknown error code"},
		{0xFFFFFFFF, "unknown error code"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.text, adsErrorString(tt.code), "code 0x%x", tt.code)
	}
}

func TestAdsErrorsSorted(t *testing.T) {
	for i := 1; i < len(adsErrors); i++ {
		assert.Less(t, adsErrors[i-1].code, adsErrors[i].code,
			"catalog must stay sorted for binary search, entry %d", i)
	}
}

func TestADSErrorMessage(t *testing.T) {
	err := ADSError{Code: 0x710}
	assert.EqualError(t, err, "ADS error 0x710: symbol not found")

	err = ADSError{Code: 0x4242}
	assert.EqualError(t, err, "ADS error 0x4242: unknown error code")
}
