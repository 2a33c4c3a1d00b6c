package zapf

import "sort"

type adsErrorEntry struct {
	code uint32
	text string
}

// Vendor error catalog, sorted by code. Covers the general AMS, router,
// device, client and real-time-system ranges. Used only to enrich error
// messages; control flow never branches on a description.
var adsErrors = []adsErrorEntry{
	{0x1, "internal error"},
	{0x2, "no real-time"},
	{0x3, "allocation locked - memory error"},
	{0x4, "mailbox full - ADS message could not be sent"},
	{0x5, "wrong receive HMSG"},
	{0x6, "target port not found - ADS server not started?"},
	{0x7, "target machine not found - missing ADS routes?"},
	{0x8, "unknown command ID"},
	{0x9, "invalid task ID"},
	{0xA, "no IO"},
	{0xB, "unknown AMS command"},
	{0xC, "Win32 error"},
	{0xD, "port not connected"},
	{0xE, "invalid AMS length"},
	{0xF, "invalid AMS NetID"},
	{0x10, "installation level is too low"},
	{0x11, "no debugging available"},
	{0x12, "port disabled - system service not started?"},
	{0x13, "port already connected"},
	{0x14, "AMS Sync Win32 error"},
	{0x15, "AMS Sync timeout"},
	{0x16, "AMS Sync error"},
	{0x17, "AMS Sync no index map"},
	{0x18, "invalid AMS port"},
	{0x19, "no memory"},
	{0x1A, "TCP send error"},
	{0x1B, "host unreachable"},
	{0x1C, "invalid AMS fragment"},
	{0x1D, "TLS send error - secure ADS connection failed"},
	{0x1E, "access denied - secure ADS access denied"},

	{0x500, "locked memory cannot be allocated"},
	{0x501, "the router memory size could not be changed"},
	{0x502, "the mailbox has reached the maximum number of possible messages"},
	{0x503, "the debug mailbox has reached the maximum number of possible messages"},
	{0x504, "the port type is unknown"},
	{0x505, "the router is not initialized"},
	{0x506, "the port number is already assigned"},
	{0x507, "the port is not registered"},
	{0x508, "the maximum number of ports has been reached"},
	{0x509, "the port is invalid"},
	{0x50A, "the router is not active"},
	{0x50B, "the mailbox has reached the maximum number of fragmented messages"},
	{0x50C, "a fragment timeout has occurred"},
	{0x50D, "the port is removed"},

	{0x700, "general device error"},
	{0x701, "service is not supported by the server"},
	{0x702, "invalid index group"},
	{0x703, "invalid index offset"},
	{0x704, "reading or writing not permitted"},
	{0x705, "parameter size not correct"},
	{0x706, "invalid data values"},
	{0x707, "device is not ready to operate"},
	{0x708, "device is busy"},
	{0x709, "invalid operating system context"},
	{0x70A, "insufficient memory"},
	{0x70B, "invalid parameter values"},
	{0x70C, "not found (files, ...)"},
	{0x70D, "syntax error in file or command"},
	{0x70E, "objects do not match"},
	{0x70F, "object already exists"},
	{0x710, "symbol not found"},
	{0x711, "invalid symbol version"},
	{0x712, "device is in invalid state"},
	{0x713, "AdsTransMode not supported"},
	{0x714, "notification handle is invalid"},
	{0x715, "notification client not registered"},
	{0x716, "no further notification handle"},
	{0x717, "notification size too large"},
	{0x718, "device not initialized"},
	{0x719, "device has a timeout"},
	{0x71A, "interface query failed"},
	{0x71B, "wrong interface requested"},
	{0x71C, "class ID is invalid"},
	{0x71D, "object ID is invalid"},
	{0x71E, "request pending"},
	{0x71F, "request is aborted"},
	{0x720, "signal warning"},
	{0x721, "invalid array index"},
	{0x722, "symbol not active"},
	{0x723, "access denied"},
	{0x724, "missing license"},
	{0x72C, "exception occurred during system start"},

	{0x740, "client error"},
	{0x741, "service contains an invalid parameter"},
	{0x742, "polling list is empty"},
	{0x743, "var connection already in use"},
	{0x744, "the invoke ID is already in use"},
	{0x745, "timeout has occurred - remote machine not responding?"},
	{0x746, "error in Win32 subsystem"},
	{0x747, "invalid client timeout value"},
	{0x748, "port not open"},
	{0x749, "no AMS address"},
	{0x750, "internal error in ADS sync"},
	{0x751, "hash table overflow"},
	{0x752, "key not found in the table"},
	{0x753, "no symbols in the cache"},
	{0x754, "invalid response received"},
	{0x755, "sync port is locked"},

	{0x1000, "internal error in the real-time system"},
	{0x1001, "timer value is not valid"},
	{0x1002, "task pointer has the invalid value 0"},
	{0x1003, "stack pointer has the invalid value 0"},
	{0x1004, "the requested task priority is already assigned"},
	{0x1005, "no free TCB block"},
	{0x1006, "no free semaphores"},
	{0x1007, "no free space in the queue"},
	{0x1008, "an external sync interrupt is already applied"},
	{0x1009, "no external sync interrupt applied"},
	{0x100A, "application of the external sync interrupt failed"},
	{0x100B, "call of a service function in the wrong context"},
	{0x100C, "Intel microcode update missing"},
}

// adsErrorString resolves a vendor error code via binary search over the
// sorted catalog.
func adsErrorString(code uint32) string {
	i := sort.Search(len(adsErrors), func(i int) bool {
		return adsErrors[i].code >= code
	})
	if i < len(adsErrors) && adsErrors[i].code == code {
		return adsErrors[i].text
	}
	return "unknown error code"
}
