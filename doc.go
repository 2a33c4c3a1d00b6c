/*
Package zapf reads and writes memory-mapped process variables on
industrial PLCs over heterogeneous field protocols through one uniform,
byte-addressed interface.

Backends are constructed from a textual address and implement the
Protocol interface:

  - ads://host[:port]/amsnetid:amsport — a from-scratch Beckhoff
    ADS/AMS client over TCP, including one-shot UDP route provisioning
    when the target router has no route for this client yet.
  - modbus://host[:port][/slave] — holding registers behind a
    Modbus/TCP client, two bytes per register, LSB first.
  - tango://[database:port/]domain/family/member — reads and writes
    forwarded as remote commands on an injected device proxy.

# Quick Start

	proto, err := zapf.NewProtocol("ads://192.168.1.5/5.53.35.202:851")
	if err != nil {
		log.Fatal(err)
	}
	dev, err := zapf.NewDevice(proto)
	if err != nil {
		log.Fatal(err)
	}
	defer proto.Disconnect()

	log.Printf("firmware generation %s", dev.Generation())

	data, err := zapf.Read(proto, 0x100, 4)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("data: %v", data)

All operations are synchronous and bounded by fixed one-second
timeouts. A backend owns a single transport handle, reconnects lazily
on the next operation after a failure, and disconnects itself before
surfacing a transport error. A backend instance is not safe for
concurrent use.

# Error Handling

The package returns typed errors:

  - InvalidAddressError - malformed protocol address
  - AddressRangeError - variable address outside the backend's range
  - ADSError - non-zero result code from an ADS device, with the
    vendor error text
  - FrameError - reply that violates the ADS wire protocol
  - ProxyError - Tango proxy misuse or interface mismatch
  - PLCError - device-level failures such as an unsupported firmware

Transport-level failures are wrapped in a WrappedError naming the
operation that failed; errors.Unwrap recovers the cause.

# Logging

Backends are silent by default. Pass WithLogger to get zap-structured
connect and route-provisioning logs:

	logger, _ := zap.NewProduction()
	proto, err := zapf.NewProtocol(addr, zapf.WithLogger(logger))
*/
package zapf
