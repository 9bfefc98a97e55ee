// Package command defines the command data model of the cloud protocol.
//
// Every message exchanged between a device and the cloud is one command,
// identified by an ID. Each ID has exactly one concrete Go type implementing
// Message; all variable-length fields are bounded by the capacity constants
// in this package.
//
// # Field Kinds
//
// The wire representation of a field depends on its kind, not on its Go type:
//   - Fixed-length binary (hashes, OTA ids, hardware ids, MAC addresses):
//     exactly the declared number of bytes.
//   - Text (thing id, library version, credentials): the content length of
//     the string. Capacities include the C terminator of the reference
//     firmware, so a field of capacity N carries at most N-1 bytes.
//   - Raw payloads (JWT, last values): opaque bytes, never terminated.
//   - Scalars: CBOR integers or simple values of the declared width.
//   - Repeated groups (discovered Wi-Fi networks): bounded by
//     MaxWiFiNetworks.
//
// # Capacity Policy
//
// Constructors and Validate reject oversize values with ErrCapacityExceeded.
// Nothing in this module truncates silently.
package command
