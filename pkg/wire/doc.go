// Package wire implements the CBOR wire format of the cloud protocol.
//
// Every message is a CBOR tag (major type 6) whose number identifies the
// command, wrapping a definite-length array with the command's fields:
//
//	tag(0x010000) [ h'<32-byte sha256>' ]      OtaBeginUp
//	tag(0x012001) [ "home", -41, "cafe", -70 ] ProvisioningListWifiNetworks
//
// # Tag Table
//
// TagTable maps command IDs to tag numbers and back. It is plain data built
// by DefaultTagTable; encoders and decoders take it as a parameter, so
// independent codecs never share mutable state.
//
// # Encoding
//
// Encoder.Encode runs four phases: resolve the tag, declare the array
// count, write the fields in declaration order, close the array. The
// declared count must equal the number of fields written; a mismatch is a
// defect in the rule table and reported as ErrArityMismatch.
//
// # Decoding
//
// Decoder.Decode reads the tag head first, so an unknown tag is reported
// without touching the rest of the buffer. Field kinds are checked strictly:
// a text string where a byte string is expected, or an integer that does not
// fit the field width, is ErrMalformedMessage.
//
// # Zero Sentinels
//
// An all-zero BLE MAC address and an unset Ethernet IP address are encoded
// as zero-length byte strings and decode back to the all-zero value.
package wire
