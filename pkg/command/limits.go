package command

// Field capacities. Text capacities include the terminator byte used by
// the firmware, so the longest accepted text is one byte shorter.
const (
	ThingIDSize          = 37
	SHA256Size           = 32
	URLSize              = 256
	IDSize               = 16
	MaxLibVersionSize    = 10
	UHWIDSize            = 32
	ProvisioningJWTSize  = 246
	WiFiSSIDSize         = 33 // 32 + terminator
	WiFiPwdSize          = 64 // 63 + terminator
	LoRaAppEUISize       = 17 // 8 octets as hex + terminator
	LoRaAppKeySize       = 33 // 16 octets as hex + terminator
	LoRaChannelMaskSize  = 13
	LoRaDeviceClassSize  = 2
	PINSize              = 9   // 8 digits + terminator
	APNSize              = 101 // 100 + terminator
	LoginSize            = 65
	PassSize             = 65
	BandSize             = 4
	MaxWiFiNetworks      = 20
	MaxIPSize            = 16
	BLEMacAddressSize    = 6
	IPv4Size             = 4
	maxReservedSimpleVal = 31
	minReservedSimpleVal = 24
)

// TextLimit returns the longest text content accepted by a field of the
// given capacity.
func TextLimit(capacity int) int {
	return capacity - 1
}
