package wire

import (
	"bytes"
	"errors"
	"fmt"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

func seq(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

// sampleMessages returns a populated message for every command with a tag.
func sampleMessages() map[command.ID]command.Message {
	var sha, initial, final command.SHA256
	copy(sha[:], seq(32, 0x10))
	copy(initial[:], seq(32, 0x40))
	copy(final[:], seq(32, 0x80))
	var otaID command.OtaID
	copy(otaID[:], seq(16, 0xa0))
	var uhwid command.HardwareID
	copy(uhwid[:], "0123456789abcdef0123456789abcdef")

	wifi := &command.ProvisioningListWifiNetworks{}
	_ = wifi.Add("home", -41)
	_ = wifi.Add("office-5g", -67)

	return map[command.ID]command.Message{
		command.DeviceBeginCmdID:      &command.DeviceBegin{LibVersion: "2.0.2"},
		command.ThingBeginCmdID:       &command.ThingBegin{ThingID: "5a0e2d7c-5d1a-4a8f-9f3a-1b2c3d4e5f60"},
		command.ThingUpdateCmdID:      &command.ThingUpdate{ThingID: "thing-1"},
		command.ThingDetachCmdID:      &command.ThingDetach{ThingID: "thing-2"},
		command.LastValuesBeginCmdID:  &command.LastValuesBegin{},
		command.LastValuesUpdateCmdID: &command.LastValuesUpdate{LastValues: command.Payload{0x9f, 0x01, 0xff}},
		command.OtaBeginUpID:          &command.OtaBeginUp{SHA: sha},
		command.OtaProgressCmdUpID: &command.OtaProgressUp{
			OtaID: otaID, State: 3, StateData: -12, Time: 1_700_000_000_123,
		},
		command.OtaUpdateCmdDownID: &command.OtaUpdateDown{
			OtaID: otaID, URL: "https://ota.example.com/fw.bin", InitialSHA256: initial, FinalSHA256: final,
		},
		command.TimezoneCommandUpID:            &command.TimezoneUp{},
		command.TimezoneCommandDownID:          &command.TimezoneDown{Offset: -18000, Until: 1_710_000_000},
		command.ProvisioningStatusID:           &command.ProvisioningStatus{Status: -3},
		command.ProvisioningListWifiNetworksID: wifi,
		command.ProvisioningUniqueHardwareIDID: &command.ProvisioningUniqueHardwareID{UniqueHardwareID: uhwid},
		command.ProvisioningJWTID:              &command.ProvisioningJWT{JWT: command.Token("eyJhbGciOiJFUzI1NiJ9.e30.sig")},
		command.ProvisioningTimestampID:        &command.ProvisioningTimestamp{Timestamp: 1_712_345_678},
		command.ProvisioningCommandsID:         &command.ProvisioningCommands{Cmd: 2},
		command.ProvisioningWifiConfigID:       &command.ProvisioningWifiConfig{SSID: "home", Pwd: "s3cret"},
		command.ProvisioningLoRaConfigID: &command.ProvisioningLoRaConfig{
			AppEUI: "70B3D57ED0000000", AppKey: "00112233445566778899AABBCCDDEEFF", Band: 5,
			ChannelMask: "ff00000000", DeviceClass: "A",
		},
		command.ProvisioningGSMConfigID: &command.ProvisioningGSMConfig{CellularParams: command.CellularParams{
			PIN: "1234", APN: "internet", Login: "user", Pass: "pass",
		}},
		command.ProvisioningNBIOTConfigID: &command.ProvisioningNBIOTConfig{CellularParams: command.CellularParams{
			APN: "nb.iot",
		}},
		command.ProvisioningCellularConfigID: &command.ProvisioningCellularConfig{CellularParams: command.CellularParams{
			PIN: "0000", APN: "apn", Login: "l", Pass: "p",
		}},
		command.ProvisioningCATM1ConfigID: &command.ProvisioningCATM1Config{
			CellularParams: command.CellularParams{APN: "catm1"},
			Band:           [command.BandSize]uint32{0x80000, 0x4, 0, 0x8000000},
		},
		command.ProvisioningEthernetConfigID: &command.ProvisioningEthernetConfig{
			IP:              command.IPFrom(netip.MustParseAddr("192.168.1.20")),
			DNS:             command.IPFrom(netip.MustParseAddr("2001:4860:4860::8888")),
			Netmask:         command.IPFrom(netip.MustParseAddr("255.255.255.0")),
			Timeout:         15000,
			ResponseTimeout: 4000,
		},
		command.ProvisioningBLEMacAddressID: &command.ProvisioningBLEMacAddress{
			MacAddress: command.MACAddress{0xaa, 0xbb, 0xcc, 0x01, 0x02, 0x03},
		},
	}
}

func TestRoundTripEveryTaggedCommand(t *testing.T) {
	samples := sampleMessages()
	rows := DefaultTagTable().Rows()
	require.Len(t, samples, len(rows), "every tagged command needs a sample")

	for _, row := range rows {
		t.Run(row.ID.String(), func(t *testing.T) {
			msg, ok := samples[row.ID]
			require.True(t, ok, "no sample for %s", row.ID)

			data, err := Marshal(msg)
			require.NoError(t, err)

			tag, _, err := readTagHead(data)
			require.NoError(t, err)
			assert.Equal(t, row.Tag, tag)

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	for id, msg := range sampleMessages() {
		first, err := Marshal(msg)
		require.NoError(t, err, id.String())
		second, err := Marshal(msg)
		require.NoError(t, err, id.String())
		assert.Equal(t, first, second, id.String())
	}
}

func TestEncodeOtaBeginUp(t *testing.T) {
	var sha command.SHA256
	copy(sha[:], seq(32, 1))

	buf := make([]byte, 64)
	n, err := Encode(&command.OtaBeginUp{SHA: sha}, buf)
	require.NoError(t, err)

	// tag(4-byte argument) + array(1) + bytes(32) head + 32 bytes
	want := append([]byte{0xda, 0x00, 0x01, 0x00, 0x00, 0x81, 0x58, 0x20}, sha[:]...)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, buf[:n])
}

func TestEncodeWiFiNetworkList(t *testing.T) {
	var m command.ProvisioningListWifiNetworks
	require.NoError(t, m.Add("alpha", -40))
	require.NoError(t, m.Add("beta", -55))
	require.NoError(t, m.Add("gamma", -90))

	data, err := Marshal(&m)
	require.NoError(t, err)

	// Array head follows the 5-byte tag head.
	assert.Equal(t, byte(0x86), data[5], "declared count must be 2 x 3")

	decoded, err := Decode(data)
	require.NoError(t, err)
	list := decoded.(*command.ProvisioningListWifiNetworks)
	assert.Equal(t, []command.WiFiNetwork{
		{SSID: "alpha", RSSI: -40},
		{SSID: "beta", RSSI: -55},
		{SSID: "gamma", RSSI: -90},
	}, list.List())
}

func TestEncodeEmptyWiFiNetworkList(t *testing.T) {
	data, err := Marshal(&command.ProvisioningListWifiNetworks{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xda, 0x00, 0x01, 0x20, 0x01, 0x80}, data)
}

func TestEncodeZeroMACAddress(t *testing.T) {
	data, err := Marshal(&command.ProvisioningBLEMacAddress{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xda, 0x00, 0x01, 0x20, 0x13, 0x81, 0x40}, data)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, decoded.(*command.ProvisioningBLEMacAddress).MacAddress.IsZero())
}

func TestEncodeZeroIPAddress(t *testing.T) {
	data, err := Marshal(&command.ProvisioningEthernetConfig{})
	require.NoError(t, err)
	// Four empty byte strings and two zero integers.
	assert.Equal(t, []byte{0xda, 0x00, 0x01, 0x20, 0x09, 0x86, 0x40, 0x40, 0x40, 0x40, 0x00, 0x00}, data)
}

func TestEncodeZeroIPv6AddressIsUnset(t *testing.T) {
	// An all-zero address has no family: it is written as an empty field
	// and reads back as the zero IPAddress.
	unset := &command.ProvisioningEthernetConfig{IP: command.IPAddress{Type: command.IPv6}}
	data, err := Marshal(unset)
	require.NoError(t, err)

	zero, err := Marshal(&command.ProvisioningEthernetConfig{})
	require.NoError(t, err)
	assert.Equal(t, zero, data)

	decoded, err := Decode(data)
	require.NoError(t, err)
	ip := decoded.(*command.ProvisioningEthernetConfig).IP
	assert.Equal(t, command.IPAddress{}, ip)
	assert.Equal(t, command.IPv4, ip.Type)
	assert.True(t, Equal(unset, decoded))
}

func TestEncodeRejectsOversizedThingID(t *testing.T) {
	m := &command.ThingBegin{ThingID: string(bytes.Repeat([]byte("x"), command.ThingIDSize))}

	buf := make([]byte, 128)
	n, err := Encode(m, buf)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrEncode)
	assert.ErrorIs(t, err, command.ErrCapacityExceeded)
	assert.Equal(t, StatusError, StatusOf(err))
}

func TestEncodeBufferTooSmall(t *testing.T) {
	var sha command.SHA256
	buf := make([]byte, 39)
	_, err := Encode(&command.OtaBeginUp{SHA: sha}, buf)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	assert.ErrorIs(t, err, ErrEncode)
	assert.Equal(t, StatusError, StatusOf(err))

	n, err := Encode(&command.OtaBeginUp{SHA: sha}, make([]byte, 40))
	require.NoError(t, err)
	assert.Equal(t, 40, n)
}

func TestEncodeWritesIntoCallerBuffer(t *testing.T) {
	msg := &command.ThingUpdate{ThingID: "thing-1"}
	want, err := Marshal(msg)
	require.NoError(t, err)

	buf := bytes.Repeat([]byte{0xee}, len(want)+4)
	n, err := Encode(msg, buf)
	require.NoError(t, err)
	assert.Equal(t, want, buf[:n])
	assert.Equal(t, []byte{0xee, 0xee, 0xee, 0xee}, buf[n:], "bytes past the message are untouched")

	short := bytes.Repeat([]byte{0xee}, len(want)-1)
	n, err = Encode(msg, short)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	assert.Contains(t, err.Error(), fmt.Sprintf("ThingUpdate needs %d bytes, have %d", len(want), len(want)-1))
	assert.Equal(t, bytes.Repeat([]byte{0xee}, len(want)-1), short, "nothing is written on failure")
}

func TestEncodeUnsupportedMessage(t *testing.T) {
	local := []command.Message{
		&command.DeviceRegistered{},
		&command.DeviceAttached{},
		&command.DeviceDetached{},
		&command.PropertiesUpdate{},
		&command.Reset{},
		&command.Unknown{},
	}
	for _, msg := range local {
		t.Run(msg.ID().String(), func(t *testing.T) {
			buf := make([]byte, 64)
			n, err := Encode(msg, buf)
			assert.Zero(t, n)
			assert.ErrorIs(t, err, ErrUnsupportedMessage)
			assert.Equal(t, StatusMessageNotSupported, StatusOf(err))
		})
	}
}

func TestEncodeArityMismatch(t *testing.T) {
	enc := NewEncoder(DefaultTagTable())
	broken := defaultRules[command.ThingBeginCmdID]
	broken.arity = func(command.Message) int { return 2 }
	enc.rules = map[command.ID]rule{command.ThingBeginCmdID: broken}

	_, err := enc.Marshal(&command.ThingBegin{ThingID: "t"})
	assert.ErrorIs(t, err, ErrArityMismatch)
	assert.ErrorIs(t, err, ErrEncode)
	assert.Equal(t, StatusError, StatusOf(err))
}

func TestMaxEncodedSize(t *testing.T) {
	var m command.ProvisioningListWifiNetworks
	ssid := string(bytes.Repeat([]byte("s"), command.TextLimit(command.WiFiSSIDSize)))
	for i := 0; i < command.MaxWiFiNetworks; i++ {
		require.NoError(t, m.Add(ssid, -2147483648))
	}

	buf := make([]byte, MaxEncodedSize)
	n, err := Encode(&m, buf)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, MaxEncodedSize)

	for id, msg := range sampleMessages() {
		data, err := Marshal(msg)
		require.NoError(t, err, id.String())
		assert.LessOrEqual(t, len(data), MaxEncodedSize, id.String())
	}
}

func TestEqualAndClone(t *testing.T) {
	a := &command.ThingBegin{ThingID: "a"}
	b := &command.ThingBegin{ThingID: "a"}
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, &command.ThingUpdate{ThingID: "a"}))
	assert.False(t, Equal(a, &command.Reset{}))

	clone, err := Clone(a)
	require.NoError(t, err)
	assert.Equal(t, a, clone)
	assert.NotSame(t, a, clone)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "COMPLETE", StatusComplete.String())
	assert.Equal(t, "MALFORMED_MESSAGE", StatusMalformedMessage.String())
	assert.Equal(t, "UNKNOWN", Status(99).String())
	assert.Equal(t, StatusComplete, StatusOf(nil))
	assert.Equal(t, StatusError, StatusOf(errors.New("io")))
}
