package command

import (
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoversEveryID(t *testing.T) {
	for _, id := range AllIDs() {
		t.Run(id.String(), func(t *testing.T) {
			msg, err := New(id)
			require.NoError(t, err)
			assert.Equal(t, id, msg.ID(), "factory returned the wrong variant")
		})
	}
}

func TestNewRejectsInvalidID(t *testing.T) {
	_, err := New(ID(9999))
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("otaupdatedown")
	require.NoError(t, err)
	assert.Equal(t, OtaUpdateCmdDownID, id)

	for _, want := range AllIDs() {
		got, err := ParseID(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseID("NoSuchCommand")
	assert.Error(t, err)
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "ThingBegin", ThingBeginCmdID.String())
	assert.Equal(t, "ID(4242)", ID(4242).String())
	assert.True(t, ProvisioningJWTID.IsProvisioning())
	assert.False(t, OtaBeginUpID.IsProvisioning())
}

func TestThingIDCapacity(t *testing.T) {
	// 36 bytes is a UUID, the longest accepted thing id.
	ok := strings.Repeat("a", TextLimit(ThingIDSize))
	_, err := NewThingBegin(ok)
	assert.NoError(t, err)

	_, err = NewThingBegin(ok + "b")
	assert.True(t, errors.Is(err, ErrCapacityExceeded), "got %v", err)

	_, err = NewThingUpdate(ok + "b")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = NewThingDetach(ok + "b")
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestTextValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr error
	}{
		{"lib version fits", &DeviceBegin{LibVersion: "2.0.2"}, nil},
		{"lib version too long", &DeviceBegin{LibVersion: "1234567890"}, ErrCapacityExceeded},
		{"nul in text", &ThingBegin{ThingID: "abc\x00def"}, ErrInvalidField},
		{"invalid utf8", &ProvisioningWifiConfig{SSID: "\xff\xfe"}, ErrInvalidField},
		{"pwd too long", &ProvisioningWifiConfig{SSID: "home", Pwd: strings.Repeat("p", WiFiPwdSize)}, ErrCapacityExceeded},
		{"apn too long", &ProvisioningCellularConfig{CellularParams{APN: strings.Repeat("a", APNSize)}}, ErrCapacityExceeded},
		{"pin fits", &ProvisioningGSMConfig{CellularParams{PIN: "12345678"}}, nil},
		{"pin too long", &ProvisioningNBIOTConfig{CellularParams{PIN: "123456789"}}, ErrCapacityExceeded},
		{"catm1 login too long", &ProvisioningCATM1Config{CellularParams: CellularParams{Login: strings.Repeat("l", LoginSize)}}, ErrCapacityExceeded},
		{"lora device class", &ProvisioningLoRaConfig{DeviceClass: "AB"}, ErrCapacityExceeded},
		{"url fits", &OtaUpdateDown{URL: strings.Repeat("u", URLSize-1)}, nil},
		{"url too long", &OtaUpdateDown{URL: strings.Repeat("u", URLSize)}, ErrCapacityExceeded},
		{"jwt fits", &ProvisioningJWT{JWT: make(Token, ProvisioningJWTSize)}, nil},
		{"jwt too long", &ProvisioningJWT{JWT: make(Token, ProvisioningJWTSize+1)}, ErrCapacityExceeded},
		{"reserved ota state", &OtaProgressUp{State: 24}, ErrInvalidField},
		{"ota state 32", &OtaProgressUp{State: 32}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWiFiNetworkList(t *testing.T) {
	var m ProvisioningListWifiNetworks
	for i := 0; i < MaxWiFiNetworks; i++ {
		require.NoError(t, m.Add("net", int32(-40-i)))
	}
	assert.Len(t, m.List(), MaxWiFiNetworks)

	err := m.Add("one-too-many", -90)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, uint8(MaxWiFiNetworks), m.Count)

	err = m.Add(strings.Repeat("s", WiFiSSIDSize), -50)
	assert.Error(t, err)

	m.Count = MaxWiFiNetworks + 1
	assert.ErrorIs(t, m.Validate(), ErrCapacityExceeded)
	assert.Len(t, m.List(), MaxWiFiNetworks, "List must never index past storage")
}

func TestWiFiNetworkSetList(t *testing.T) {
	var m ProvisioningListWifiNetworks
	require.NoError(t, m.SetList([]WiFiNetwork{{SSID: "a", RSSI: -1}, {SSID: "b", RSSI: -2}}))
	assert.Equal(t, []WiFiNetwork{{SSID: "a", RSSI: -1}, {SSID: "b", RSSI: -2}}, m.List())

	too := make([]WiFiNetwork, MaxWiFiNetworks+1)
	assert.Error(t, m.SetList(too))
	assert.Len(t, m.List(), 2, "failed SetList must not modify the message")
}

func TestIPAddress(t *testing.T) {
	v4 := IPFrom(netip.MustParseAddr("192.168.1.10"))
	assert.Equal(t, IPv4, v4.Type)
	assert.Equal(t, []byte{192, 168, 1, 10}, v4.Bytes())

	text, err := v4.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", string(text))

	var v6 IPAddress
	require.NoError(t, v6.UnmarshalText([]byte("fe80::1")))
	assert.Equal(t, IPv6, v6.Type)
	assert.Len(t, v6.Bytes(), MaxIPSize)

	var unspecified IPAddress
	require.NoError(t, unspecified.UnmarshalText([]byte("::")))
	assert.Equal(t, IPAddress{}, unspecified)
	text, err = IPAddress{Type: IPv6}.MarshalText()
	require.NoError(t, err)
	assert.Empty(t, text)

	var zero IPAddress
	text, err = zero.MarshalText()
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.True(t, zero.IsZero())

	bad := IPAddress{Type: IPv4}
	bad.Addr[10] = 1
	cfg := &ProvisioningEthernetConfig{IP: bad}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidField)
}

func TestHexFieldText(t *testing.T) {
	var sha SHA256
	for i := range sha {
		sha[i] = byte(i)
	}
	text, err := sha.MarshalText()
	require.NoError(t, err)

	var back SHA256
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, sha, back)

	assert.Error(t, back.UnmarshalText([]byte("abcd")))

	var mac MACAddress
	require.NoError(t, mac.UnmarshalText([]byte("aa:bb:cc:dd:ee:ff")))
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", mac.String())
	assert.False(t, mac.IsZero())
	assert.True(t, MACAddress{}.IsZero())
}
