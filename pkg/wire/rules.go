package wire

import (
	"fmt"

	c "github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// MaxEncodedSize bounds the encoded size of every message except
// LastValuesUpdate, whose opaque payload is limited only by the transport
// frame size. The largest bounded message is a full Wi-Fi network list with
// maximal SSIDs and 32-bit RSSI values.
const MaxEncodedSize = 5 + 2 + c.MaxWiFiNetworks*(2+(c.WiFiSSIDSize-1)+5)

// MaxArrayItems is the largest field array count the decoder accepts. It
// allows a Wi-Fi network list of up to 1024 pairs; pairs past
// MaxWiFiNetworks are then ignored.
const MaxArrayItems = 2 * 1024

// rule describes the wire layout of one command type.
type rule struct {
	// arity returns the array count declared for m.
	arity func(m c.Message) int

	// accepts reports whether a decoded array count is valid.
	accepts func(n int) bool

	write func(w *fieldWriter, m c.Message)
	read  func(r *fieldReader, m c.Message)
}

// fixed builds a rule for a type with a constant field count.
func fixed[T c.Message](n int, write func(*fieldWriter, T), read func(*fieldReader, T)) rule {
	return rule{
		arity:   func(c.Message) int { return n },
		accepts: func(got int) bool { return got == n },
		write:   func(w *fieldWriter, m c.Message) { write(w, m.(T)) },
		read:    func(r *fieldReader, m c.Message) { read(r, m.(T)) },
	}
}

// empty builds a rule for a type without fields.
func empty[T c.Message]() rule {
	return fixed(0, func(*fieldWriter, T) {}, func(*fieldReader, T) {})
}

// defaultRules holds the layout of every command with a wire encoding.
var defaultRules = map[c.ID]rule{
	c.OtaBeginUpID: fixed(1,
		func(w *fieldWriter, m *c.OtaBeginUp) { w.bytes(m.SHA[:]) },
		func(r *fieldReader, m *c.OtaBeginUp) { r.fixed("sha", m.SHA[:]) }),

	c.OtaUpdateCmdDownID: fixed(4,
		func(w *fieldWriter, m *c.OtaUpdateDown) {
			w.bytes(m.OtaID[:])
			w.text(m.URL)
			w.bytes(m.InitialSHA256[:])
			w.bytes(m.FinalSHA256[:])
		},
		func(r *fieldReader, m *c.OtaUpdateDown) {
			r.fixed("id", m.OtaID[:])
			m.URL = r.text("url", c.URLSize)
			r.fixed("initial_sha256", m.InitialSHA256[:])
			r.fixed("final_sha256", m.FinalSHA256[:])
		}),

	c.OtaProgressCmdUpID: fixed(4,
		func(w *fieldWriter, m *c.OtaProgressUp) {
			w.bytes(m.OtaID[:])
			w.simple(m.State)
			w.int(int64(m.StateData))
			w.uint(m.Time)
		},
		func(r *fieldReader, m *c.OtaProgressUp) {
			r.fixed("id", m.OtaID[:])
			m.State = r.simple("state")
			m.StateData = int32(r.int("state_data", 32))
			m.Time = r.uint("time", 64)
		}),

	c.ThingBeginCmdID: fixed(1,
		func(w *fieldWriter, m *c.ThingBegin) { w.text(m.ThingID) },
		func(r *fieldReader, m *c.ThingBegin) { m.ThingID = r.text("thing_id", c.ThingIDSize) }),

	c.ThingUpdateCmdID: fixed(1,
		func(w *fieldWriter, m *c.ThingUpdate) { w.text(m.ThingID) },
		func(r *fieldReader, m *c.ThingUpdate) { m.ThingID = r.text("thing_id", c.ThingIDSize) }),

	c.ThingDetachCmdID: fixed(1,
		func(w *fieldWriter, m *c.ThingDetach) { w.text(m.ThingID) },
		func(r *fieldReader, m *c.ThingDetach) { m.ThingID = r.text("thing_id", c.ThingIDSize) }),

	c.LastValuesBeginCmdID: empty[*c.LastValuesBegin](),

	c.LastValuesUpdateCmdID: fixed(1,
		func(w *fieldWriter, m *c.LastValuesUpdate) { w.bytes(m.LastValues) },
		func(r *fieldReader, m *c.LastValuesUpdate) { m.LastValues = r.variable("last_values", -1) }),

	c.DeviceBeginCmdID: fixed(1,
		func(w *fieldWriter, m *c.DeviceBegin) { w.text(m.LibVersion) },
		func(r *fieldReader, m *c.DeviceBegin) { m.LibVersion = r.text("lib_version", c.MaxLibVersionSize) }),

	c.TimezoneCommandUpID: empty[*c.TimezoneUp](),

	c.TimezoneCommandDownID: fixed(2,
		func(w *fieldWriter, m *c.TimezoneDown) {
			w.int(int64(m.Offset))
			w.uint(uint64(m.Until))
		},
		func(r *fieldReader, m *c.TimezoneDown) {
			m.Offset = int32(r.int("offset", 32))
			m.Until = uint32(r.uint("until", 32))
		}),

	c.ProvisioningStatusID: fixed(1,
		func(w *fieldWriter, m *c.ProvisioningStatus) { w.int(int64(m.Status)) },
		func(r *fieldReader, m *c.ProvisioningStatus) { m.Status = int16(r.int("status", 16)) }),

	c.ProvisioningListWifiNetworksID: {
		arity:   func(m c.Message) int { return 2 * len(m.(*c.ProvisioningListWifiNetworks).List()) },
		accepts: func(n int) bool { return n%2 == 0 },
		write: func(w *fieldWriter, m c.Message) {
			for _, n := range m.(*c.ProvisioningListWifiNetworks).List() {
				w.text(n.SSID)
				w.int(int64(n.RSSI))
			}
		},
		read: func(r *fieldReader, m c.Message) {
			list := m.(*c.ProvisioningListWifiNetworks)
			pairs := min(len(r.fields)/2, c.MaxWiFiNetworks)
			for i := 0; i < pairs; i++ {
				list.Networks[i].SSID = r.text("ssid", c.WiFiSSIDSize)
				list.Networks[i].RSSI = int32(r.int("rssi", 32))
			}
			list.Count = uint8(pairs)
		},
	},

	c.ProvisioningUniqueHardwareIDID: fixed(1,
		func(w *fieldWriter, m *c.ProvisioningUniqueHardwareID) { w.bytes(m.UniqueHardwareID[:]) },
		func(r *fieldReader, m *c.ProvisioningUniqueHardwareID) {
			r.fixed("unique_hardware_id", m.UniqueHardwareID[:])
		}),

	c.ProvisioningJWTID: fixed(1,
		func(w *fieldWriter, m *c.ProvisioningJWT) { w.bytes(m.JWT) },
		func(r *fieldReader, m *c.ProvisioningJWT) { m.JWT = r.variable("jwt", c.ProvisioningJWTSize) }),

	c.ProvisioningTimestampID: fixed(1,
		func(w *fieldWriter, m *c.ProvisioningTimestamp) { w.uint(m.Timestamp) },
		func(r *fieldReader, m *c.ProvisioningTimestamp) { m.Timestamp = r.uint("timestamp", 64) }),

	c.ProvisioningCommandsID: fixed(1,
		func(w *fieldWriter, m *c.ProvisioningCommands) { w.uint(uint64(m.Cmd)) },
		func(r *fieldReader, m *c.ProvisioningCommands) { m.Cmd = uint8(r.uint("cmd", 8)) }),

	c.ProvisioningWifiConfigID: fixed(2,
		func(w *fieldWriter, m *c.ProvisioningWifiConfig) {
			w.text(m.SSID)
			w.text(m.Pwd)
		},
		func(r *fieldReader, m *c.ProvisioningWifiConfig) {
			m.SSID = r.text("ssid", c.WiFiSSIDSize)
			m.Pwd = r.text("pwd", c.WiFiPwdSize)
		}),

	c.ProvisioningLoRaConfigID: fixed(5,
		func(w *fieldWriter, m *c.ProvisioningLoRaConfig) {
			w.text(m.AppEUI)
			w.text(m.AppKey)
			w.uint(uint64(m.Band))
			w.text(m.ChannelMask)
			w.text(m.DeviceClass)
		},
		func(r *fieldReader, m *c.ProvisioningLoRaConfig) {
			m.AppEUI = r.text("appeui", c.LoRaAppEUISize)
			m.AppKey = r.text("appkey", c.LoRaAppKeySize)
			m.Band = uint8(r.uint("band", 8))
			m.ChannelMask = r.text("channel_mask", c.LoRaChannelMaskSize)
			m.DeviceClass = r.text("device_class", c.LoRaDeviceClassSize)
		}),

	c.ProvisioningGSMConfigID: fixed(4,
		func(w *fieldWriter, m *c.ProvisioningGSMConfig) { w.cellular(m.Cellular()) },
		func(r *fieldReader, m *c.ProvisioningGSMConfig) { r.cellular(m.Cellular()) }),

	c.ProvisioningNBIOTConfigID: fixed(4,
		func(w *fieldWriter, m *c.ProvisioningNBIOTConfig) { w.cellular(m.Cellular()) },
		func(r *fieldReader, m *c.ProvisioningNBIOTConfig) { r.cellular(m.Cellular()) }),

	c.ProvisioningCellularConfigID: fixed(4,
		func(w *fieldWriter, m *c.ProvisioningCellularConfig) { w.cellular(m.Cellular()) },
		func(r *fieldReader, m *c.ProvisioningCellularConfig) { r.cellular(m.Cellular()) }),

	c.ProvisioningCATM1ConfigID: fixed(5,
		func(w *fieldWriter, m *c.ProvisioningCATM1Config) {
			w.cellular(m.Cellular())
			w.uints(m.Band[:])
		},
		func(r *fieldReader, m *c.ProvisioningCATM1Config) {
			r.cellular(m.Cellular())
			r.uints("band", m.Band[:])
		}),

	c.ProvisioningEthernetConfigID: fixed(6,
		func(w *fieldWriter, m *c.ProvisioningEthernetConfig) {
			w.ip(m.IP)
			w.ip(m.DNS)
			w.ip(m.Gateway)
			w.ip(m.Netmask)
			w.uint(uint64(m.Timeout))
			w.uint(uint64(m.ResponseTimeout))
		},
		func(r *fieldReader, m *c.ProvisioningEthernetConfig) {
			m.IP = r.ip("ip")
			m.DNS = r.ip("dns")
			m.Gateway = r.ip("gateway")
			m.Netmask = r.ip("netmask")
			m.Timeout = uint32(r.uint("timeout", 32))
			m.ResponseTimeout = uint32(r.uint("response_timeout", 32))
		}),

	c.ProvisioningBLEMacAddressID: fixed(1,
		func(w *fieldWriter, m *c.ProvisioningBLEMacAddress) {
			w.optional(m.MacAddress[:], m.MacAddress.IsZero())
		},
		func(r *fieldReader, m *c.ProvisioningBLEMacAddress) { r.optional("mac_address", m.MacAddress[:]) }),
}

func init() {
	for _, row := range defaultRows {
		if _, ok := defaultRules[row.ID]; !ok {
			panic(fmt.Sprintf("wire: %s has a tag but no rule", row.ID))
		}
	}
	if len(defaultRules) != len(defaultRows) {
		panic("wire: rule table and tag table differ in size")
	}
}
