package command

import "fmt"

// ProvisioningStatus reports the provisioning state machine status.
type ProvisioningStatus struct {
	Status int16 `yaml:"status"`
}

func (*ProvisioningStatus) ID() ID          { return ProvisioningStatusID }
func (*ProvisioningStatus) Validate() error { return nil }

// WiFiNetwork is one entry of a network scan.
type WiFiNetwork struct {
	SSID string `yaml:"ssid"`
	RSSI int32  `yaml:"rssi"`
}

// ProvisioningListWifiNetworks reports discovered Wi-Fi networks in
// discovery order. Storage is fixed; Count entries of Networks are valid.
type ProvisioningListWifiNetworks struct {
	Networks [MaxWiFiNetworks]WiFiNetwork `yaml:"-"`
	Count    uint8                        `yaml:"-"`
}

// Add appends a network, failing once MaxWiFiNetworks entries are stored.
func (m *ProvisioningListWifiNetworks) Add(ssid string, rssi int32) error {
	if int(m.Count) >= MaxWiFiNetworks {
		return fmt.Errorf("%w: more than %d networks", ErrCapacityExceeded, MaxWiFiNetworks)
	}
	if err := checkText("ssid", ssid, WiFiSSIDSize); err != nil {
		return err
	}
	m.Networks[m.Count] = WiFiNetwork{SSID: ssid, RSSI: rssi}
	m.Count++
	return nil
}

// List returns the valid entries.
func (m *ProvisioningListWifiNetworks) List() []WiFiNetwork {
	n := min(int(m.Count), MaxWiFiNetworks)
	return m.Networks[:n]
}

// SetList replaces the stored networks.
func (m *ProvisioningListWifiNetworks) SetList(networks []WiFiNetwork) error {
	var next ProvisioningListWifiNetworks
	for _, n := range networks {
		if err := next.Add(n.SSID, n.RSSI); err != nil {
			return err
		}
	}
	*m = next
	return nil
}

func (*ProvisioningListWifiNetworks) ID() ID { return ProvisioningListWifiNetworksID }

func (m *ProvisioningListWifiNetworks) Validate() error {
	if int(m.Count) > MaxWiFiNetworks {
		return fmt.Errorf("%w: count %d exceeds %d networks", ErrCapacityExceeded, m.Count, MaxWiFiNetworks)
	}
	for i, n := range m.List() {
		if err := checkText(fmt.Sprintf("networks[%d].ssid", i), n.SSID, WiFiSSIDSize); err != nil {
			return err
		}
	}
	return nil
}

// ProvisioningUniqueHardwareID carries the unique hardware id.
type ProvisioningUniqueHardwareID struct {
	UniqueHardwareID HardwareID `yaml:"unique_hardware_id"`
}

func (*ProvisioningUniqueHardwareID) ID() ID          { return ProvisioningUniqueHardwareIDID }
func (*ProvisioningUniqueHardwareID) Validate() error { return nil }

// ProvisioningJWT carries the provisioning token.
type ProvisioningJWT struct {
	JWT Token `yaml:"jwt"`
}

// NewProvisioningJWT creates a ProvisioningJWT command.
func NewProvisioningJWT(jwt []byte) (*ProvisioningJWT, error) {
	m := &ProvisioningJWT{JWT: Token(jwt)}
	return m, m.Validate()
}

func (*ProvisioningJWT) ID() ID { return ProvisioningJWTID }

func (m *ProvisioningJWT) Validate() error {
	return checkBytes("jwt", m.JWT, ProvisioningJWTSize)
}

// ProvisioningTimestamp sets the device clock (Unix seconds).
type ProvisioningTimestamp struct {
	Timestamp uint64 `yaml:"timestamp"`
}

func (*ProvisioningTimestamp) ID() ID          { return ProvisioningTimestampID }
func (*ProvisioningTimestamp) Validate() error { return nil }

// ProvisioningCommands requests a provisioning action.
type ProvisioningCommands struct {
	Cmd uint8 `yaml:"cmd"`
}

func (*ProvisioningCommands) ID() ID          { return ProvisioningCommandsID }
func (*ProvisioningCommands) Validate() error { return nil }

// ProvisioningWifiConfig carries Wi-Fi credentials.
type ProvisioningWifiConfig struct {
	SSID string `yaml:"ssid"`
	Pwd  string `yaml:"pwd"`
}

// NewWifiConfig creates a ProvisioningWifiConfig command.
func NewWifiConfig(ssid, pwd string) (*ProvisioningWifiConfig, error) {
	m := &ProvisioningWifiConfig{SSID: ssid, Pwd: pwd}
	return m, m.Validate()
}

func (*ProvisioningWifiConfig) ID() ID { return ProvisioningWifiConfigID }

func (m *ProvisioningWifiConfig) Validate() error {
	return firstError(
		checkText("ssid", m.SSID, WiFiSSIDSize),
		checkText("pwd", m.Pwd, WiFiPwdSize),
	)
}

// ProvisioningLoRaConfig carries LoRaWAN join parameters.
type ProvisioningLoRaConfig struct {
	AppEUI      string `yaml:"appeui"`
	AppKey      string `yaml:"appkey"`
	Band        uint8  `yaml:"band"`
	ChannelMask string `yaml:"channel_mask"`
	DeviceClass string `yaml:"device_class"`
}

func (*ProvisioningLoRaConfig) ID() ID { return ProvisioningLoRaConfigID }

func (m *ProvisioningLoRaConfig) Validate() error {
	return firstError(
		checkText("appeui", m.AppEUI, LoRaAppEUISize),
		checkText("appkey", m.AppKey, LoRaAppKeySize),
		checkText("channel_mask", m.ChannelMask, LoRaChannelMaskSize),
		checkText("device_class", m.DeviceClass, LoRaDeviceClassSize),
	)
}

// CellularParams is the credential set shared by the cellular configs.
type CellularParams struct {
	PIN   string `yaml:"pin"`
	APN   string `yaml:"apn"`
	Login string `yaml:"login"`
	Pass  string `yaml:"pass"`
}

// Cellular returns the shared credential set.
func (p *CellularParams) Cellular() *CellularParams { return p }

func (p *CellularParams) validate() error {
	return firstError(
		checkText("pin", p.PIN, PINSize),
		checkText("apn", p.APN, APNSize),
		checkText("login", p.Login, LoginSize),
		checkText("pass", p.Pass, PassSize),
	)
}

// ProvisioningGSMConfig carries GSM credentials.
type ProvisioningGSMConfig struct {
	CellularParams `yaml:",inline"`
}

func (*ProvisioningGSMConfig) ID() ID            { return ProvisioningGSMConfigID }
func (m *ProvisioningGSMConfig) Validate() error { return m.validate() }

// ProvisioningNBIOTConfig carries NB-IoT credentials.
type ProvisioningNBIOTConfig struct {
	CellularParams `yaml:",inline"`
}

func (*ProvisioningNBIOTConfig) ID() ID            { return ProvisioningNBIOTConfigID }
func (m *ProvisioningNBIOTConfig) Validate() error { return m.validate() }

// ProvisioningCellularConfig carries generic cellular credentials.
type ProvisioningCellularConfig struct {
	CellularParams `yaml:",inline"`
}

// NewCellularConfig creates a ProvisioningCellularConfig command.
func NewCellularConfig(pin, apn, login, pass string) (*ProvisioningCellularConfig, error) {
	m := &ProvisioningCellularConfig{CellularParams{PIN: pin, APN: apn, Login: login, Pass: pass}}
	return m, m.Validate()
}

func (*ProvisioningCellularConfig) ID() ID            { return ProvisioningCellularConfigID }
func (m *ProvisioningCellularConfig) Validate() error { return m.validate() }

// ProvisioningCATM1Config carries CAT-M1 credentials and the band list.
type ProvisioningCATM1Config struct {
	CellularParams `yaml:",inline"`
	Band           [BandSize]uint32 `yaml:"band,flow"`
}

func (*ProvisioningCATM1Config) ID() ID            { return ProvisioningCATM1ConfigID }
func (m *ProvisioningCATM1Config) Validate() error { return m.validate() }

// ProvisioningEthernetConfig carries a static IP configuration. Zero
// addresses mean DHCP for that entry.
type ProvisioningEthernetConfig struct {
	IP              IPAddress `yaml:"ip"`
	DNS             IPAddress `yaml:"dns"`
	Gateway         IPAddress `yaml:"gateway"`
	Netmask         IPAddress `yaml:"netmask"`
	Timeout         uint32    `yaml:"timeout"`
	ResponseTimeout uint32    `yaml:"response_timeout"`
}

func (*ProvisioningEthernetConfig) ID() ID { return ProvisioningEthernetConfigID }

func (m *ProvisioningEthernetConfig) Validate() error {
	return firstError(
		m.IP.validate("ip"),
		m.DNS.validate("dns"),
		m.Gateway.validate("gateway"),
		m.Netmask.validate("netmask"),
	)
}

// ProvisioningBLEMacAddress reports the BLE MAC address.
type ProvisioningBLEMacAddress struct {
	MacAddress MACAddress `yaml:"mac_address"`
}

func (*ProvisioningBLEMacAddress) ID() ID          { return ProvisioningBLEMacAddressID }
func (*ProvisioningBLEMacAddress) Validate() error { return nil }

func (*ProvisioningStatus) message()           {}
func (*ProvisioningListWifiNetworks) message() {}
func (*ProvisioningUniqueHardwareID) message() {}
func (*ProvisioningJWT) message()              {}
func (*ProvisioningTimestamp) message()        {}
func (*ProvisioningCommands) message()         {}
func (*ProvisioningWifiConfig) message()       {}
func (*ProvisioningLoRaConfig) message()       {}
func (*ProvisioningGSMConfig) message()        {}
func (*ProvisioningNBIOTConfig) message()      {}
func (*ProvisioningCellularConfig) message()   {}
func (*ProvisioningCATM1Config) message()      {}
func (*ProvisioningEthernetConfig) message()   {}
func (*ProvisioningBLEMacAddress) message()    {}
