package command

import "fmt"

// factories creates a zero value for each command ID.
var factories = [idCount]func() Message{
	DeviceBeginCmdID:               func() Message { return &DeviceBegin{} },
	ThingBeginCmdID:                func() Message { return &ThingBegin{} },
	ThingUpdateCmdID:               func() Message { return &ThingUpdate{} },
	ThingDetachCmdID:               func() Message { return &ThingDetach{} },
	DeviceRegisteredCmdID:          func() Message { return &DeviceRegistered{} },
	DeviceAttachedCmdID:            func() Message { return &DeviceAttached{} },
	DeviceDetachedCmdID:            func() Message { return &DeviceDetached{} },
	LastValuesBeginCmdID:           func() Message { return &LastValuesBegin{} },
	LastValuesUpdateCmdID:          func() Message { return &LastValuesUpdate{} },
	PropertiesUpdateCmdID:          func() Message { return &PropertiesUpdate{} },
	ResetCmdID:                     func() Message { return &Reset{} },
	OtaBeginUpID:                   func() Message { return &OtaBeginUp{} },
	OtaProgressCmdUpID:             func() Message { return &OtaProgressUp{} },
	OtaUpdateCmdDownID:             func() Message { return &OtaUpdateDown{} },
	TimezoneCommandUpID:            func() Message { return &TimezoneUp{} },
	TimezoneCommandDownID:          func() Message { return &TimezoneDown{} },
	UnknownCmdID:                   func() Message { return &Unknown{} },
	ProvisioningStatusID:           func() Message { return &ProvisioningStatus{} },
	ProvisioningListWifiNetworksID: func() Message { return &ProvisioningListWifiNetworks{} },
	ProvisioningUniqueHardwareIDID: func() Message { return &ProvisioningUniqueHardwareID{} },
	ProvisioningJWTID:              func() Message { return &ProvisioningJWT{} },
	ProvisioningTimestampID:        func() Message { return &ProvisioningTimestamp{} },
	ProvisioningCommandsID:         func() Message { return &ProvisioningCommands{} },
	ProvisioningWifiConfigID:       func() Message { return &ProvisioningWifiConfig{} },
	ProvisioningLoRaConfigID:       func() Message { return &ProvisioningLoRaConfig{} },
	ProvisioningGSMConfigID:        func() Message { return &ProvisioningGSMConfig{} },
	ProvisioningNBIOTConfigID:      func() Message { return &ProvisioningNBIOTConfig{} },
	ProvisioningCATM1ConfigID:      func() Message { return &ProvisioningCATM1Config{} },
	ProvisioningEthernetConfigID:   func() Message { return &ProvisioningEthernetConfig{} },
	ProvisioningCellularConfigID:   func() Message { return &ProvisioningCellularConfig{} },
	ProvisioningBLEMacAddressID:    func() Message { return &ProvisioningBLEMacAddress{} },
}

// New returns a zero-valued command of the type identified by id.
func New(id ID) (Message, error) {
	if !id.IsValid() || factories[id] == nil {
		return nil, fmt.Errorf("no command type for %s", id)
	}
	return factories[id](), nil
}
