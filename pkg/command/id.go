package command

import (
	"fmt"
	"strings"
)

// ID identifies the kind of a command.
//
// The numeric values follow the declaration order of the firmware and are
// NOT the values sent on the wire; the wire uses tags (see package wire).
type ID uint32

const (
	// Device commands
	DeviceBeginCmdID ID = iota
	ThingBeginCmdID
	ThingUpdateCmdID
	ThingDetachCmdID
	DeviceRegisteredCmdID
	DeviceAttachedCmdID
	DeviceDetachedCmdID

	// Thing commands
	LastValuesBeginCmdID
	LastValuesUpdateCmdID
	PropertiesUpdateCmdID

	// Generic commands
	ResetCmdID

	// OTA commands
	OtaBeginUpID
	OtaProgressCmdUpID
	OtaUpdateCmdDownID

	// Timezone commands
	TimezoneCommandUpID
	TimezoneCommandDownID

	// UnknownCmdID marks a command that could not be classified.
	UnknownCmdID

	// Provisioning commands
	ProvisioningStatusID
	ProvisioningListWifiNetworksID
	ProvisioningUniqueHardwareIDID
	ProvisioningJWTID
	ProvisioningTimestampID
	ProvisioningCommandsID
	ProvisioningWifiConfigID
	ProvisioningLoRaConfigID
	ProvisioningGSMConfigID
	ProvisioningNBIOTConfigID
	ProvisioningCATM1ConfigID
	ProvisioningEthernetConfigID
	ProvisioningCellularConfigID
	ProvisioningBLEMacAddressID

	idCount
)

var idNames = [idCount]string{
	DeviceBeginCmdID:               "DeviceBegin",
	ThingBeginCmdID:                "ThingBegin",
	ThingUpdateCmdID:               "ThingUpdate",
	ThingDetachCmdID:               "ThingDetach",
	DeviceRegisteredCmdID:          "DeviceRegistered",
	DeviceAttachedCmdID:            "DeviceAttached",
	DeviceDetachedCmdID:            "DeviceDetached",
	LastValuesBeginCmdID:           "LastValuesBegin",
	LastValuesUpdateCmdID:          "LastValuesUpdate",
	PropertiesUpdateCmdID:          "PropertiesUpdate",
	ResetCmdID:                     "Reset",
	OtaBeginUpID:                   "OtaBeginUp",
	OtaProgressCmdUpID:             "OtaProgressUp",
	OtaUpdateCmdDownID:             "OtaUpdateDown",
	TimezoneCommandUpID:            "TimezoneUp",
	TimezoneCommandDownID:          "TimezoneDown",
	UnknownCmdID:                   "Unknown",
	ProvisioningStatusID:           "ProvisioningStatus",
	ProvisioningListWifiNetworksID: "ProvisioningListWifiNetworks",
	ProvisioningUniqueHardwareIDID: "ProvisioningUniqueHardwareId",
	ProvisioningJWTID:              "ProvisioningJWT",
	ProvisioningTimestampID:        "ProvisioningTimestamp",
	ProvisioningCommandsID:         "ProvisioningCommands",
	ProvisioningWifiConfigID:       "ProvisioningWifiConfig",
	ProvisioningLoRaConfigID:       "ProvisioningLoRaConfig",
	ProvisioningGSMConfigID:        "ProvisioningGSMConfig",
	ProvisioningNBIOTConfigID:      "ProvisioningNBIOTConfig",
	ProvisioningCATM1ConfigID:      "ProvisioningCATM1Config",
	ProvisioningEthernetConfigID:   "ProvisioningEthernetConfig",
	ProvisioningCellularConfigID:   "ProvisioningCellularConfig",
	ProvisioningBLEMacAddressID:    "ProvisioningBLEMacAddress",
}

// String returns the command name.
func (id ID) String() string {
	if id.IsValid() {
		return idNames[id]
	}
	return fmt.Sprintf("ID(%d)", uint32(id))
}

// IsValid returns true if id is a member of the enumeration.
func (id ID) IsValid() bool {
	return id < idCount
}

// IsProvisioning returns true for the provisioning command family.
func (id ID) IsProvisioning() bool {
	return id >= ProvisioningStatusID && id < idCount
}

// ParseID resolves a command name to its ID (case-insensitive).
func ParseID(name string) (ID, error) {
	for id, n := range idNames {
		if strings.EqualFold(n, name) {
			return ID(id), nil
		}
	}
	return UnknownCmdID, fmt.Errorf("unknown command name %q", name)
}

// AllIDs returns every command ID in declaration order.
func AllIDs() []ID {
	ids := make([]ID, 0, idCount)
	for id := ID(0); id < idCount; id++ {
		ids = append(ids, id)
	}
	return ids
}
