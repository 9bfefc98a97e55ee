package wire

import (
	"fmt"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// Tag is a CBOR tag number identifying a command on the wire.
type Tag uint64

// Sentinel tags. None of them identifies a command.
const (
	UnknownTag16 Tag = 0xffff
	UnknownTag32 Tag = 0xffffffff
	UnknownTag64 Tag = 0xffffffffffffffff
)

// Command tags.
const (
	TagOtaBeginUp       Tag = 0x010000
	TagOtaUpdateDown    Tag = 0x010100
	TagOtaProgressUp    Tag = 0x010200
	TagThingBegin       Tag = 0x010300
	TagThingUpdate      Tag = 0x010400
	TagLastValuesBegin  Tag = 0x010500
	TagLastValuesUpdate Tag = 0x010600
	TagDeviceBegin      Tag = 0x010700
	TagTimezoneUp       Tag = 0x010800
	TagTimezoneDown     Tag = 0x010900
	TagThingDetach      Tag = 0x011000

	TagProvisioningStatus           Tag = 0x012000
	TagProvisioningListWifiNetworks Tag = 0x012001
	TagProvisioningTimestamp        Tag = 0x012002
	TagProvisioningCommands         Tag = 0x012003
	TagProvisioningWifiConfig       Tag = 0x012004
	TagProvisioningLoRaConfig       Tag = 0x012005
	TagProvisioningGSMConfig        Tag = 0x012006
	TagProvisioningNBIOTConfig      Tag = 0x012007
	TagProvisioningCATM1Config      Tag = 0x012008
	TagProvisioningEthernetConfig   Tag = 0x012009
	TagProvisioningUniqueHardwareID Tag = 0x012010
	TagProvisioningJWT              Tag = 0x012011
	TagProvisioningCellularConfig   Tag = 0x012012
	TagProvisioningBLEMacAddress    Tag = 0x012013
)

// IsSentinel returns true for the reserved "no tag" values.
func (t Tag) IsSentinel() bool {
	return t == UnknownTag16 || t == UnknownTag32 || t == UnknownTag64
}

// String returns the tag in hex notation.
func (t Tag) String() string {
	return fmt.Sprintf("0x%06x", uint64(t))
}

// TagRow maps one command to its tag.
type TagRow struct {
	ID  command.ID
	Tag Tag
}

// TagTable is a bidirectional mapping between command IDs and tags.
// It is immutable after construction and safe for concurrent use.
type TagTable struct {
	rows  []TagRow
	byID  map[command.ID]Tag
	byTag map[Tag]command.ID
}

// defaultRows lists every command that has a wire encoding.
var defaultRows = []TagRow{
	{command.OtaBeginUpID, TagOtaBeginUp},
	{command.OtaUpdateCmdDownID, TagOtaUpdateDown},
	{command.OtaProgressCmdUpID, TagOtaProgressUp},
	{command.ThingBeginCmdID, TagThingBegin},
	{command.ThingUpdateCmdID, TagThingUpdate},
	{command.ThingDetachCmdID, TagThingDetach},
	{command.LastValuesBeginCmdID, TagLastValuesBegin},
	{command.LastValuesUpdateCmdID, TagLastValuesUpdate},
	{command.DeviceBeginCmdID, TagDeviceBegin},
	{command.TimezoneCommandUpID, TagTimezoneUp},
	{command.TimezoneCommandDownID, TagTimezoneDown},
	{command.ProvisioningStatusID, TagProvisioningStatus},
	{command.ProvisioningListWifiNetworksID, TagProvisioningListWifiNetworks},
	{command.ProvisioningTimestampID, TagProvisioningTimestamp},
	{command.ProvisioningCommandsID, TagProvisioningCommands},
	{command.ProvisioningWifiConfigID, TagProvisioningWifiConfig},
	{command.ProvisioningLoRaConfigID, TagProvisioningLoRaConfig},
	{command.ProvisioningGSMConfigID, TagProvisioningGSMConfig},
	{command.ProvisioningNBIOTConfigID, TagProvisioningNBIOTConfig},
	{command.ProvisioningCATM1ConfigID, TagProvisioningCATM1Config},
	{command.ProvisioningEthernetConfigID, TagProvisioningEthernetConfig},
	{command.ProvisioningUniqueHardwareIDID, TagProvisioningUniqueHardwareID},
	{command.ProvisioningJWTID, TagProvisioningJWT},
	{command.ProvisioningCellularConfigID, TagProvisioningCellularConfig},
	{command.ProvisioningBLEMacAddressID, TagProvisioningBLEMacAddress},
}

// NewTagTable builds a table from rows. Duplicate IDs or tags, invalid IDs
// and sentinel tags are rejected.
func NewTagTable(rows []TagRow) (*TagTable, error) {
	t := &TagTable{
		rows:  make([]TagRow, 0, len(rows)),
		byID:  make(map[command.ID]Tag, len(rows)),
		byTag: make(map[Tag]command.ID, len(rows)),
	}
	for _, row := range rows {
		if !row.ID.IsValid() {
			return nil, fmt.Errorf("tag table: invalid command id %d", uint32(row.ID))
		}
		if row.Tag.IsSentinel() {
			return nil, fmt.Errorf("tag table: %s uses reserved tag %s", row.ID, row.Tag)
		}
		if _, dup := t.byID[row.ID]; dup {
			return nil, fmt.Errorf("tag table: duplicate command %s", row.ID)
		}
		if other, dup := t.byTag[row.Tag]; dup {
			return nil, fmt.Errorf("tag table: tag %s used by %s and %s", row.Tag, other, row.ID)
		}
		t.rows = append(t.rows, row)
		t.byID[row.ID] = row.Tag
		t.byTag[row.Tag] = row.ID
	}
	return t, nil
}

// DefaultTagTable returns the tag table of the protocol.
func DefaultTagTable() *TagTable {
	t, err := NewTagTable(defaultRows)
	if err != nil {
		panic(fmt.Sprintf("invalid default tag table: %v", err))
	}
	return t
}

// TagFor returns the tag of a command. Commands without a row, such as the
// local lifecycle notifications, yield UnknownTag32 and ErrUnsupportedMessage.
func (t *TagTable) TagFor(id command.ID) (Tag, error) {
	tag, ok := t.byID[id]
	if !ok {
		return UnknownTag32, fmt.Errorf("%w: %s has no tag", ErrUnsupportedMessage, id)
	}
	return tag, nil
}

// IDFor returns the command of a tag. Unmapped tags and sentinels yield
// command.UnknownCmdID and ErrUnknownTag.
func (t *TagTable) IDFor(tag Tag) (command.ID, error) {
	id, ok := t.byTag[tag]
	if !ok {
		return command.UnknownCmdID, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	return id, nil
}

// Rows returns a copy of the table rows in definition order.
func (t *TagTable) Rows() []TagRow {
	return append([]TagRow(nil), t.rows...)
}

// Len returns the number of mapped commands.
func (t *TagTable) Len() int {
	return len(t.rows)
}
