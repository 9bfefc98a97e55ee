package command

import "fmt"

// Message is one command of the protocol. The set of implementations is
// closed: only the types in this package satisfy it.
type Message interface {
	// ID returns the command identifier of the concrete type.
	ID() ID

	// Validate checks every field against its capacity and kind.
	Validate() error

	message()
}

// DeviceBegin announces the device and its library version.
type DeviceBegin struct {
	LibVersion string `yaml:"lib_version"`
}

// NewDeviceBegin creates a DeviceBegin command.
func NewDeviceBegin(libVersion string) (*DeviceBegin, error) {
	m := &DeviceBegin{LibVersion: libVersion}
	return m, m.Validate()
}

func (*DeviceBegin) ID() ID { return DeviceBeginCmdID }

func (m *DeviceBegin) Validate() error {
	return checkText("lib_version", m.LibVersion, MaxLibVersionSize)
}

// ThingBegin requests the configuration of a thing.
type ThingBegin struct {
	ThingID string `yaml:"thing_id"`
}

// NewThingBegin creates a ThingBegin command.
func NewThingBegin(thingID string) (*ThingBegin, error) {
	m := &ThingBegin{ThingID: thingID}
	return m, m.Validate()
}

func (*ThingBegin) ID() ID { return ThingBeginCmdID }

func (m *ThingBegin) Validate() error {
	return checkText("thing_id", m.ThingID, ThingIDSize)
}

// ThingUpdate assigns a thing to the device.
type ThingUpdate struct {
	ThingID string `yaml:"thing_id"`
}

// NewThingUpdate creates a ThingUpdate command.
func NewThingUpdate(thingID string) (*ThingUpdate, error) {
	m := &ThingUpdate{ThingID: thingID}
	return m, m.Validate()
}

func (*ThingUpdate) ID() ID { return ThingUpdateCmdID }

func (m *ThingUpdate) Validate() error {
	return checkText("thing_id", m.ThingID, ThingIDSize)
}

// ThingDetach detaches the thing from the device.
type ThingDetach struct {
	ThingID string `yaml:"thing_id"`
}

// NewThingDetach creates a ThingDetach command.
func NewThingDetach(thingID string) (*ThingDetach, error) {
	m := &ThingDetach{ThingID: thingID}
	return m, m.Validate()
}

func (*ThingDetach) ID() ID { return ThingDetachCmdID }

func (m *ThingDetach) Validate() error {
	return checkText("thing_id", m.ThingID, ThingIDSize)
}

// DeviceRegistered is a local lifecycle notification.
type DeviceRegistered struct{}

func (*DeviceRegistered) ID() ID          { return DeviceRegisteredCmdID }
func (*DeviceRegistered) Validate() error { return nil }

// DeviceAttached is a local lifecycle notification.
type DeviceAttached struct{}

func (*DeviceAttached) ID() ID          { return DeviceAttachedCmdID }
func (*DeviceAttached) Validate() error { return nil }

// DeviceDetached is a local lifecycle notification.
type DeviceDetached struct{}

func (*DeviceDetached) ID() ID          { return DeviceDetachedCmdID }
func (*DeviceDetached) Validate() error { return nil }

// LastValuesBegin requests the last known property values.
type LastValuesBegin struct{}

func (*LastValuesBegin) ID() ID          { return LastValuesBeginCmdID }
func (*LastValuesBegin) Validate() error { return nil }

// LastValuesUpdate carries the last known property values as an opaque
// payload.
type LastValuesUpdate struct {
	LastValues Payload `yaml:"last_values"`
}

func (*LastValuesUpdate) ID() ID          { return LastValuesUpdateCmdID }
func (*LastValuesUpdate) Validate() error { return nil }

// PropertiesUpdate is a local notification that properties changed.
type PropertiesUpdate struct{}

func (*PropertiesUpdate) ID() ID          { return PropertiesUpdateCmdID }
func (*PropertiesUpdate) Validate() error { return nil }

// Reset is a local request to reset the connection state machine.
type Reset struct{}

func (*Reset) ID() ID          { return ResetCmdID }
func (*Reset) Validate() error { return nil }

// OtaBeginUp announces the SHA-256 of the running firmware.
type OtaBeginUp struct {
	SHA SHA256 `yaml:"sha"`
}

func (*OtaBeginUp) ID() ID          { return OtaBeginUpID }
func (*OtaBeginUp) Validate() error { return nil }

// OtaProgressUp reports the progress of an OTA job.
type OtaProgressUp struct {
	OtaID     OtaID  `yaml:"id"`
	State     uint8  `yaml:"state"`
	StateData int32  `yaml:"state_data"`
	Time      uint64 `yaml:"time"`
}

func (*OtaProgressUp) ID() ID { return OtaProgressCmdUpID }

// Validate rejects states in the simple-value range reserved by CBOR.
func (m *OtaProgressUp) Validate() error {
	if m.State >= minReservedSimpleVal && m.State <= maxReservedSimpleVal {
		return fmt.Errorf("%w: state %d is a reserved simple value", ErrInvalidField, m.State)
	}
	return nil
}

// OtaUpdateDown instructs the device to download and apply an update.
type OtaUpdateDown struct {
	OtaID         OtaID  `yaml:"id"`
	URL           string `yaml:"url"`
	InitialSHA256 SHA256 `yaml:"initial_sha256"`
	FinalSHA256   SHA256 `yaml:"final_sha256"`
}

// NewOtaUpdateDown creates an OtaUpdateDown command.
func NewOtaUpdateDown(id OtaID, url string, initial, final SHA256) (*OtaUpdateDown, error) {
	m := &OtaUpdateDown{OtaID: id, URL: url, InitialSHA256: initial, FinalSHA256: final}
	return m, m.Validate()
}

func (*OtaUpdateDown) ID() ID { return OtaUpdateCmdDownID }

func (m *OtaUpdateDown) Validate() error {
	return checkText("url", m.URL, URLSize)
}

// TimezoneUp requests the current timezone information.
type TimezoneUp struct{}

func (*TimezoneUp) ID() ID          { return TimezoneCommandUpID }
func (*TimezoneUp) Validate() error { return nil }

// TimezoneDown carries a UTC offset in seconds valid until a Unix time.
type TimezoneDown struct {
	Offset int32  `yaml:"offset"`
	Until  uint32 `yaml:"until"`
}

func (*TimezoneDown) ID() ID          { return TimezoneCommandDownID }
func (*TimezoneDown) Validate() error { return nil }

// Unknown stands for a command that could not be classified.
type Unknown struct{}

func (*Unknown) ID() ID          { return UnknownCmdID }
func (*Unknown) Validate() error { return nil }

func (*DeviceBegin) message()      {}
func (*ThingBegin) message()       {}
func (*ThingUpdate) message()      {}
func (*ThingDetach) message()      {}
func (*DeviceRegistered) message() {}
func (*DeviceAttached) message()   {}
func (*DeviceDetached) message()   {}
func (*LastValuesBegin) message()  {}
func (*LastValuesUpdate) message() {}
func (*PropertiesUpdate) message() {}
func (*Reset) message()            {}
func (*OtaBeginUp) message()       {}
func (*OtaProgressUp) message()    {}
func (*OtaUpdateDown) message()    {}
func (*TimezoneUp) message()       {}
func (*TimezoneDown) message()     {}
func (*Unknown) message()          {}
