// Package version provides the library version announced in DeviceBegin,
// plus "major.minor.patch" parsing and comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// Library is the version of this library. It must fit the DeviceBegin
// lib_version field.
const Library = "2.0.2"

// LibVersion represents a parsed "major.minor.patch" library version.
type LibVersion struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses a "major.minor.patch" version string. A missing patch
// component is zero.
func Parse(s string) (LibVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return LibVersion{}, fmt.Errorf("invalid version %q: expected major.minor[.patch]", s)
	}

	var nums [3]uint16
	names := [3]string{"major", "minor", "patch"}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || p == "" {
			return LibVersion{}, fmt.Errorf("invalid version %q: bad %s component", s, names[i])
		}
		nums[i] = uint16(n)
	}

	return LibVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the version as "major.minor.patch".
func (v LibVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible returns true if the other version has the same major version.
func (v LibVersion) Compatible(other LibVersion) bool {
	return v.Major == other.Major
}

// Compare returns -1, 0 or +1 depending on whether v is older than, equal
// to or newer than other.
func (v LibVersion) Compare(other LibVersion) int {
	a := [3]uint16{v.Major, v.Minor, v.Patch}
	b := [3]uint16{other.Major, other.Minor, other.Patch}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// DeviceBegin returns the DeviceBegin command announcing Library.
func DeviceBegin() *command.DeviceBegin {
	return &command.DeviceBegin{LibVersion: Library}
}

// FromDeviceBegin parses the version announced by a peer.
func FromDeviceBegin(m *command.DeviceBegin) (LibVersion, error) {
	return Parse(m.LibVersion)
}
