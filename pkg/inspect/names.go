package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// commandNames maps normalized names to command IDs. Provisioning commands
// are also reachable without their "Provisioning" prefix.
var commandNames = map[string]command.ID{}

func init() {
	for _, id := range command.AllIDs() {
		name := id.String()
		commandNames[normalizeName(name)] = id
		if short, ok := strings.CutPrefix(name, "Provisioning"); ok && id.IsProvisioning() {
			commandNames[normalizeName(short)] = id
		}
	}
}

// normalizeName lowercases name and drops separators.
func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '.':
			return -1
		}
		return r
	}, strings.ToLower(name))
}

// ResolveCommandName resolves a command name to its ID. Case and the
// separators '-', '_', ' ' and '.' are ignored.
func ResolveCommandName(name string) (command.ID, bool) {
	id, ok := commandNames[normalizeName(name)]
	return id, ok
}

// ResolveTag resolves either a numeric tag (decimal or 0x hex) or a command
// name to a tag and command ID using tags.
func ResolveTag(tags *wire.TagTable, s string) (wire.Tag, command.ID, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 0, 64); err == nil {
		tag := wire.Tag(n)
		id, err := tags.IDFor(tag)
		return tag, id, err
	}

	id, ok := ResolveCommandName(s)
	if !ok {
		return 0, command.UnknownCmdID, fmt.Errorf("unknown command or tag %q", s)
	}
	tag, err := tags.TagFor(id)
	return tag, id, err
}

// GetCommandName returns the command name for a tag, or "" if the tag is
// not in tags.
func GetCommandName(tags *wire.TagTable, tag wire.Tag) string {
	id, err := tags.IDFor(tag)
	if err != nil {
		return ""
	}
	return id.String()
}
