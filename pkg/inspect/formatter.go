package inspect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowTags includes the wire tag alongside the command name
	ShowTags bool

	// ShowHex appends a hex dump of the encoded bytes
	ShowHex bool

	// ShowClaims decodes the payload of provisioning JWTs
	ShowClaims bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int

	tags *wire.TagTable
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter(tags *wire.TagTable) *Formatter {
	if tags == nil {
		tags = wire.DefaultTagTable()
	}
	return &Formatter{
		ShowTags:    true,
		ShowClaims:  true,
		IndentWidth: 2,
		tags:        tags,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatMessage renders msg as a header line followed by its fields, one
// per line. encoded is only used when ShowHex is set and may be nil.
func (f *Formatter) FormatMessage(msg command.Message, encoded []byte) (string, error) {
	var sb strings.Builder
	sb.WriteString(f.header(msg.ID()))
	sb.WriteString("\n")

	doc, err := MarshalDocument(msg)
	if err != nil {
		return "", err
	}
	var parsed struct {
		Fields yaml.Node `yaml:"fields"`
	}
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Fields.Content) == 0 {
		sb.WriteString(f.Indent(1, "(no fields)\n"))
	} else {
		body, err := yaml.Marshal(&parsed.Fields)
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(strings.TrimRight(string(body), "\n"), "\n") {
			sb.WriteString(f.Indent(1, line))
			sb.WriteString("\n")
		}
	}

	if jwtMsg, ok := msg.(*command.ProvisioningJWT); ok && f.ShowClaims {
		sb.WriteString(f.FormatToken(jwtMsg.JWT))
	}

	if f.ShowHex && len(encoded) > 0 {
		sb.WriteString(f.FormatHex(encoded))
	}
	return sb.String(), nil
}

func (f *Formatter) header(id command.ID) string {
	if !f.ShowTags {
		return id.String()
	}
	tag, err := f.tags.TagFor(id)
	if err != nil {
		return fmt.Sprintf("%s [local only]", id)
	}
	return fmt.Sprintf("%s [tag %s]", id, tag)
}

// FormatHex returns an indented hex dump of data.
func (f *Formatter) FormatHex(data []byte) string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(hex.Dump(data), "\n"), "\n") {
		sb.WriteString(f.Indent(1, line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatDecodeError describes why data failed to decode, naming the tag
// when the tag head could be read.
func (f *Formatter) FormatDecodeError(data []byte, err error) string {
	status := wire.StatusOf(err)
	if errors.Is(err, wire.ErrUnknownTag) || errors.Is(err, wire.ErrMalformedMessage) {
		tag, id, peekErr := wire.NewDecoder(f.tags).Peek(data)
		if peekErr == nil {
			return fmt.Sprintf("%s: %s [tag %s]: %v", status, id, tag, err)
		}
		if errors.Is(peekErr, wire.ErrUnknownTag) {
			return fmt.Sprintf("%s: tag %s: %v", status, tag, err)
		}
	}
	return fmt.Sprintf("%s: %v", status, err)
}

// FormatTagTable formats the rows of a tag table as aligned columns.
func (f *Formatter) FormatTagTable(rows []wire.TagRow) string {
	if len(rows) == 0 {
		return "  (no tags)\n"
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TAG\tCOMMAND\tFAMILY")
	for _, row := range rows {
		family := "core"
		if row.ID.IsProvisioning() {
			family = "provisioning"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Tag, row.ID, family)
	}
	tw.Flush()
	return sb.String()
}
