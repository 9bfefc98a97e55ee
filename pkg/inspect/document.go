package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// ErrInvalidDocument indicates a command document that cannot be turned
// into a command.
var ErrInvalidDocument = errors.New("invalid command document")

// Document is the YAML form of one command.
type Document struct {
	Command string    `yaml:"command"`
	Fields  yaml.Node `yaml:"fields,omitempty"`
}

// wifiListFields is the document form of ProvisioningListWifiNetworks.
type wifiListFields struct {
	Networks []command.WiFiNetwork `yaml:"networks"`
}

// ParseDocument builds and validates the command described by data.
// Unknown field keys are rejected.
func ParseDocument(data []byte) (command.Message, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return doc.Message()
}

// ParseDocuments reads a stream of "---" separated documents.
func ParseDocuments(r io.Reader) ([]command.Message, error) {
	dec := yaml.NewDecoder(r)
	var msgs []command.Message
	for {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return msgs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidDocument, len(msgs)+1, err)
		}
		msg, err := doc.Message()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(msgs)+1, err)
		}
		msgs = append(msgs, msg)
	}
}

// Message builds and validates the command described by d.
func (d *Document) Message() (command.Message, error) {
	id, ok := ResolveCommandName(d.Command)
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidDocument, d.Command)
	}
	msg, err := command.New(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if d.Fields.Kind != 0 {
		var target any = msg
		var wifi wifiListFields
		if id == command.ProvisioningListWifiNetworksID {
			target = &wifi
		}
		if err := decodeStrict(&d.Fields, target); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, id, err)
		}
		if id == command.ProvisioningListWifiNetworksID {
			if err := msg.(*command.ProvisioningListWifiNetworks).SetList(wifi.Networks); err != nil {
				return nil, err
			}
		}
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// decodeStrict decodes node into out, failing on keys out does not have.
func decodeStrict(node *yaml.Node, out any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// MarshalDocument renders msg as a command document.
func MarshalDocument(msg command.Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil command", ErrInvalidDocument)
	}
	var fields any = msg
	if m, ok := msg.(*command.ProvisioningListWifiNetworks); ok {
		fields = wifiListFields{Networks: m.List()}
	}
	out := struct {
		Command string `yaml:"command"`
		Fields  any    `yaml:"fields"`
	}{msg.ID().String(), fields}
	return yaml.Marshal(out)
}
