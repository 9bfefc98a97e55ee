package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

func TestEventRoundTripFrame(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 123456789, time.UTC)
	event := Event{
		Timestamp:    ts,
		ConnectionID: "6f1c2a9e-3d0b-4f7a-9c3e-2b1a0d9e8f7c",
		Direction:    DirectionOut,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		RemoteAddr:   "10.0.0.2:443",
		Frame:        &FrameEvent{Size: 44, Data: []byte{0xda, 0x00, 0x01}},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(ts) {
		t.Errorf("Timestamp: got %v, want %v (nanoseconds must survive)", decoded.Timestamp, ts)
	}
	if decoded.ConnectionID != event.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, event.ConnectionID)
	}
	if decoded.Direction != DirectionOut || decoded.Layer != LayerTransport {
		t.Errorf("direction/layer: got %s/%s", decoded.Direction, decoded.Layer)
	}
	if decoded.RemoteAddr != event.RemoteAddr {
		t.Errorf("RemoteAddr: got %q", decoded.RemoteAddr)
	}
	if decoded.Frame == nil || decoded.Frame.Size != 44 || !bytes.Equal(decoded.Frame.Data, event.Frame.Data) {
		t.Errorf("Frame: got %+v", decoded.Frame)
	}
	if decoded.Message != nil || decoded.Error != nil || decoded.StateChange != nil {
		t.Error("unset payloads must stay nil")
	}
}

func TestEventRoundTripMessage(t *testing.T) {
	took := 1500 * time.Microsecond
	event := Event{
		Timestamp: time.Now(),
		Layer:     LayerWire,
		Message: &MessageEvent{
			CommandID:      command.ProvisioningWifiConfigID,
			Tag:            wire.TagProvisioningWifiConfig,
			Size:           21,
			Status:         wire.StatusComplete,
			ProcessingTime: &took,
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	m := decoded.Message
	if m == nil {
		t.Fatal("Message is nil")
	}
	if m.CommandID != command.ProvisioningWifiConfigID {
		t.Errorf("CommandID: got %s", m.CommandID)
	}
	if m.Tag != wire.TagProvisioningWifiConfig {
		t.Errorf("Tag: got %s", m.Tag)
	}
	if m.Size != 21 || m.Status != wire.StatusComplete {
		t.Errorf("Size/Status: got %d/%s", m.Size, m.Status)
	}
	if m.ProcessingTime == nil || *m.ProcessingTime != took {
		t.Errorf("ProcessingTime: got %v", m.ProcessingTime)
	}
}

func TestEventRoundTripError(t *testing.T) {
	status := wire.StatusMalformedMessage
	event := Event{
		Timestamp: time.Now(),
		Direction: DirectionIn,
		Layer:     LayerWire,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerWire,
			Message: "malformed message: field 0 (thing_id): unexpected major type 2",
			Status:  &status,
			Context: "decode",
		},
	}
	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.Error == nil || decoded.Error.Status == nil || *decoded.Error.Status != status {
		t.Fatalf("Error: got %+v", decoded.Error)
	}
	if decoded.Error.Context != "decode" {
		t.Errorf("Context: got %q", decoded.Error.Context)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}

func TestCaptureFrame(t *testing.T) {
	small := CaptureFrame(7, []byte{1, 2, 3})
	if small.Truncated || len(small.Data) != 3 || small.Size != 7 {
		t.Errorf("small frame: got %+v", small)
	}

	payload := make([]byte, MaxFrameCapture+10)
	big := CaptureFrame(len(payload)+4, payload)
	if !big.Truncated {
		t.Error("large frame must be truncated")
	}
	if len(big.Data) != MaxFrameCapture {
		t.Errorf("captured %d bytes, want %d", len(big.Data), MaxFrameCapture)
	}

	payload[0] = 0xaa
	if small := CaptureFrame(1, payload[:1]); small.Data[0] != 0xaa {
		t.Error("capture must copy the current payload")
	}
	payload[0] = 0xbb
	if big.Data[0] != 0 {
		t.Error("capture must not alias the payload")
	}
}
