package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string, opts FilterOptions) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// jsonEvent is the JSON form of an event with enum names spelled out.
type jsonEvent struct {
	Timestamp    string `json:"timestamp"`
	ConnectionID string `json:"connection_id"`
	Direction    string `json:"direction"`
	Layer        string `json:"layer"`
	Category     string `json:"category"`
	RemoteAddr   string `json:"remote_addr,omitempty"`

	Frame *log.FrameEvent `json:"frame,omitempty"`

	Command        string `json:"command,omitempty"`
	Tag            string `json:"tag,omitempty"`
	Size           int    `json:"size,omitempty"`
	Status         string `json:"status,omitempty"`
	ProcessingTime int64  `json:"processing_time_ns,omitempty"`

	State *log.StateChangeEvent `json:"state,omitempty"`

	Error        string `json:"error,omitempty"`
	ErrorContext string `json:"error_context,omitempty"`
}

func toJSONEvent(event log.Event) jsonEvent {
	je := jsonEvent{
		Timestamp:    event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		ConnectionID: event.ConnectionID,
		Direction:    event.Direction.String(),
		Layer:        event.Layer.String(),
		Category:     event.Category.String(),
		RemoteAddr:   event.RemoteAddr,
		Frame:        event.Frame,
		State:        event.StateChange,
	}
	if m := event.Message; m != nil {
		je.Command = m.CommandID.String()
		je.Tag = m.Tag.String()
		je.Size = m.Size
		je.Status = m.Status.String()
		if m.ProcessingTime != nil {
			je.ProcessingTime = m.ProcessingTime.Nanoseconds()
		}
	}
	if e := event.Error; e != nil {
		je.Error = e.Message
		je.ErrorContext = e.Context
		if e.Status != nil {
			je.Status = e.Status.String()
		}
	}
	return je
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "connection_id", "direction", "layer", "category", "type", "command", "tag", "size", "status"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		je := toJSONEvent(event)
		eventType := "unknown"
		size := ""
		switch {
		case event.Frame != nil:
			eventType = "frame"
			size = strconv.Itoa(event.Frame.Size)
		case event.Message != nil:
			eventType = "command"
			size = strconv.Itoa(event.Message.Size)
		case event.StateChange != nil:
			eventType = "state"
		case event.Error != nil:
			eventType = "error"
		}

		row := []string{
			je.Timestamp,
			je.ConnectionID,
			je.Direction,
			je.Layer,
			je.Category,
			eventType,
			je.Command,
			je.Tag,
			size,
			je.Status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return cw.Error()
}
