package commands

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/inspect"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

// Output formats of encode and input formats of decode.
const (
	FormatHex = "hex"
	FormatBin = "bin"
)

// ErrDecodeFailed is returned by RunDecode when at least one command did
// not decode. The failures themselves are printed.
var ErrDecodeFailed = errors.New("decode failed")

// readSource reads path, or stdin for "-".
func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// RunEncode encodes every command document in docPath. Hex output is one
// line per command; binary output is the concatenated CBOR items.
func RunEncode(docPath, format string, w io.Writer) error {
	if format != FormatHex && format != FormatBin {
		return fmt.Errorf("unknown format: %s (supported: hex, bin)", format)
	}

	data, err := readSource(docPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", docPath, err)
	}
	msgs, err := inspect.ParseDocuments(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return fmt.Errorf("%s contains no command documents", docPath)
	}

	for _, msg := range msgs {
		encoded, err := wire.Marshal(msg)
		if err != nil {
			return err
		}
		if format == FormatHex {
			_, err = fmt.Fprintln(w, hex.EncodeToString(encoded))
		} else {
			_, err = w.Write(encoded)
		}
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// splitHex returns one byte slice per non-empty line of text. Whitespace
// inside a line is ignored.
func splitHex(text string) ([][]byte, error) {
	var items [][]byte
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), "")
		line = strings.TrimPrefix(line, "0x")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %w", line, err)
		}
		items = append(items, b)
	}
	return items, scanner.Err()
}

// splitItems splits concatenated CBOR data items.
func splitItems(data []byte) ([][]byte, error) {
	var items [][]byte
	dec := cbor.NewDecoder(bytes.NewReader(data))
	for {
		var raw cbor.RawMessage
		err := dec.Decode(&raw)
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			// The rest cannot be split; hand it to the codec as one item so
			// it is reported as malformed.
			return append(items, data[dec.NumBytesRead():]), nil
		}
		items = append(items, []byte(raw))
	}
}

// RunDecode decodes commands from input and prints them. With hex format,
// input is either a file of hex lines or a hex string; with bin format it
// is a file of concatenated CBOR items.
func RunDecode(input, format string, f *inspect.Formatter, w io.Writer) error {
	var items [][]byte
	switch format {
	case FormatHex:
		text := input
		if data, err := readSource(input); err == nil {
			text = string(data)
		}
		var err error
		if items, err = splitHex(text); err != nil {
			return err
		}
	case FormatBin:
		data, err := readSource(input)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", input, err)
		}
		if items, err = splitItems(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s (supported: hex, bin)", format)
	}

	if len(items) == 0 {
		return fmt.Errorf("no commands in %s input", format)
	}

	failed := 0
	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		msg, err := wire.Decode(item)
		if err != nil {
			failed++
			fmt.Fprintln(w, f.FormatDecodeError(item, err))
			continue
		}
		out, err := f.FormatMessage(msg, item)
		if err != nil {
			return err
		}
		fmt.Fprint(w, out)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d commands", ErrDecodeFailed, failed, len(items))
	}
	return nil
}

// RunTags prints the tag table.
func RunTags(f *inspect.Formatter, w io.Writer) error {
	_, err := fmt.Fprint(w, f.FormatTagTable(wire.DefaultTagTable().Rows()))
	return err
}
