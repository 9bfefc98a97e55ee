package inspect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/wire"
)

func TestFormatMessage(t *testing.T) {
	f := NewFormatter(nil)

	out, err := f.FormatMessage(&command.ThingBegin{ThingID: "thing-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ThingBegin [tag 0x010300]\n  thing_id: thing-1\n", out)

	out, err = f.FormatMessage(&command.LastValuesBegin{}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "(no fields)")

	out, err = f.FormatMessage(&command.DeviceAttached{}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "DeviceAttached [local only]"), out)
}

func TestFormatMessageHex(t *testing.T) {
	f := NewFormatter(nil)
	f.ShowTags = false
	f.ShowHex = true

	msg := &command.TimezoneUp{}
	data, err := wire.Marshal(msg)
	require.NoError(t, err)

	out, err := f.FormatMessage(msg, data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TimezoneUp\n"), out)
	assert.Contains(t, out, "da 00 01 08 00 80")
}

func TestFormatDecodeError(t *testing.T) {
	f := NewFormatter(nil)

	data := []byte{0xda, 0x00, 0xab, 0xcd, 0xef, 0x80}
	_, err := wire.Decode(data)
	require.Error(t, err)
	out := f.FormatDecodeError(data, err)
	assert.True(t, strings.HasPrefix(out, "UNKNOWN_TAG: tag 0xabcdef"), out)

	data = []byte{0xda, 0x00, 0x01, 0x03, 0x00, 0x82, 0x61, 0x61, 0x61, 0x62}
	_, err = wire.Decode(data)
	require.Error(t, err)
	out = f.FormatDecodeError(data, err)
	assert.True(t, strings.HasPrefix(out, "MALFORMED_MESSAGE: ThingBegin [tag 0x010300]"), out)
}

func TestFormatTagTable(t *testing.T) {
	f := NewFormatter(nil)
	out := f.FormatTagTable(wire.DefaultTagTable().Rows())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 1+wire.DefaultTagTable().Len())
	assert.True(t, strings.HasPrefix(lines[0], "TAG"))
	assert.Contains(t, out, "0x012011  ProvisioningJWT")
	assert.Equal(t, "  (no tags)\n", f.FormatTagTable(nil))
}

func TestIndent(t *testing.T) {
	f := &Formatter{}
	assert.Equal(t, "    x", f.Indent(2, "x"))
	f.IndentWidth = 4
	assert.Equal(t, "    x", f.Indent(1, "x"))
}

func TestFormatMessageJWTClaims(t *testing.T) {
	// {"alg":"HS256","typ":"JWT"}.{"sub":"thing-1","iat":1712345678}
	token := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
		"eyJzdWIiOiJ0aGluZy0xIiwiaWF0IjoxNzEyMzQ1Njc4fQ." +
		"c2lnbmF0dXJl"
	msg := &command.ProvisioningJWT{JWT: command.Token(token)}

	f := NewFormatter(nil)
	out, err := f.FormatMessage(msg, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "jwt header:\n    alg: HS256\n    typ: JWT\n")
	assert.Contains(t, out, "jwt claims:\n    iat: 1.712345678e+09\n    sub: thing-1\n")

	f.ShowClaims = false
	out, err = f.FormatMessage(msg, nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "jwt claims")
}

func TestFormatTokenUndecodable(t *testing.T) {
	f := NewFormatter(nil)
	out := f.FormatToken(command.Token("not-a-jwt"))
	assert.True(t, strings.HasPrefix(out, "  (undecodable token: "), out)

	_, _, err := TokenClaims(command.Token("a.b"))
	assert.Error(t, err)
}
