package inspect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cloudcmd-protocol/cloudcmd-go/pkg/command"
)

// TokenClaims returns the header and claims of a provisioning JWT without
// verifying its signature.
func TokenClaims(token command.Token) (header map[string]any, claims jwt.MapClaims, err error) {
	claims = jwt.MapClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(string(token), claims)
	if err != nil {
		return nil, nil, fmt.Errorf("parse jwt: %w", err)
	}
	return parsed.Header, claims, nil
}

// FormatToken renders the header and claims of a JWT, one key per line in
// sorted order.
func (f *Formatter) FormatToken(token command.Token) string {
	header, claims, err := TokenClaims(token)
	if err != nil {
		return f.Indent(1, fmt.Sprintf("(undecodable token: %v)\n", err))
	}

	var sb strings.Builder
	sb.WriteString(f.Indent(1, "jwt header:\n"))
	writeSorted(&sb, f, header)
	sb.WriteString(f.Indent(1, "jwt claims:\n"))
	writeSorted(&sb, f, claims)
	return sb.String()
}

func writeSorted(sb *strings.Builder, f *Formatter, m map[string]any) {
	if len(m) == 0 {
		sb.WriteString(f.Indent(2, "(none)\n"))
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(f.Indent(2, fmt.Sprintf("%s: %v\n", k, m[k])))
	}
}
