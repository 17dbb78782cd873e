package mediaserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Type is the media server backend configured in the application. The numeric
// values match the application's wire enum.
type Type int

const (
	TypePlex          Type = 1
	TypeJellyfin      Type = 2
	TypeEmby          Type = 3
	TypeNotConfigured Type = 4
)

// String returns the wire name of the type.
func (t Type) String() string {
	switch t {
	case TypePlex:
		return "PLEX"
	case TypeJellyfin:
		return "JELLYFIN"
	case TypeEmby:
		return "EMBY"
	default:
		return "NOT_CONFIGURED"
	}
}

// Known reports whether t is one of the configured backends.
func (t Type) Known() bool {
	return t == TypePlex || t == TypeJellyfin || t == TypeEmby
}

// ParseType accepts either the wire name ("PLEX") or the numeric value ("1").
func ParseType(value string) (Type, error) {
	trimmed := strings.TrimSpace(value)
	if n, err := strconv.Atoi(trimmed); err == nil {
		t := Type(n)
		if t.Known() || t == TypeNotConfigured {
			return t, nil
		}
		return TypeNotConfigured, fmt.Errorf("unknown media server type %d", n)
	}
	switch strings.ToUpper(strings.ReplaceAll(trimmed, "-", "_")) {
	case "PLEX":
		return TypePlex, nil
	case "JELLYFIN":
		return TypeJellyfin, nil
	case "EMBY":
		return TypeEmby, nil
	case "NOT_CONFIGURED", "":
		return TypeNotConfigured, nil
	default:
		return TypeNotConfigured, fmt.Errorf("unknown media server type %q", value)
	}
}

// MarshalJSON encodes the numeric wire value.
func (t Type) MarshalJSON() ([]byte, error) {
	if !t.Known() {
		t = TypeNotConfigured
	}
	return []byte(strconv.Itoa(int(t))), nil
}

// UnmarshalJSON accepts numbers and names. Unknown values decode to
// TypeNotConfigured without failing the surrounding document.
func (t *Type) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = TypeNotConfigured
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	parsed, _ := ParseType(raw)
	*t = parsed
	return nil
}
