package scpi

import (
	"strconv"
	"strings"
)

// Identity is the parsed *IDN? response.
type Identity struct {
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// ParseIdentity parses a *IDN? payload of the conventional four
// comma-separated fields.
func ParseIdentity(payload string) (Identity, error) {
	parts := strings.Split(payload, ",")
	if len(parts) != 4 {
		return Identity{}, fieldError("identity", payload)
	}
	return Identity{
		Manufacturer: strings.TrimSpace(parts[0]),
		Model:        strings.TrimSpace(parts[1]),
		Serial:       strings.TrimSpace(parts[2]),
		Firmware:     strings.TrimSpace(parts[3]),
	}, nil
}

// ChannelCount returns the analog channel count encoded as the last
// digit of the model number, or zero when the model carries none.
func (id Identity) ChannelCount() int {
	for i := len(id.Model) - 1; i >= 0; i-- {
		if c := id.Model[i]; c >= '0' && c <= '9' {
			return int(c - '0')
		}
	}
	return 0
}

// String returns the identity in its wire form.
func (id Identity) String() string {
	return id.Manufacturer + "," + id.Model + "," + id.Serial + "," + id.Firmware
}

// SystemError is a parsed SYST:ERR? payload.
type SystemError struct {
	Code    int
	Message string
}

// ParseSystemError parses a system error payload: a signed code, a
// comma, and a usually-quoted message.
func ParseSystemError(payload string) (SystemError, error) {
	code, msg, ok := strings.Cut(payload, ",")
	if !ok {
		return SystemError{}, fieldError("system error", payload)
	}
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return SystemError{}, fieldError("system error code", payload)
	}
	msg = strings.TrimSpace(msg)
	msg = strings.Trim(msg, `"`)
	return SystemError{Code: n, Message: msg}, nil
}

// IsError returns true for a nonzero error code.
func (e SystemError) IsError() bool {
	return e.Code != 0
}
