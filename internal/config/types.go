package config

import "encoding/json"

const redacted = "[REDACTED]"

// Secret holds a credential such as the session token. It formats, and
// marshals to JSON, as "[REDACTED]"; Value is the only way to read it.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string { return "Secret(" + redacted + ")" }

func (s Secret) Value() string { return string(s) }

func (s Secret) IsSet() bool { return s != "" }

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalText stores the raw value, so env and YAML tokens load as-is.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}
