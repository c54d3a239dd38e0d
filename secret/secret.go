// Package secret masks sensitive configuration values,
// e.g. the database password, so they do not end up in logs or error messages.
package secret

import (
	"encoding/json"
	"log/slog"
)

const masked = "******"

func New(secret string) Secret {
	return Secret{secret: &secret}
}

// Secret holds a value that is masked whenever it is printed, logged, or marshalled.
// The zero value is an empty secret.
type Secret struct {
	secret *string
}

var (
	_ slog.LogValuer   = Secret{}
	_ json.Marshaler   = Secret{}
	_ json.Unmarshaler = (*Secret)(nil)
)

// Secret returns the actual value.
func (s Secret) Secret() string {
	if s.secret == nil {
		return ""
	}

	return *s.secret
}

func (s Secret) String() string {
	return masked
}

// GoString masks the value for the %#v verb.
func (s Secret) GoString() string {
	return masked
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(masked)
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(masked) //nolint:wrapcheck // export the underlying error
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err //nolint:wrapcheck // export the underlying error
	}

	s.secret = &value

	return nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(masked), nil
}

// UnmarshalText allows viper and mapstructure to decode a Secret from configuration.
func (s *Secret) UnmarshalText(data []byte) error {
	value := string(data)
	s.secret = &value

	return nil
}
