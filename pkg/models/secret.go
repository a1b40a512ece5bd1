package models

// SecretState tells which variant a SecretField holds.
type SecretState int

const (
	// SecretUnset means no value is stored and none is pending.
	SecretUnset SecretState = iota
	// SecretConfigured means the host holds a value the editor cannot read.
	SecretConfigured
	// SecretPending means a new value was entered and awaits persistence.
	SecretPending
)

func (s SecretState) String() string {
	switch s {
	case SecretConfigured:
		return "configured"
	case SecretPending:
		return "pending"
	default:
		return "unset"
	}
}

// SecretField is a write-only credential. Only a pending value carries
// plaintext, so a configured secret can never hold a stale value.
type SecretField struct {
	state SecretState
	value string
}

func UnsetSecret() SecretField { return SecretField{state: SecretUnset} }

func ConfiguredSecret() SecretField { return SecretField{state: SecretConfigured} }

func PendingSecret(value string) SecretField {
	return SecretField{state: SecretPending, value: value}
}

// SecretFromSettings rebuilds the field from the host's secureJsonFields
// and secureJsonData maps.
func SecretFromSettings(key string, fields map[string]bool, data map[string]string) SecretField {
	if v, ok := data[key]; ok && v != "" {
		return PendingSecret(v)
	}
	if fields[key] {
		return ConfiguredSecret()
	}
	return UnsetSecret()
}

func (s SecretField) State() SecretState { return s.state }

// Configured reports whether the host holds a persisted value.
func (s SecretField) Configured() bool { return s.state == SecretConfigured }

// Value returns the pending plaintext. ok is false for any other state.
func (s SecretField) Value() (value string, ok bool) {
	if s.state != SecretPending {
		return "", false
	}
	return s.value, true
}

// Set replaces the whole value slot with value.
func (s SecretField) Set(value string) SecretField {
	return PendingSecret(value)
}

// Reset un-configures the secret and clears the value slot.
func (s SecretField) Reset() SecretField {
	return UnsetSecret()
}

// Persisted is called by the host after a pending value was stored.
func (s SecretField) Persisted() SecretField {
	if s.state == SecretPending {
		return ConfiguredSecret()
	}
	return s
}

// Snapshot returns the configured flag and value slot as the host sees them.
func (s SecretField) Snapshot() (configured bool, value string) {
	return s.state == SecretConfigured, s.value
}
