package enums

import "fmt"

// FailureKind classifies why a checkout attempt failed.
type FailureKind string

const (
	FailureKindBlocked FailureKind = "blocked"
	FailureKindGeneric FailureKind = "generic"
)

var validFailureKinds = []FailureKind{
	FailureKindBlocked,
	FailureKindGeneric,
}

// String implements fmt.Stringer.
func (v FailureKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FailureKind.
func (v FailureKind) IsValid() bool {
	for _, candidate := range validFailureKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFailureKind converts raw input into a FailureKind.
func ParseFailureKind(value string) (FailureKind, error) {
	for _, candidate := range validFailureKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid failure kind %q", value)
}
