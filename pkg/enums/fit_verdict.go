package enums

import "fmt"

// FitVerdict is the outcome of checking a design image against a product print area.
type FitVerdict string

const (
	FitVerdictGood    FitVerdict = "good"
	FitVerdictWarning FitVerdict = "warning"
	FitVerdictError   FitVerdict = "error"
)

var validFitVerdicts = []FitVerdict{
	FitVerdictGood,
	FitVerdictWarning,
	FitVerdictError,
}

// String implements fmt.Stringer.
func (v FitVerdict) String() string {
	return string(v)
}

// IsValid reports whether the value is a known FitVerdict.
func (v FitVerdict) IsValid() bool {
	for _, candidate := range validFitVerdicts {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseFitVerdict converts raw input into a FitVerdict.
func ParseFitVerdict(value string) (FitVerdict, error) {
	for _, candidate := range validFitVerdicts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fit verdict %q", value)
}
