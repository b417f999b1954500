package matrix

import (
	"fmt"
	"strings"
)

const (
	MaxDimensions         = 3
	MaxValuesPerDimension = 12
)

// FieldError is a single field-level validation failure, addressed the way
// the form UI addresses fields.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates every field failure found in one pass so the UI
// can surface them together. It blocks submit; nothing is silently dropped.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "matrix: invalid dimensions: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// ValidateDimensions checks dimension count, value counts, required names and
// case-insensitive value uniqueness within each dimension. Returns nil when
// everything passes.
func ValidateDimensions(dims []Dimension) error {
	verr := &ValidationError{}

	if len(dims) > MaxDimensions {
		verr.add("dimensions", fmt.Sprintf("at most %d dimensions allowed", MaxDimensions))
	}

	for i, d := range dims {
		field := fmt.Sprintf("dimensions[%d]", i)
		if strings.TrimSpace(d.Name) == "" {
			verr.add(field+".name", "name is required")
		}
		if len(d.Values) > MaxValuesPerDimension {
			verr.add(field+".values", fmt.Sprintf("at most %d values allowed", MaxValuesPerDimension))
		}

		seen := map[string]int{}
		for j, v := range d.Values {
			name := strings.ToLower(strings.TrimSpace(v.Name))
			if name == "" {
				verr.add(fmt.Sprintf("%s.values[%d]", field, j), "value name is required")
				continue
			}
			if prev, ok := seen[name]; ok {
				verr.add(fmt.Sprintf("%s.values[%d]", field, j),
					fmt.Sprintf("duplicate of value %d (%q)", prev, d.Values[prev].Name))
				continue
			}
			seen[name] = j
		}
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}
