package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrValidationFailed is returned when a program fails parsing or any
// validation layer. The wrapped message carries every discovered error.
var ErrValidationFailed = errors.New("validation_failed")

// Parse decodes and validates a program from JSON. On success the
// returned ValidationResult may still carry warnings. On failure the
// error wraps ErrValidationFailed and the result (when non-nil) lists
// every finding.
func (v *Validator) Parse(data []byte) (*Program, *ValidationResult, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		res := &ValidationResult{
			Errors: []string{fmt.Sprintf("invalid JSON: %v", err)},
		}
		return nil, res, fmt.Errorf("%w: invalid JSON: %v", ErrValidationFailed, err)
	}
	return v.validateParsed(&p)
}

// ParseDocument validates a program supplied as an already-decoded
// document object (the second parse surface).
func (v *Validator) ParseDocument(doc map[string]any) (*Program, *ValidationResult, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		res := &ValidationResult{
			Errors: []string{fmt.Sprintf("document not encodable: %v", err)},
		}
		return nil, res, fmt.Errorf("%w: document not encodable: %v", ErrValidationFailed, err)
	}
	return v.Parse(data)
}

func (v *Validator) validateParsed(p *Program) (*Program, *ValidationResult, error) {
	res := v.Validate(p)
	if !res.IsValid {
		return nil, res, fmt.Errorf("%w: %s", ErrValidationFailed, res.Summary())
	}
	return p, res, nil
}
