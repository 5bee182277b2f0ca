package formupload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Condition is one constraint of a policy document. The set of shapes is closed:
// ExactMatch, Range and Prefix
type Condition interface {
	json.Marshaler

	// FieldName is the form field the condition applies to, without a leading "$"
	FieldName() string

	isCondition()
}

// ExactMatch requires a form field to equal Value. Encoded as {"name":"value"}
type ExactMatch struct {
	Name  string
	Value string
}

// Range bounds the uploaded content length. Encoded as ["content-length-range",min,max]
type Range struct {
	Name string
	Min  int64
	Max  int64
}

// Prefix requires a form field to start with Value. Name carries the leading "$".
// Encoded as ["starts-with","$name","value"]
type Prefix struct {
	Name  string
	Value string
}

func (ExactMatch) isCondition() {}
func (Range) isCondition()      {}
func (Prefix) isCondition()     {}

func (c ExactMatch) FieldName() string { return strings.TrimPrefix(c.Name, "$") }
func (c Range) FieldName() string      { return c.Name }
func (c Prefix) FieldName() string     { return strings.TrimPrefix(c.Name, "$") }

// marshalJSON encodes v without HTML escaping, so <, > and & stay literal in the policy
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (c ExactMatch) MarshalJSON() ([]byte, error) {
	name, err := marshalJSON(c.Name)
	if err != nil {
		return nil, err
	}
	value, err := marshalJSON(c.Value)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.Write(name)
	buf.WriteByte(':')
	buf.Write(value)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c Range) MarshalJSON() ([]byte, error) {
	return marshalJSON([]interface{}{c.Name, c.Min, c.Max})
}

func (c Prefix) MarshalJSON() ([]byte, error) {
	return marshalJSON([]string{ConditionStartsWith, c.Name, c.Value})
}

// ParseCondition decodes one element of a policy's "conditions" array.
// Besides the three encoded shapes it accepts ["eq","$name","value"] as an ExactMatch
func ParseCondition(raw json.RawMessage) (Condition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty condition", ErrMalformedPolicy)
	}

	switch raw[0] {
	case '{':
		var obj map[string]string
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
		}
		if len(obj) != 1 {
			return nil, fmt.Errorf("%w: object condition must have exactly one field", ErrMalformedPolicy)
		}
		for name, value := range obj {
			return ExactMatch{Name: name, Value: value}, nil
		}
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
		}
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: array condition must have three elements", ErrMalformedPolicy)
		}
		var op string
		if err := json.Unmarshal(parts[0], &op); err != nil {
			return nil, fmt.Errorf("%w: condition operator: %v", ErrMalformedPolicy, err)
		}
		switch strings.ToLower(op) {
		case ConditionContentLengthRange:
			var lo, hi int64
			if err := json.Unmarshal(parts[1], &lo); err != nil {
				return nil, fmt.Errorf("%w: content-length-range min: %v", ErrMalformedPolicy, err)
			}
			if err := json.Unmarshal(parts[2], &hi); err != nil {
				return nil, fmt.Errorf("%w: content-length-range max: %v", ErrMalformedPolicy, err)
			}
			return Range{Name: ConditionContentLengthRange, Min: lo, Max: hi}, nil
		case ConditionStartsWith, ConditionEq:
			var name, value string
			if err := json.Unmarshal(parts[1], &name); err != nil {
				return nil, fmt.Errorf("%w: %s field: %v", ErrMalformedPolicy, op, err)
			}
			if err := json.Unmarshal(parts[2], &value); err != nil {
				return nil, fmt.Errorf("%w: %s value: %v", ErrMalformedPolicy, op, err)
			}
			if strings.EqualFold(op, ConditionEq) {
				return ExactMatch{Name: strings.TrimPrefix(name, "$"), Value: value}, nil
			}
			return Prefix{Name: name, Value: value}, nil
		default:
			return nil, fmt.Errorf("%w: unknown condition operator %q", ErrMalformedPolicy, op)
		}
	}

	return nil, fmt.Errorf("%w: condition must be an object or an array", ErrMalformedPolicy)
}
