// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

/*
 * Type coercion for condition checks.
 *
 * The field type of a condition comes from its literal: `age >= 18` is
 * NUMERIC, `sex == "F"` is TEXT, `consented == true` is BOOLEAN, a
 * field-to-field comparison is ANY.
 *
 * Null values and coercion failures are reported differently: a null field
 * makes the rule not applicable, a value of the wrong shape ("abc" against a
 * number) makes the condition fail.
 *
 *   - NUMERIC: strict - numeric strings accepted ("45", " 7.5 "), booleans rejected
 *   - TEXT: lenient - everything renders to a string
 *   - BOOLEAN: strict - bool only, plus the strings "true"/"false" in any
 *     case, which free-text extraction commonly produces
 *   - ANY: value kept as is
 */

// FieldType is the comparison type of a condition.
type FieldType int

const (
	FieldTypeUnspecified FieldType = iota
	FieldTypeNumeric
	FieldTypeText
	FieldTypeBoolean
	FieldTypeAny
)

func (f FieldType) String() string {
	switch f {
	case FieldTypeNumeric:
		return "numeric"
	case FieldTypeText:
		return "text"
	case FieldTypeBoolean:
		return "boolean"
	case FieldTypeAny:
		return "any"
	default:
		return "unspecified"
	}
}

// CoercionResult holds the coerced value or indicates null.
type CoercionResult struct {
	Value  any  // coerced value (valid only if !IsNull)
	IsNull bool // true if input was nil/null
}

// Coerce converts value to the expected field type.
// Returns IsNull for nil input and ErrCoercionFailed for impossible coercions.
func Coerce(value any, fieldType FieldType) (CoercionResult, error) {
	if value == nil {
		return CoercionResult{IsNull: true}, nil
	}

	switch fieldType {
	case FieldTypeNumeric:
		f, ok := numericValue(value)
		if !ok {
			return CoercionResult{}, types.ErrCoercionFailed
		}
		return CoercionResult{Value: f}, nil
	case FieldTypeText:
		return CoercionResult{Value: textValue(value)}, nil
	case FieldTypeBoolean:
		switch v := value.(type) {
		case bool:
			return CoercionResult{Value: v}, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				return CoercionResult{Value: true}, nil
			case "false":
				return CoercionResult{Value: false}, nil
			}
		}
		return CoercionResult{}, types.ErrCoercionFailed
	case FieldTypeAny, FieldTypeUnspecified:
		if n, ok := value.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				return CoercionResult{Value: f}, nil
			}
		}
		return CoercionResult{Value: value}, nil
	default:
		return CoercionResult{}, types.ErrCoercionFailed
	}
}

// numericValue accepts Go numeric kinds, json.Number and numeric strings.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		// bool and composite values are never numeric
		return 0, false
	}
}

func textValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
