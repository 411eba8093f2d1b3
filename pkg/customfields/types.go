package customfields

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DataType selects the pivot store a field's values live in. Boolean
// fields ride the char store as "true"/"false"; there is no dedicated
// boolean pivot.
type DataType string

const (
	TypeInteger  DataType = "integer"
	TypeChar     DataType = "char"
	TypeText     DataType = "text"
	TypeFloat    DataType = "float"
	TypeDate     DataType = "date"
	TypeDatetime DataType = "datetime"
)

// DateLayout is the wire format for date values.
const DateLayout = "2006-01-02"

// MaxCharLength bounds values in the char store; longer strings belong in
// the text store.
const MaxCharLength = 255

// Valid reports whether d names a known pivot store.
func (d DataType) Valid() bool {
	switch d {
	case TypeInteger, TypeChar, TypeText, TypeFloat, TypeDate, TypeDatetime:
		return true
	}
	return false
}

// EntityKind names a class of entities that can carry custom fields.
// Applications register their own kinds; KindTableRow is reserved for the
// Tables service.
type EntityKind string

// KindTableRow is the entity kind of dynamic table rows.
const KindTableRow EntityKind = "table_row"

// EntityRef identifies one entity instance.
type EntityRef struct {
	Kind EntityKind
	ID   uuid.UUID
}

// Target identifies what a field definition attaches to. TableID is set
// only for KindTableRow targets and scopes the definition to one table.
type Target struct {
	Kind    EntityKind
	TableID uuid.UUID
}

// RowTarget builds the target for fields of a dynamic table.
func RowTarget(tableID uuid.UUID) Target {
	return Target{Kind: KindTableRow, TableID: tableID}
}

// Coerce converts a raw payload value into the canonical Go representation
// for the data type: int64, string, float64 or time.Time. Inputs arriving
// from JSON decoding (float64 for numbers) are accepted.
func Coerce(d DataType, v any) (any, error) {
	switch d {
	case TypeInteger:
		return coerceInteger(v)
	case TypeChar:
		s, err := coerceString(v)
		if err != nil {
			return nil, err
		}
		if len(s) > MaxCharLength {
			return nil, fmt.Errorf("must be at most %d characters", MaxCharLength)
		}
		return s, nil
	case TypeText:
		return coerceString(v)
	case TypeFloat:
		return coerceFloat(v)
	case TypeDate:
		return coerceDate(v)
	case TypeDatetime:
		return coerceDatetime(v)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidTypeConfiguration, d)
	}
}

// FormatDefault renders a canonical value as the text stored in a
// definition's default column.
func FormatDefault(d DataType, v any) (string, error) {
	cv, err := Coerce(d, v)
	if err != nil {
		return "", err
	}
	switch d {
	case TypeInteger:
		return strconv.FormatInt(cv.(int64), 10), nil
	case TypeChar, TypeText:
		return cv.(string), nil
	case TypeFloat:
		return strconv.FormatFloat(cv.(float64), 'g', -1, 64), nil
	case TypeDate:
		return cv.(time.Time).Format(DateLayout), nil
	default:
		return cv.(time.Time).Format(time.RFC3339), nil
	}
}

// CoerceDefault parses a definition's text default back into the canonical
// representation. Defaults are validated at define time, so a parse failure
// here indicates corrupted configuration.
func CoerceDefault(d DataType, text string) (any, error) {
	return Coerce(d, text)
}

func coerceInteger(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("must be a whole number")
		}
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("must be an integer")
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("must be an integer")
	}
}

func coerceString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		return "", fmt.Errorf("must be a string")
	}
}

func coerceFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("must be a number")
	}
}

func coerceDate(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.Truncate(24 * time.Hour), nil
	case string:
		parsed, err := time.Parse(DateLayout, t)
		if err != nil {
			return nil, fmt.Errorf("must be a date in %s format", DateLayout)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("must be a date")
	}
}

func coerceDatetime(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return nil, fmt.Errorf("must be an RFC 3339 timestamp")
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("must be a timestamp")
	}
}
