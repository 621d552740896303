package subscription

import (
	"database/sql/driver"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Features is the plan feature snapshot, stored as JSONB.
type Features []string

func (f Features) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	return json.MarshalToString([]string(f))
}

func (f *Features) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.UnmarshalFromString(v, f)
	default:
		return fmt.Errorf("unsupported features column type %T", src)
	}
}

// Limits is the plan quota snapshot, stored as JSONB. A value of -1 means
// unlimited.
type Limits map[string]int64

func (l Limits) Value() (driver.Value, error) {
	if l == nil {
		return "{}", nil
	}
	return json.MarshalToString(map[string]int64(l))
}

func (l *Limits) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.UnmarshalFromString(v, l)
	default:
		return fmt.Errorf("unsupported limits column type %T", src)
	}
}
