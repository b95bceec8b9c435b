package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDArray maps a Postgres uuid[] column. The literal form "{a,b}" is also
// what gets stored in sqlite text columns.
type UUIDArray []uuid.UUID

func (a *UUIDArray) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		return a.parse(v)
	case []byte:
		return a.parse(string(v))
	default:
		return fmt.Errorf("UUIDArray: unsupported Scan type %T", src)
	}
}

func (a UUIDArray) Value() (driver.Value, error) {
	return "{" + strings.Join(a.Strings(), ",") + "}", nil
}

// GormDataType keeps AutoMigrate from guessing a type.
func (UUIDArray) GormDataType() string {
	return "uuid[]"
}

// Strings renders the ids in order.
func (a UUIDArray) Strings() []string {
	out := make([]string, 0, len(a))
	for _, id := range a {
		out = append(out, id.String())
	}
	return out
}

func (a *UUIDArray) parse(s string) error {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	if strings.TrimSpace(s) == "" {
		*a = UUIDArray{}
		return nil
	}

	raw := strings.Split(s, ",")
	out := make(UUIDArray, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(strings.Trim(r, `"`))
		id, err := uuid.Parse(r)
		if err != nil {
			return fmt.Errorf("UUIDArray: parse %q: %w", r, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}
