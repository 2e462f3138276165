package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
)

// sqliteTimeLayout is fixed-width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var timeLayouts = []string{
	sqliteTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timeArg converts t to a bind value for the dialect.
func timeArg(d string, t time.Time) any {
	t = t.UTC()
	if d == dialect.SQLite {
		return t.Format(sqliteTimeLayout)
	}
	return t
}

func optTimeArg(d string, t *time.Time) any {
	if t == nil {
		return nil
	}
	return timeArg(d, *t)
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

// timeCol scans time columns stored natively or as text.
type timeCol struct {
	Time  time.Time
	Valid bool
}

func (c *timeCol) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.Time, c.Valid = time.Time{}, false
		return nil
	case time.Time:
		c.Time, c.Valid = v.UTC(), true
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("scan time: unsupported type %T", src)
	}
}

func (c *timeCol) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			c.Time, c.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("scan time: cannot parse %q", s)
}

func (c timeCol) ptr() *time.Time {
	if !c.Valid {
		return nil
	}
	t := c.Time
	return &t
}

// jsonCol scans a JSON/JSONB/TEXT column into target.
type jsonCol struct {
	target any
}

func (c jsonCol) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		// Some drivers hand back decoded JSON values.
		var err error
		if b, err = json.Marshal(v); err != nil {
			return fmt.Errorf("scan json: %w", err)
		}
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, c.target)
}

// jsonArg encodes v as JSON text.
func jsonArg(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

// optString scans a nullable text column into *string.
type optString struct {
	target **string
}

func (c optString) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c.target = nil
	case string:
		*c.target = &v
	case []byte:
		s := string(v)
		*c.target = &s
	default:
		return errors.New("scan string: unsupported type")
	}
	return nil
}

func optStringArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
