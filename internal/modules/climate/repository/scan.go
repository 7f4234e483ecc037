package repository

import (
	"errors"
	"fmt"
	"time"

	"climate-server/internal/modules/climate/types"
)

// isoDate scans a date column into its YYYY-MM-DD text. Text columns pass
// through unchanged; drivers that hand back time.Time for DATE columns are
// formatted with types.DateLayout.
type isoDate string

func (d *isoDate) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*d = isoDate(v)
	case []byte:
		*d = isoDate(v)
	case time.Time:
		*d = isoDate(v.Format(types.DateLayout))
	case nil:
		return errors.New("scan date: unexpected NULL")
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	return nil
}

type nullISODate struct {
	Date  string
	Valid bool
}

func (n *nullISODate) Scan(src any) error {
	if src == nil {
		n.Date, n.Valid = "", false
		return nil
	}
	var d isoDate
	if err := d.Scan(src); err != nil {
		return err
	}
	n.Date, n.Valid = string(d), true
	return nil
}
