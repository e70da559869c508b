package simpleexcel

import (
	"fmt"
	"strconv"
	"time"
)

// coerceValue converts a record value to what is stored in the cell and to the
// display string the merger compares. nil leaves the cell blank.
func coerceValue(v interface{}, dateFormat string) (interface{}, string) {
	switch val := v.(type) {
	case nil:
		return nil, ""
	case string:
		return val, val
	case []byte:
		return string(val), string(val)
	case time.Time:
		s := val.Format(dateFormat)
		return s, s
	case *time.Time:
		if val == nil {
			return nil, ""
		}
		s := val.Format(dateFormat)
		return s, s
	case bool:
		if val {
			return val, "TRUE"
		}
		return val, "FALSE"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return val, fmt.Sprint(val)
	case float32:
		return val, strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return val, strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		s := val.String()
		return s, s
	default:
		s := fmt.Sprint(val)
		return s, s
	}
}
