package workdone

import (
	"encoding/json"
	"math"
	"strconv"
)

// Token identifies one unit of work. On the wire it is either a string or an
// integer; both are normalized to their string form so they can key a map.
type Token string

func (t Token) String() string {
	return string(t)
}

// NormalizeToken converts a decoded wire token into a Token. It reports false
// for values that cannot identify a unit of work: nil, empty strings,
// booleans, fractional numbers and anything else that is not a string or an
// integer.
func NormalizeToken(v any) (Token, bool) {
	switch t := v.(type) {
	case Token:
		return t, t != ""
	case string:
		return Token(t), t != ""
	case int:
		return Token(strconv.FormatInt(int64(t), 10)), true
	case int32:
		return Token(strconv.FormatInt(int64(t), 10)), true
	case int64:
		return Token(strconv.FormatInt(t, 10)), true
	case uint32:
		return Token(strconv.FormatUint(uint64(t), 10)), true
	case uint64:
		return Token(strconv.FormatUint(t, 10)), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t != math.Trunc(t) {
			return "", false
		}
		return Token(strconv.FormatInt(int64(t), 10)), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Token(strconv.FormatInt(i, 10)), true
		}
		return "", false
	default:
		return "", false
	}
}
