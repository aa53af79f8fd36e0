// Package conv 提供类型转换工具，主要用于目录边界上松散数据的归一化。
package conv

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32、json.Number；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ParsePrice 把价格（数值或"₹2,100.00"之类的字符串）转为 float64。
//
// 字符串先去掉除数字与 '.' 以外的所有字符，再解析最长的数值前缀
// （"1.2.3" → 1.2）。解析失败、NaN/Inf、非正数都返回 (0, false)：没有价格信号。
func ParsePrice(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case string:
		f = parseNumericPrefix(stripNonNumeric(val))
	case []byte:
		f = parseNumericPrefix(stripNonNumeric(string(val)))
	default:
		n, ok := ToFloat64(v)
		if !ok {
			return 0, false
		}
		f = n
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

// ToInt64 将数值或数字字符串转为 int64，失败返回 (0, false)。
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(val)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	default:
		f, ok := ToFloat64(v)
		if !ok {
			return 0, false
		}
		return int64(f), true
	}
}

// ToString 将 string / 数值 / json.Number 转为 string。
func ToString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseNumericPrefix 解析形如 "123.45" 的最长前缀，没有数字时返回 NaN。
func parseNumericPrefix(s string) float64 {
	end := 0
	digits := 0
	dot := false
	for end < len(s) {
		c := s[end]
		if c == '.' {
			if dot {
				break
			}
			dot = true
		} else {
			digits++
		}
		end++
	}
	if digits == 0 {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
