package util

import (
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// ParseLimit 解析 limit 查询参数，空串时返回默认值
func ParseLimit(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidLimit
	}
	return n, nil
}

func IntPtr(v int) *int { return &v }

func UintPtr(v uint) *uint { return &v }
