package helpers

import (
	"encoding/json"
	"time"
)

// ToJsonString converts any value to JSON string.
func ToJsonString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// FormatTradeTime renders a millisecond timestamp as HH:MM:SS local time.
func FormatTradeTime(ms int64) string {
	return time.UnixMilli(ms).Format("15:04:05")
}
