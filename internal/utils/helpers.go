package utils

import "fmt"

// GetStringValue safely extracts a string value from a map
func GetStringValue(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		switch v := val.(type) {
		case string:
			return v
		case int, int64, float64, float32, bool:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

// GetOptionalString extracts a string value from a map, distinguishing an
// absent or non-string value (nil) from a present one.
func GetOptionalString(data map[string]interface{}, key string) *string {
	if val, ok := data[key]; ok {
		if s, ok := val.(string); ok {
			return &s
		}
	}
	return nil
}

// GetInt64Value safely extracts an int64 value from a map. The second return
// reports whether a usable number was present; JSON decoding yields float64
// for all numbers.
func GetInt64Value(data map[string]interface{}, key string) (int64, bool) {
	if val, ok := data[key]; ok {
		switch v := val.(type) {
		case int64:
			return v, true
		case int:
			return int64(v), true
		case float64:
			return int64(v), true
		case float32:
			return int64(v), true
		}
	}
	return 0, false
}

// GetMapValue safely extracts a nested object from a map
func GetMapValue(data map[string]interface{}, key string) map[string]interface{} {
	if val, ok := data[key]; ok {
		if m, ok := val.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

// GetSliceValue safely extracts a nested array from a map
func GetSliceValue(data map[string]interface{}, key string) []interface{} {
	if val, ok := data[key]; ok {
		if s, ok := val.([]interface{}); ok {
			return s
		}
	}
	return nil
}
