package rsession

import (
	"sort"
	"strconv"
)

// Values represents application data held by a session.
type Values map[string]interface{}

// Get returns value for key or nil.
func (v Values) Get(key string) interface{} {
	return v[key]
}

// GetOr returns value for key or defaultValue when absent.
func (v Values) GetOr(key string, defaultValue interface{}) interface{} {
	if value, ok := v[key]; ok && value != nil {
		return value
	}
	return defaultValue
}

// Has reports whether key is set.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// Set sets key value.
func (v Values) Set(key string, value interface{}) {
	v[key] = value
}

// Remove deletes key.
func (v Values) Remove(key string) {
	delete(v, key)
}

// Incr increments integer value of key and returns the result; absent or non-numeric values count as 0.
func (v Values) Incr(key string) int64 {
	return v.add(key, 1)
}

// Decr decrements integer value of key and returns the result.
func (v Values) Decr(key string) int64 {
	return v.add(key, -1)
}

func (v Values) add(key string, delta int64) int64 {
	result := asInt64(v[key]) + delta
	v[key] = result
	return result
}

// Keys returns sorted keys.
func (v Values) Keys() []string {
	result := make([]string, 0, len(v))
	for k := range v {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

func asInt64(value interface{}) int64 {
	switch actual := value.(type) {
	case int:
		return int64(actual)
	case int32:
		return int64(actual)
	case int64:
		return actual
	case uint:
		return int64(actual)
	case uint32:
		return int64(actual)
	case uint64:
		return int64(actual)
	case float32:
		return int64(actual)
	case float64:
		return int64(actual)
	case string:
		i, _ := strconv.ParseInt(actual, 10, 64)
		return i
	case interface{ Int64() (int64, error) }:
		i, _ := actual.Int64()
		return i
	}
	return 0
}
