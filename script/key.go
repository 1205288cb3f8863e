package script

import (
	"math"
	"reflect"
	"strconv"
)

// Key is a collection key: an integer index or a string name.
type Key struct {
	name  string
	index int
	isInt bool
}

// IntKey returns an integer key.
func IntKey(i int) Key {
	return Key{index: i, isInt: true}
}

// NameKey returns a string key. Canonical integer strings become integer keys.
func NameKey(s string) Key {
	if i, ok := canonicalInt(s); ok {
		return IntKey(i)
	}
	return Key{name: s}
}

// KeyOf converts a Go value to a key. Only integer kinds and strings are
// supported keys.
func KeyOf(v any) (Key, bool) {
	switch k := v.(type) {
	case Key:
		return k, true
	case string:
		return NameKey(k), true
	case int:
		return IntKey(k), true
	case int64:
		if k < math.MinInt || k > math.MaxInt {
			return Key{}, false
		}
		return IntKey(int(k)), true
	case int32:
		return IntKey(int(k)), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntKey(int(rv.Int())), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt {
			return Key{}, false
		}
		return IntKey(int(u)), true
	case reflect.String:
		return NameKey(rv.String()), true
	}
	return Key{}, false
}

// IsInt reports an integer key.
func (k Key) IsInt() bool { return k.isInt }

// Int returns the integer value of an integer key.
func (k Key) Int() int { return k.index }

// String returns the property name for the key.
func (k Key) String() string {
	if k.isInt {
		return strconv.Itoa(k.index)
	}
	return k.name
}

// Value returns the key as int or string.
func (k Key) Value() any {
	if k.isInt {
		return k.index
	}
	return k.name
}

func canonicalInt(s string) (int, bool) {
	if s == "" || len(s) > 18 {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	start := 0
	if s[0] == '-' {
		start = 1
	}
	if start >= len(s) || s[start] == '0' {
		return 0, false
	}
	for i := start; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(s)
	return i, err == nil
}
