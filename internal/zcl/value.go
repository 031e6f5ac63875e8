package zcl

import (
	"fmt"
	"math"
	"strconv"
)

// Value is an attribute value. It is a closed set of variants: Bool, Uint8,
// Uint16, Uint32, Int8, Int16, Int32 and String. Enumerations and bitmaps
// share the unsigned variant of their width.
type Value interface {
	// Type returns the base ZCL type ID of the variant.
	Type() uint8
	String() string
	isValue()
}

type (
	Bool   bool
	Uint8  uint8
	Uint16 uint16
	Uint32 uint32
	Int8   int8
	Int16  int16
	Int32  int32
	String string
)

func (Bool) Type() uint8   { return TypeBool }
func (Uint8) Type() uint8  { return TypeUint8 }
func (Uint16) Type() uint8 { return TypeUint16 }
func (Uint32) Type() uint8 { return TypeUint32 }
func (Int8) Type() uint8   { return TypeInt8 }
func (Int16) Type() uint8  { return TypeInt16 }
func (Int32) Type() uint8  { return TypeInt32 }
func (String) Type() uint8 { return TypeCharStr }

func (v Bool) String() string   { return strconv.FormatBool(bool(v)) }
func (v Uint8) String() string  { return strconv.FormatUint(uint64(v), 10) }
func (v Uint16) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v Uint32) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v Int8) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Int16) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v Int32) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v String) String() string { return strconv.Quote(string(v)) }

func (Bool) isValue()   {}
func (Uint8) isValue()  {}
func (Uint16) isValue() {}
func (Uint32) isValue() {}
func (Int8) isValue()   {}
func (Int16) isValue()  {}
func (Int32) isValue()  {}
func (String) isValue() {}

// Compatible reports whether v can be stored in an attribute of the given type.
func Compatible(typeID uint8, v Value) bool {
	switch v.(type) {
	case Bool:
		return typeID == TypeBool
	case Uint8:
		return typeID == TypeUint8 || typeID == TypeEnum8 || typeID == TypeBitmap8
	case Uint16:
		return typeID == TypeUint16 || typeID == TypeEnum16 || typeID == TypeBitmap16
	case Uint32:
		return typeID == TypeUint32 || typeID == TypeBitmap32
	case Int8:
		return typeID == TypeInt8
	case Int16:
		return typeID == TypeInt16
	case Int32:
		return typeID == TypeInt32
	case String:
		return typeID == TypeCharStr
	}
	return false
}

// Zero returns the zero value for a ZCL type.
func Zero(typeID uint8) (Value, error) {
	switch typeID {
	case TypeBool:
		return Bool(false), nil
	case TypeUint8, TypeEnum8, TypeBitmap8:
		return Uint8(0), nil
	case TypeUint16, TypeEnum16, TypeBitmap16:
		return Uint16(0), nil
	case TypeUint32, TypeBitmap32:
		return Uint32(0), nil
	case TypeInt8:
		return Int8(0), nil
	case TypeInt16:
		return Int16(0), nil
	case TypeInt32:
		return Int32(0), nil
	case TypeCharStr:
		return String(""), nil
	}
	return nil, fmt.Errorf("zcl: no value variant for type %s", TypeName(typeID))
}

// ValueOf converts a loosely typed Go value (JSON, YAML or Lua number, bool
// or string) into the variant for typeID, checking range.
func ValueOf(typeID uint8, val any) (Value, error) {
	if v, ok := val.(Value); ok {
		if !Compatible(typeID, v) {
			return nil, fmt.Errorf("zcl: %T does not fit type %s", v, TypeName(typeID))
		}
		return v, nil
	}

	switch typeID {
	case TypeBool:
		v, ok := toBool(val)
		if !ok {
			return nil, fmt.Errorf("zcl: cannot convert %T to bool", val)
		}
		return Bool(v), nil

	case TypeUint8, TypeEnum8, TypeBitmap8:
		v, err := unsignedIn(val, math.MaxUint8, typeID)
		if err != nil {
			return nil, err
		}
		return Uint8(v), nil

	case TypeUint16, TypeEnum16, TypeBitmap16:
		v, err := unsignedIn(val, math.MaxUint16, typeID)
		if err != nil {
			return nil, err
		}
		return Uint16(v), nil

	case TypeUint32, TypeBitmap32:
		v, err := unsignedIn(val, math.MaxUint32, typeID)
		if err != nil {
			return nil, err
		}
		return Uint32(v), nil

	case TypeInt8:
		v, err := signedIn(val, math.MinInt8, math.MaxInt8, typeID)
		if err != nil {
			return nil, err
		}
		return Int8(v), nil

	case TypeInt16:
		v, err := signedIn(val, math.MinInt16, math.MaxInt16, typeID)
		if err != nil {
			return nil, err
		}
		return Int16(v), nil

	case TypeInt32:
		v, err := signedIn(val, math.MinInt32, math.MaxInt32, typeID)
		if err != nil {
			return nil, err
		}
		return Int32(v), nil

	case TypeCharStr:
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("zcl: cannot convert %T to string", val)
		}
		if len(s) > 254 {
			return nil, fmt.Errorf("zcl: string too long for CharStr: %d (max 254)", len(s))
		}
		return String(s), nil
	}

	return nil, fmt.Errorf("zcl: no value variant for type %s", TypeName(typeID))
}

func unsignedIn(val any, max uint64, typeID uint8) (uint64, error) {
	v, ok := toUint64(val)
	if !ok {
		return 0, fmt.Errorf("zcl: cannot convert %T to %s", val, TypeName(typeID))
	}
	if v > max {
		return 0, fmt.Errorf("zcl: value %d overflows %s (max %d)", v, TypeName(typeID), max)
	}
	return v, nil
}

func signedIn(val any, min, max int64, typeID uint8) (int64, error) {
	v, ok := toInt64(val)
	if !ok {
		return 0, fmt.Errorf("zcl: cannot convert %T to %s", val, TypeName(typeID))
	}
	if v < min || v > max {
		return 0, fmt.Errorf("zcl: value %d overflows %s (range %d..%d)", v, TypeName(typeID), min, max)
	}
	return v, nil
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	}
	return false, false
}

func toUint64(v any) (uint64, bool) {
	switch val := v.(type) {
	case uint8:
		return uint64(val), true
	case uint16:
		return uint64(val), true
	case uint32:
		return uint64(val), true
	case uint64:
		return val, true
	case int:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	case int64:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	case float64:
		if val < 0 || val != math.Trunc(val) || val > math.MaxUint64 {
			return 0, false
		}
		return uint64(val), true
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case int:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float64:
		if val != math.Trunc(val) || val > math.MaxInt64 || val < math.MinInt64 {
			return 0, false
		}
		return int64(val), true
	}
	return 0, false
}
