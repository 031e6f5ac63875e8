package zcl

import (
	"encoding/binary"
	"fmt"
)

// ZCL data type IDs
const (
	TypeNoData   uint8 = 0x00
	TypeBool     uint8 = 0x10
	TypeBitmap8  uint8 = 0x18
	TypeBitmap16 uint8 = 0x19
	TypeBitmap32 uint8 = 0x1B
	TypeUint8    uint8 = 0x20
	TypeUint16   uint8 = 0x21
	TypeUint32   uint8 = 0x23
	TypeInt8     uint8 = 0x28
	TypeInt16    uint8 = 0x29
	TypeInt32    uint8 = 0x2B
	TypeEnum8    uint8 = 0x30
	TypeEnum16   uint8 = 0x31
	TypeCharStr  uint8 = 0x42
)

// TypeSize returns the fixed size in bytes of a ZCL type, or -1 for variable-length types.
func TypeSize(typeID uint8) int {
	switch typeID {
	case TypeNoData:
		return 0
	case TypeBool, TypeUint8, TypeInt8, TypeEnum8, TypeBitmap8:
		return 1
	case TypeUint16, TypeInt16, TypeEnum16, TypeBitmap16:
		return 2
	case TypeUint32, TypeInt32, TypeBitmap32:
		return 4
	default:
		return -1
	}
}

// TypeName returns a human-readable name for a ZCL type.
func TypeName(typeID uint8) string {
	switch typeID {
	case TypeNoData:
		return "nodata"
	case TypeBool:
		return "bool"
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeUint32:
		return "uint32"
	case TypeInt8:
		return "int8"
	case TypeInt16:
		return "int16"
	case TypeInt32:
		return "int32"
	case TypeEnum8:
		return "enum8"
	case TypeEnum16:
		return "enum16"
	case TypeBitmap8:
		return "map8"
	case TypeBitmap16:
		return "map16"
	case TypeBitmap32:
		return "map32"
	case TypeCharStr:
		return "string"
	default:
		return fmt.Sprintf("0x%02X", typeID)
	}
}

// EncodeValue encodes a value into ZCL wire format (little-endian,
// 1-byte length prefix for strings).
func EncodeValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Bool:
		if val {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case Uint8:
		return []byte{uint8(val)}, nil
	case Int8:
		return []byte{byte(val)}, nil
	case Uint16:
		return binary.LittleEndian.AppendUint16(nil, uint16(val)), nil
	case Int16:
		return binary.LittleEndian.AppendUint16(nil, uint16(val)), nil
	case Uint32:
		return binary.LittleEndian.AppendUint32(nil, uint32(val)), nil
	case Int32:
		return binary.LittleEndian.AppendUint32(nil, uint32(val)), nil
	case String:
		if len(val) > 254 {
			return nil, fmt.Errorf("zcl: string too long for CharStr: %d (max 254)", len(val))
		}
		buf := make([]byte, 1+len(val))
		buf[0] = uint8(len(val))
		copy(buf[1:], val)
		return buf, nil
	case nil:
		return nil, fmt.Errorf("zcl: cannot encode nil value")
	}
	return nil, fmt.Errorf("zcl: encode not implemented for %T", v)
}

// DecodeValue decodes a ZCL typed value from raw bytes, returning the value and bytes consumed.
func DecodeValue(typeID uint8, data []byte) (Value, int, error) {
	if typeID == TypeCharStr {
		if len(data) < 1 {
			return nil, 0, fmt.Errorf("zcl: no length byte for string type")
		}
		length := int(data[0])
		if length == 0xFF {
			return String(""), 1, nil // invalid string reads as empty
		}
		if len(data) < 1+length {
			return nil, 0, fmt.Errorf("zcl: string truncated: need %d, have %d", length, len(data)-1)
		}
		return String(data[1 : 1+length]), 1 + length, nil
	}

	size := TypeSize(typeID)
	if size <= 0 {
		return nil, 0, fmt.Errorf("zcl: unsupported type 0x%02X", typeID)
	}
	if len(data) < size {
		return nil, 0, fmt.Errorf("zcl: not enough data for type 0x%02X: need %d, have %d", typeID, size, len(data))
	}

	switch typeID {
	case TypeBool:
		return Bool(data[0] != 0), 1, nil
	case TypeUint8, TypeEnum8, TypeBitmap8:
		return Uint8(data[0]), 1, nil
	case TypeInt8:
		return Int8(int8(data[0])), 1, nil
	case TypeUint16, TypeEnum16, TypeBitmap16:
		return Uint16(binary.LittleEndian.Uint16(data)), 2, nil
	case TypeInt16:
		return Int16(int16(binary.LittleEndian.Uint16(data))), 2, nil
	case TypeUint32, TypeBitmap32:
		return Uint32(binary.LittleEndian.Uint32(data)), 4, nil
	case TypeInt32:
		return Int32(int32(binary.LittleEndian.Uint32(data))), 4, nil
	}
	return nil, 0, fmt.Errorf("zcl: unsupported type 0x%02X", typeID)
}
