package store

import (
	"fmt"
	"strconv"
	"strings"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/zcl"
)

// attrKey renders a path as the bucket key "EEEE/CCCC/AAAA". Fixed-width hex
// keeps bolt's byte order equal to tree order.
func attrKey(p attr.Path) []byte {
	return fmt.Appendf(nil, "%04X/%04X/%04X", p.Endpoint, p.Cluster, p.Attribute)
}

func parseAttrKey(k []byte) (attr.Path, error) {
	var p attr.Path
	parts := strings.Split(string(k), "/")
	if len(parts) != 3 {
		return p, fmt.Errorf("bad attribute key %q", k)
	}
	ids := make([]uint16, 3)
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 16, 16)
		if err != nil {
			return p, fmt.Errorf("bad attribute key %q: %w", k, err)
		}
		ids[i] = uint16(n)
	}
	p.Endpoint, p.Cluster, p.Attribute = ids[0], ids[1], ids[2]
	return p, nil
}

// encodeRecord stores the value's type ID followed by its ZCL wire encoding.
func encodeRecord(v zcl.Value) ([]byte, error) {
	data, err := zcl.EncodeValue(v)
	if err != nil {
		return nil, err
	}
	return append([]byte{v.Type()}, data...), nil
}

func decodeRecord(rec []byte) (zcl.Value, error) {
	if len(rec) < 1 {
		return nil, fmt.Errorf("empty record")
	}
	v, _, err := zcl.DecodeValue(rec[0], rec[1:])
	return v, err
}
