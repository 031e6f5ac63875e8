package clusters

import "matter-go-light/internal/zcl"

var Identify = zcl.ClusterDef{
	ID:   IdentifyID,
	Name: "Identify",
	Attributes: []zcl.AttributeDef{
		{ID: 0x0000, Name: "IdentifyTime", Type: zcl.TypeUint16, Access: zcl.AccessRead | zcl.AccessWrite},
		{ID: 0x0001, Name: "IdentifyType", Type: zcl.TypeEnum8, Access: zcl.AccessRead, Default: 2}, // light output
	},
}
