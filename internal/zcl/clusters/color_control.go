package clusters

import "matter-go-light/internal/zcl"

var ColorControl = zcl.ClusterDef{
	ID:   ColorControlID,
	Name: "Color Control",
	Attributes: []zcl.AttributeDef{
		{ID: AttrCurrentHue, Name: "CurrentHue", Type: zcl.TypeUint8, Access: zcl.AccessRead | zcl.AccessReport},
		{ID: AttrCurrentSaturation, Name: "CurrentSaturation", Type: zcl.TypeUint8, Access: zcl.AccessRead | zcl.AccessReport},
		{ID: 0x0002, Name: "RemainingTime", Type: zcl.TypeUint16, Access: zcl.AccessRead},
		{ID: 0x0008, Name: "ColorMode", Type: zcl.TypeEnum8, Access: zcl.AccessRead}, // 0 = hue/saturation
		{ID: 0x000F, Name: "Options", Type: zcl.TypeBitmap8, Access: zcl.AccessRead | zcl.AccessWrite},
		{ID: 0x4001, Name: "EnhancedCurrentHue", Type: zcl.TypeUint16, Access: zcl.AccessRead},
		{ID: 0x4002, Name: "EnhancedColorMode", Type: zcl.TypeEnum8, Access: zcl.AccessRead},
		{ID: 0x400A, Name: "ColorCapabilities", Type: zcl.TypeBitmap16, Access: zcl.AccessRead, Default: 0x0001},
	},
}
