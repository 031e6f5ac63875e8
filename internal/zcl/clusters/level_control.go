package clusters

import "matter-go-light/internal/zcl"

var LevelControl = zcl.ClusterDef{
	ID:   LevelControlID,
	Name: "Level Control",
	Attributes: []zcl.AttributeDef{
		{ID: AttrCurrentLevel, Name: "CurrentLevel", Type: zcl.TypeUint8, Access: zcl.AccessRead | zcl.AccessReport, Default: 64},
		{ID: 0x0001, Name: "RemainingTime", Type: zcl.TypeUint16, Access: zcl.AccessRead},
		{ID: 0x0002, Name: "MinLevel", Type: zcl.TypeUint8, Access: zcl.AccessRead, Default: 1},
		{ID: 0x0003, Name: "MaxLevel", Type: zcl.TypeUint8, Access: zcl.AccessRead, Default: 254},
		{ID: 0x000F, Name: "Options", Type: zcl.TypeBitmap8, Access: zcl.AccessRead | zcl.AccessWrite},
		{ID: 0x0010, Name: "OnOffTransitionTime", Type: zcl.TypeUint16, Access: zcl.AccessRead | zcl.AccessWrite},
		{ID: 0x0011, Name: "OnLevel", Type: zcl.TypeUint8, Access: zcl.AccessRead | zcl.AccessWrite, Default: 255},
		{ID: 0x4000, Name: "StartUpCurrentLevel", Type: zcl.TypeUint8, Access: zcl.AccessRead | zcl.AccessWrite},
	},
}
