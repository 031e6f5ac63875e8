package clusters

import "matter-go-light/internal/zcl"

var Groups = zcl.ClusterDef{
	ID:   GroupsID,
	Name: "Groups",
	Attributes: []zcl.AttributeDef{
		{ID: 0x0000, Name: "NameSupport", Type: zcl.TypeBitmap8, Access: zcl.AccessRead},
	},
}
