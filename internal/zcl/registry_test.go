package zcl

import (
	"log/slog"
	"os"
	"testing"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

var onOffDef = ClusterDef{
	ID:   0x0006,
	Name: "On/Off",
	Attributes: []AttributeDef{
		{ID: 0, Name: "OnOff", Type: TypeBool, Access: AccessRead},
	},
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := newTestRegistry()
	if err := r.Register(onOffDef); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got := r.Get(0x0006)
	if got == nil {
		t.Fatal("cluster not found")
	}
	if got.Name != "On/Off" || len(got.Attributes) != 1 {
		t.Errorf("got %+v", got)
	}
	if r.Get(0x9999) != nil {
		t.Error("expected nil for unknown cluster")
	}
}

func TestRegistryMerge(t *testing.T) {
	r := newTestRegistry()
	r.Register(onOffDef)

	err := r.Register(ClusterDef{
		ID: 0x0006,
		Attributes: []AttributeDef{
			{ID: 0, Name: "Ignored", Type: TypeUint8},
			{ID: 0x4003, Name: "StartUpOnOff", Type: TypeEnum8, Access: AccessRead | AccessWrite, Default: 1},
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got := r.Get(0x0006)
	if len(got.Attributes) != 2 {
		t.Fatalf("after merge: attrs = %d, want 2", len(got.Attributes))
	}
	if a := got.FindAttribute(0); a.Name != "OnOff" || a.Type != TypeBool {
		t.Errorf("existing attribute replaced: %+v", a)
	}
	if a := got.FindAttribute(0x4003); a == nil || a.Name != "StartUpOnOff" {
		t.Errorf("merged attribute = %+v", a)
	}
	if got.Name != "On/Off" {
		t.Errorf("name = %q, want On/Off", got.Name)
	}
}

func TestRegistryMergeAdoptsName(t *testing.T) {
	r := newTestRegistry()
	r.Register(ClusterDef{ID: 0xFC00})
	r.Register(ClusterDef{ID: 0xFC00, Name: "Vendor"})
	if got := r.Get(0xFC00); got.Name != "Vendor" {
		t.Errorf("name = %q, want Vendor", got.Name)
	}
}

func TestRegistryRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		def  ClusterDef
	}{
		{"duplicate attribute", ClusterDef{ID: 1, Attributes: []AttributeDef{
			{ID: 0, Type: TypeBool}, {ID: 0, Type: TypeUint8},
		}}},
		{"default out of range", ClusterDef{ID: 1, Attributes: []AttributeDef{
			{ID: 0, Type: TypeUint8, Default: 256},
		}}},
		{"default wrong kind", ClusterDef{ID: 1, Attributes: []AttributeDef{
			{ID: 0, Type: TypeCharStr, Default: 3},
		}}},
		{"unsupported type", ClusterDef{ID: 1, Attributes: []AttributeDef{
			{ID: 0, Type: 0xFF},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry()
			if err := r.Register(tt.def); err == nil {
				t.Fatal("expected error")
			}
			if r.Len() != 0 {
				t.Errorf("len = %d after rejected register", r.Len())
			}
		})
	}
}

func TestRegistryAllSortedByID(t *testing.T) {
	r := newTestRegistry()
	r.Register(ClusterDef{ID: 0x0300, Name: "Color Control"})
	r.Register(ClusterDef{ID: 0x0006, Name: "On/Off"})
	r.Register(ClusterDef{ID: 0x0008, Name: "Level Control"})

	all := r.All()
	want := []uint16{0x0006, 0x0008, 0x0300}
	if len(all) != len(want) {
		t.Fatalf("got %d clusters, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("all[%d] = 0x%04X, want 0x%04X", i, all[i].ID, id)
		}
	}
	if r.Len() != 3 {
		t.Errorf("len = %d, want 3", r.Len())
	}
}

func TestRegistryReturnsCopies(t *testing.T) {
	r := newTestRegistry()
	def := onOffDef.Clone()
	r.Register(def)
	def.Attributes[0].Name = "caller"

	got := r.Get(0x0006)
	got.Attributes[0].Name = "changed"
	r.All()[0].Attributes[0].Name = "changed too"

	if again := r.Get(0x0006); again.Attributes[0].Name != "OnOff" {
		t.Errorf("registry mutated through copy: %q", again.Attributes[0].Name)
	}
}
