package gtsl

import "strings"

// MaterialSlot is a named input of a material output node.
type MaterialSlot struct {
	ID    string
	Label string
	Type  Type
	// HasDefault is set for slots that are bound to a literal when unconnected.
	HasDefault bool
	// Default is the scalar default for float slots.
	Default float32
	// DefaultColor is the hex default for color slots.
	DefaultColor string
}

// Prop returns the material property the slot is bound to, i.e. "colorNode".
func (s MaterialSlot) Prop() string { return s.ID + "Node" }

// IsColor reports whether the slot defaults to a color literal.
func (s MaterialSlot) IsColor() bool { return s.DefaultColor != "" }

// HoldsColor reports whether the slot value is a color as opposed to a
// position or direction.
func (s MaterialSlot) HoldsColor() bool {
	switch s.ID {
	case "color", "emissive", "attenuationColor", "specularColor", "sheen", "specular":
		return true
	}
	return false
}

var materialFamilies = []Kind{
	KindMeshStandard, KindMeshBasic, KindMeshPhong, KindMeshPhysical,
	KindMeshSSS, KindMeshToon, KindMeshLambert, KindMeshNormal, KindPoints,
}

var slotDefs = map[string]MaterialSlot{}

func slot(id, label string, t Type) MaterialSlot {
	return MaterialSlot{ID: id, Label: label, Type: t}
}

func init() {
	for _, s := range []MaterialSlot{
		{ID: "color", Label: "Color", Type: TypeVec3, HasDefault: true, DefaultColor: "#ffffff"},
		{ID: "roughness", Label: "Roughness", Type: TypeFloat, HasDefault: true, Default: 0.5},
		{ID: "metalness", Label: "Metalness", Type: TypeFloat, HasDefault: true, Default: 0},
		{ID: "emissive", Label: "Emissive", Type: TypeVec3, HasDefault: true, DefaultColor: "#000000"},
		{ID: "ao", Label: "AO", Type: TypeFloat, HasDefault: true, Default: 1},
		{ID: "opacity", Label: "Opacity", Type: TypeFloat, HasDefault: true, Default: 1},
	} {
		slotDefs[s.ID] = s
	}
}

var familySlots = map[Kind][]MaterialSlot{
	KindMeshStandard: {
		slot("color", "Color", TypeVec3), slot("roughness", "Roughness", TypeFloat),
		slot("metalness", "Metalness", TypeFloat), slot("emissive", "Emissive", TypeVec3),
		slot("normal", "Normal", TypeVec3), slot("ao", "AO", TypeFloat),
		slot("opacity", "Opacity", TypeFloat), slot("position", "Position", TypeVec3),
		slot("backdrop", "Backdrop", TypeTexture), slot("backdropAlpha", "Backdrop Alpha", TypeFloat),
	},
	KindMeshBasic: {slot("color", "Color", TypeVec3), slot("opacity", "Opacity", TypeFloat)},
	KindMeshPhong: {
		slot("color", "Color", TypeVec3), slot("emissive", "Emissive", TypeVec3),
		slot("specular", "Specular", TypeVec3), slot("shininess", "Shininess", TypeFloat),
		slot("opacity", "Opacity", TypeFloat),
	},
	KindMeshPhysical: {
		slot("color", "Color", TypeVec3), slot("normal", "Normal", TypeVec3),
		slot("roughness", "Roughness", TypeFloat), slot("metalness", "Metalness", TypeFloat),
		slot("emissive", "Emissive", TypeVec3), slot("clearcoat", "Clearcoat", TypeFloat),
		slot("clearcoatRoughness", "Clearcoat Roughness", TypeFloat), slot("clearcoatNormal", "Clearcoat Normal", TypeVec3),
		slot("sheen", "Sheen", TypeVec3), slot("sheenRoughness", "Sheen Roughness", TypeFloat),
		slot("iridescence", "Iridescence", TypeFloat), slot("iridescenceIOR", "Iridescence IOR", TypeFloat),
		slot("iridescenceThickness", "Iridescence Thickness", TypeFloat), slot("transmission", "Transmission", TypeFloat),
		slot("thickness", "Thickness", TypeFloat), slot("ior", "IOR", TypeFloat),
		slot("dispersion", "Dispersion", TypeFloat), slot("anisotropy", "Anisotropy", TypeFloat),
		slot("attenuationColor", "Attenuation Color", TypeVec3), slot("attenuationDistance", "Attenuation Distance", TypeFloat),
		slot("specularColor", "Specular Color", TypeVec3), slot("specularIntensity", "Specular Intensity", TypeFloat),
		slot("ao", "AO", TypeFloat), slot("opacity", "Opacity", TypeFloat),
		slot("position", "Position", TypeVec3), slot("backdrop", "Backdrop", TypeTexture),
		slot("backdropAlpha", "Backdrop Alpha", TypeFloat),
	},
	KindMeshSSS: {
		slot("color", "Color", TypeVec3), slot("normal", "Normal", TypeVec3),
		slot("roughness", "Roughness", TypeFloat), slot("metalness", "Metalness", TypeFloat),
		slot("emissive", "Emissive", TypeVec3), slot("clearcoat", "Clearcoat", TypeFloat),
		slot("clearcoatRoughness", "Clearcoat Roughness", TypeFloat), slot("sheen", "Sheen", TypeVec3),
		slot("sheenRoughness", "Sheen Roughness", TypeFloat), slot("iridescence", "Iridescence", TypeFloat),
		slot("transmission", "Transmission", TypeFloat), slot("thickness", "Thickness", TypeFloat),
		slot("ior", "IOR", TypeFloat), slot("dispersion", "Dispersion", TypeFloat),
		slot("ao", "AO", TypeFloat), slot("opacity", "Opacity", TypeFloat),
		slot("position", "Position", TypeVec3), slot("backdrop", "Backdrop", TypeTexture),
		slot("backdropAlpha", "Backdrop Alpha", TypeFloat),
	},
	KindMeshToon:    basicLitSlots(),
	KindMeshLambert: basicLitSlots(),
	KindMeshNormal: {
		slot("opacity", "Opacity", TypeFloat), slot("position", "Position", TypeVec3),
		slot("backdrop", "Backdrop", TypeTexture), slot("backdropAlpha", "Backdrop Alpha", TypeFloat),
	},
	KindPoints: {
		slot("color", "Color", TypeVec3), slot("opacity", "Opacity", TypeFloat),
		slot("position", "Position", TypeVec3), slot("size", "Size", TypeVec2),
		slot("backdrop", "Backdrop", TypeTexture), slot("backdropAlpha", "Backdrop Alpha", TypeFloat),
	},
}

func basicLitSlots() []MaterialSlot {
	return []MaterialSlot{
		slot("color", "Color", TypeVec3), slot("emissive", "Emissive", TypeVec3),
		slot("opacity", "Opacity", TypeFloat), slot("position", "Position", TypeVec3),
		slot("backdrop", "Backdrop", TypeTexture), slot("backdropAlpha", "Backdrop Alpha", TypeFloat),
	}
}

func init() {
	for fam, slots := range familySlots {
		for i := range slots {
			if d, ok := slotDefs[slots[i].ID]; ok {
				slots[i].HasDefault = true
				slots[i].Default = d.Default
				slots[i].DefaultColor = d.DefaultColor
			}
		}
		familySlots[fam] = slots
		ports := make([]Port, len(slots))
		for i, s := range slots {
			ports[i] = Port{ID: s.ID, Label: s.Label}
		}
		kindDefs[fam].inputs = ports
	}
	kindDefs[KindOutput].inputs = kindDefs[KindMeshStandard].inputs
}

// MaterialFamilies returns the material family kinds.
func MaterialFamilies() []Kind { return append([]Kind(nil), materialFamilies...) }

// Slots returns the input slots of a material family kind. The legacy
// output kind returns the standard family's slots.
func (k Kind) Slots() []MaterialSlot {
	if k == KindOutput {
		k = KindMeshStandard
	}
	return familySlots[k]
}

// Slot looks up a slot of a material family by handle id.
func (k Kind) Slot(handle string) (MaterialSlot, bool) {
	for _, s := range k.Slots() {
		if s.ID == handle || strings.EqualFold(s.ID, handle) {
			return s, true
		}
	}
	return MaterialSlot{}, false
}

// MaterialFamily returns the concrete material family of a material node.
// Legacy output nodes select their family through the MaterialClass data
// field, which may hold a family type name or a material class name.
func MaterialFamily(n Node) Kind {
	if n.Kind != KindOutput {
		return n.Kind
	}
	mc := n.Data.MaterialClass
	if mc == "" {
		return KindMeshStandard
	}
	if k, ok := ParseKind(mc); ok && k.IsMaterial() && k != KindOutput {
		return k
	}
	for _, fam := range materialFamilies {
		if fam.Symbol() == mc {
			return fam
		}
	}
	return KindMeshStandard
}
