package services

import "fmt"

// LocationKind is where a component currently is. Exactly one applies at a time.
type LocationKind string

const (
	LocationEquipment LocationKind = "equipo"
	LocationWarehouse LocationKind = "bodega"
	LocationTransit   LocationKind = "transito"
	LocationReserve   LocationKind = "reserva"
)

// NoCenter is shown when a row has no resolved center.
const NoCenter = "—"

// Location is the derived location of a component.
type Location struct {
	Kind          LocationKind
	Center        string
	EquipmentCode string
}

// LocationFrom builds a Location from the current-location view columns.
// Unknown or empty kinds are treated as reserve.
func LocationFrom(kind, center, equipmentCode string) Location {
	switch LocationKind(kind) {
	case LocationEquipment, LocationWarehouse, LocationTransit:
		return Location{Kind: LocationKind(kind), Center: center, EquipmentCode: equipmentCode}
	default:
		return Location{Kind: LocationReserve}
	}
}

// String renders the location descriptor shown in the inventory table.
func (l Location) String() string {
	center := l.Center
	if center == "" {
		center = NoCenter
	}
	switch l.Kind {
	case LocationEquipment:
		return fmt.Sprintf("%s · %s", center, l.EquipmentCode)
	case LocationWarehouse:
		if center == NoCenter {
			center = "Oficina"
		}
		return "Bodega · " + center
	case LocationTransit:
		return "Tránsito → " + center
	default:
		return "Reserva"
	}
}

// Movable reports whether a component can be moved to another warehouse.
func (l Location) Movable() bool {
	return l.Kind == LocationWarehouse || l.Kind == LocationReserve
}

// Mounted reports whether the component is attached to equipment.
func (l Location) Mounted() bool {
	return l.Kind == LocationEquipment
}
