package geometry

import "github.com/fosdem/meshview/lib/config"

// Attribute slots shared by the importer, the geometry library and the
// mesh shader.
const (
	SlotPosition = config.PositionSlot
	SlotTexCoord = 1
	SlotNormal   = 2
	SlotColour   = 3
)
