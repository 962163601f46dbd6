package artwork

// PrintLocation is a place on a garment where artwork can be printed
type PrintLocation string

const (
	LocationFront       PrintLocation = "front"
	LocationBack        PrintLocation = "back"
	LocationLeftSleeve  PrintLocation = "left_sleeve"
	LocationRightSleeve PrintLocation = "right_sleeve"
	LocationLeftChest   PrintLocation = "left_chest"
	LocationNeck        PrintLocation = "neck"
)

// AllPrintLocations lists every known print location
var AllPrintLocations = []PrintLocation{
	LocationFront, LocationBack, LocationLeftSleeve,
	LocationRightSleeve, LocationLeftChest, LocationNeck,
}

// IsValid checks if the location is known
func (l PrintLocation) IsValid() bool {
	for _, v := range AllPrintLocations {
		if v == l {
			return true
		}
	}
	return false
}

// String returns the string representation
func (l PrintLocation) String() string {
	return string(l)
}
