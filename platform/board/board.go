package board

import (
	_ "embed"
	"encoding/json"
	"errors"
)

const (
	KindProperty = "property"
	KindRailroad = "railroad"
	KindUtility  = "utility"
	KindSpecial  = "special"
)

// Named special spaces the engine dispatches on.
const (
	NameGo             = "GO"
	NameGoToJail       = "Go To Jail"
	NameIncomeTax      = "Income Tax"
	NameLuxuryTax      = "Luxury Tax"
	NameChance         = "Chance"
	NameCommunityChest = "Community Chest"
	NameFreeParking    = "Free Parking"
	NameJustVisiting   = "Just Visiting"
)

const (
	Size         = 40
	JailPosition = 10
	Unowned      = -1
	Hotel        = 5 // house count that denotes a hotel
)

// Space is one board square. Owner and Houses are the only mutable
// fields; everything else comes straight from spaces.json.
type Space struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Group     string `json:"group"`
	Position  int    `json:"position"`
	Price     int    `json:"price"`
	Rents     []int  `json:"rents"`
	HouseCost int    `json:"housecost"`

	Owner  int `json:"owner"`
	Houses int `json:"houses"`
}

//go:embed spaces.json
var spacesJSON []byte

var static []Space

func init() {
	if err := json.Unmarshal(spacesJSON, &static); err != nil {
		panic(err)
	}
	if len(static) != Size {
		panic("board: spaces.json must define exactly 40 spaces")
	}
}

// New returns a fresh mutable copy of the board for one game. Positions
// are stable indexes into the returned slice; copies are never shared
// across games.
func New() []Space {
	spaces := make([]Space, Size)
	copy(spaces, static)
	for i := range spaces {
		spaces[i].Owner = Unowned
		spaces[i].Rents = append([]int(nil), static[i].Rents...)
	}
	return spaces
}

// Ownable reports whether the space can be bought at all.
func (s *Space) Ownable() bool {
	return s.Price > 0
}

// Buildable reports whether houses can ever be put on the space.
func (s *Space) Buildable() bool {
	return s.Kind == KindProperty && s.HouseCost > 0
}

func GetByPos(pos int, spaces []Space) (*Space, error) {
	if pos < 0 || pos >= len(spaces) {
		return nil, errors.New("not found")
	}
	return &spaces[pos], nil
}

// Group returns every property-kind space in the given color group.
// Railroads and utilities carry no group and are never returned.
func Group(group string, spaces []Space) []*Space {
	var out []*Space
	for i := range spaces {
		if spaces[i].Kind == KindProperty && spaces[i].Group == group {
			out = append(out, &spaces[i])
		}
	}
	return out
}
