package game

import (
	"github.com/zarah-s/stark-city-sub000/platform/board"
)

// Rent and building rules. Everything here is pure: functions compute a
// result or a rejection and the engine applies the effects.

// ComputeRent returns the rent owed for landing on the space at its
// current house count. Property schedules carry six entries (no houses
// through hotel); railroads and utilities have shorter flat tables and a
// house count that is always zero, so they charge their first entry.
func ComputeRent(s *board.Space) int {
	if len(s.Rents) == 0 {
		return 0
	}
	idx := s.Houses
	if idx >= len(s.Rents) {
		idx = len(s.Rents) - 1
	}
	return s.Rents[idx]
}

// OwnsMonopoly reports whether the player owns every property-kind space
// in the color group. Railroads and utilities carry no group and never
// form a monopoly under this ruleset.
func OwnsMonopoly(spaces []board.Space, playerID int, group string) bool {
	props := board.Group(group, spaces)
	if len(props) == 0 {
		return false
	}
	for _, s := range props {
		if s.Owner != playerID {
			return false
		}
	}
	return true
}

// validateBuildHouse checks the preconditions for putting one house (or
// the hotel, at count five) on the space. Order matters: each distinct
// rejection reason is surfaced to the caller.
func validateBuildHouse(g *Game, p *Player, s *board.Space) error {
	if !s.Buildable() {
		return ErrNotBuildable
	}
	if s.Owner != p.ID {
		return ErrNotOwner
	}
	if s.Houses >= board.Hotel {
		return ErrAlreadyHotel
	}
	if !OwnsMonopoly(g.Board, p.ID, s.Group) {
		return ErrNoMonopoly
	}
	if p.Money < s.HouseCost {
		return ErrInsufficientFunds
	}
	return nil
}

func validateSellHouse(p *Player, s *board.Space) error {
	if s.Owner != p.ID {
		return ErrNotOwner
	}
	if s.Houses == 0 {
		return ErrNothingToSell
	}
	return nil
}
