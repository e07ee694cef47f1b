package game

import "errors"

// Rejection reasons surfaced to the acting player. Every rejection is
// synchronous and side-effect free; callers compare with errors.Is and
// forward the message to the originating connection only.
var (
	ErrInvalidState       = errors.New("action not valid in the current game state")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrTurnBusy           = errors.New("wait for current turn")
	ErrNotOwner           = errors.New("you do not own this property")
	ErrNotBuildable       = errors.New("houses cannot be built on this space")
	ErrAlreadyOwned       = errors.New("property is already owned")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoMonopoly         = errors.New("you must own the full color group to build")
	ErrAlreadyHotel       = errors.New("a hotel is already built here")
	ErrNothingToSell      = errors.New("no houses to sell")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomAlreadyStarted = errors.New("game already started")
	ErrPlayerNotFound     = errors.New("player not found")
)
