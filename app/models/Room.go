package models

// Room is the lobby record for a game room. It only tracks listings and
// status; the live game state never touches the database.
type Room struct {
	Id     string
	Name   string
	Status string
}

type RoomCreateDto struct {
	Name string
}

type VerifyRoomDto struct {
	Code string
}
