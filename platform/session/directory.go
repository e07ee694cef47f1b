package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/gomodule/redigo/redis"
	log "github.com/sirupsen/logrus"

	"github.com/zarah-s/stark-city-sub000/app/models"
	"github.com/zarah-s/stark-city-sub000/platform/cache"
	"github.com/zarah-s/stark-city-sub000/platform/game"
)

// Room binds a code to its game engine. The directory owns this mapping
// and nothing else; board and player fields belong to the engine alone.
type Room struct {
	Code   string
	Engine *game.Engine
}

// Directory maps room codes to live game instances. The authoritative
// state is in memory only; the postgres row and redis mirror are lobby
// bookkeeping (listings, status, trailing audit log) and are never read
// back into a game.
type Directory struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	db     *pg.DB      // optional
	pool   *redis.Pool // optional
	settle time.Duration
}

func NewDirectory(db *pg.DB, pool *redis.Pool, settle time.Duration) *Directory {
	return &Directory{
		rooms:  make(map[string]*Room),
		db:     db,
		pool:   pool,
		settle: settle,
	}
}

// CreateRoom registers a room under the code. Creating a code that
// already exists is a no-op as long as that game has not started.
func (d *Directory) CreateRoom(code, name string, emitter game.Emitter) (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok := d.rooms[code]; ok {
		if room.Engine.Started() {
			return nil, game.ErrRoomAlreadyStarted
		}
		return room, nil
	}
	room := &Room{Code: code, Engine: game.New(emitter, d.settle)}
	room.Engine.OnLog(func(line string) { d.appendLog(code, line) })
	d.rooms[code] = room

	d.mirrorStatus(code, name, "waiting")
	if d.db != nil {
		_, err := d.db.Model(&models.Room{Id: code, Name: name, Status: "waiting"}).
			OnConflict("(id) DO NOTHING").Insert()
		if err != nil {
			log.WithError(err).Warn("failed recording room")
		}
	}
	return room, nil
}

func (d *Directory) Get(code string) (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: no such room", game.ErrInvalidState)
	}
	return room, nil
}

// JoinRoom assigns the next sequential player id (0-indexed join order).
func (d *Directory) JoinRoom(code, displayName string) (game.Player, error) {
	room, err := d.Get(code)
	if err != nil {
		return game.Player{}, err
	}
	return room.Engine.AddPlayer(displayName)
}

// StartGame flips the room into play and updates the lobby records so
// the room stops showing up as joinable.
func (d *Directory) StartGame(code string, playerID int) error {
	room, err := d.Get(code)
	if err != nil {
		return err
	}
	if err := room.Engine.Start(playerID); err != nil {
		return err
	}
	d.mirrorStatus(code, "", "in progress")
	if d.db != nil {
		_, err := d.db.Model(&models.Room{Id: code}).WherePK().
			Set("status = ?", "in progress").Update()
		if err != nil {
			log.WithError(err).Warn("failed updating room status")
		}
	}
	return nil
}

// RemovePlayer handles a leave or disconnect. An empty room is
// discarded. A running game cannot lose a player and continue: it is
// ended for everyone and the room discarded; remaining participants get
// the game-over broadcast from the caller's emitter.
func (d *Directory) RemovePlayer(code string, playerID int) (discarded bool, err error) {
	room, err := d.Get(code)
	if err != nil {
		return false, err
	}
	if room.Engine.Started() {
		d.discard(code)
		return true, nil
	}
	if err := room.Engine.RemovePlayer(playerID); err != nil {
		return false, err
	}
	if room.Engine.PlayerCount() == 0 {
		d.discard(code)
		return true, nil
	}
	return false, nil
}

// TrailingLog returns the room's audit log from redis, oldest first.
func (d *Directory) TrailingLog(code string) ([]string, error) {
	if d.pool == nil {
		return nil, nil
	}
	conn := d.pool.Get()
	defer conn.Close()
	values, err := cache.LGET(fmt.Sprintf("room.%s.log", code), &conn)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(values))
	for _, v := range values {
		lines = append(lines, string(v.([]byte)))
	}
	return lines, nil
}

func (d *Directory) discard(code string) {
	d.mu.Lock()
	delete(d.rooms, code)
	d.mu.Unlock()

	if d.pool != nil {
		conn := d.pool.Get()
		defer conn.Close()
		cache.Del(fmt.Sprintf("room.%s", code), &conn)
		cache.Del(fmt.Sprintf("room.%s.log", code), &conn)
	}
	if d.db != nil {
		if _, err := d.db.Model(&models.Room{}).Where("id = ?", code).Delete(); err != nil {
			log.WithError(err).Warn("failed deleting room record")
		}
	}
}

func (d *Directory) mirrorStatus(code, name, status string) {
	if d.pool == nil {
		return
	}
	conn := d.pool.Get()
	defer conn.Close()
	key := fmt.Sprintf("room.%s", code)
	if name != "" {
		cache.HSET(key, "name", name, &conn)
	}
	cache.HSET(key, "status", status, &conn)
}

func (d *Directory) appendLog(code, line string) {
	if d.pool == nil {
		return
	}
	conn := d.pool.Get()
	defer conn.Close()
	if err := cache.RPUSH(fmt.Sprintf("room.%s.log", code), line, &conn); err != nil {
		log.WithError(err).Warn("failed appending room log")
	}
}
