package socket

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/zarah-s/stark-city-sub000/platform/cache"
	"github.com/zarah-s/stark-city-sub000/platform/database"
	"github.com/zarah-s/stark-city-sub000/platform/game"
	"github.com/zarah-s/stark-city-sub000/platform/session"
)

// settleDelay is the pause between a turn's last effect and the turn
// advancing, so observers can animate the change.
const settleDelay = 1500 * time.Millisecond

// connInfo is stored on each socket connection once the client has
// joined a room, so disconnects can be attributed.
type connInfo struct {
	room     string
	playerID int
}

// roomEmitter broadcasts engine events to every participant of a room.
// Payloads go over the wire as JSON strings.
type roomEmitter struct {
	server *socketio.Server
	room   string
}

func (r *roomEmitter) Emit(event string, payload interface{}) {
	if payload == nil {
		r.server.BroadcastToRoom("/", r.room, event)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("failed marshalling event payload")
		return
	}
	r.server.BroadcastToRoom("/", r.room, event, string(data))
}

var dir *session.Directory

func CreateSocketIOServer() {

	server, err := socketio.NewServer(nil)
	if err != nil {
		panic(err)
	}
	db := database.PostgreSQLConnection()
	defer db.Close()

	pool := cache.CreateRedisPool()
	defer pool.Close()

	dir = session.NewDirectory(db, pool, settleDelay)

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(nil)
		return nil
	})

	server.OnEvent("/", "join-room", func(s socketio.Conn, jsonStr string) {
		var result map[string]string
		json.Unmarshal([]byte(jsonStr), &result)

		code, ok := result["room"]
		if !ok || code == "" {
			s.Emit("error-message", "Room code not passed")
			return
		}

		if result["host"] == "true" {
			if _, err := dir.CreateRoom(code, code, &roomEmitter{server: server, room: code}); err != nil {
				s.Emit("error-message", err.Error())
				return
			}
		}

		player, err := dir.JoinRoom(code, result["name"])
		if err != nil {
			s.Emit("error-message", err.Error())
			return
		}

		s.Join(code)
		s.SetContext(connInfo{room: code, playerID: player.ID})

		playerJSON, _ := json.Marshal(player)
		s.Emit("joined-room", string(playerJSON))

		room, err := dir.Get(code)
		if err != nil {
			return
		}
		roster, _ := json.Marshal(room.Engine.Snapshot().Players)
		server.BroadcastToRoom("/", code, "player-joined", string(roster))
		log.WithFields(log.Fields{"room": code, "player": player.ID}).Info("player joined")
	})

	server.OnEvent("/", "start-game", func(s socketio.Conn, jsonStr string) {
		var result map[string]string
		json.Unmarshal([]byte(jsonStr), &result)

		playerID, err := strconv.Atoi(result["player_id"])
		if err != nil {
			s.Emit("error-message", "Invalid player id")
			return
		}
		if err := dir.StartGame(result["room"], playerID); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "roll-dice", func(s socketio.Conn, jsonStr string) {
		room, playerID, ok := parseAction(s, jsonStr)
		if !ok {
			return
		}
		if err := room.Engine.RollDice(playerID); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "buy-property", func(s socketio.Conn, jsonStr string) {
		room, playerID, ok := parseAction(s, jsonStr)
		if !ok {
			return
		}
		pos, err := parsePosition(s, jsonStr)
		if err != nil {
			return
		}
		if err := room.Engine.BuyProperty(playerID, pos); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "skip-property", func(s socketio.Conn, jsonStr string) {
		room, playerID, ok := parseAction(s, jsonStr)
		if !ok {
			return
		}
		if err := room.Engine.SkipProperty(playerID); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "buy-house", func(s socketio.Conn, jsonStr string) {
		room, playerID, ok := parseAction(s, jsonStr)
		if !ok {
			return
		}
		pos, err := parsePosition(s, jsonStr)
		if err != nil {
			return
		}
		if err := room.Engine.BuyHouse(playerID, pos); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnEvent("/", "sell-house", func(s socketio.Conn, jsonStr string) {
		room, playerID, ok := parseAction(s, jsonStr)
		if !ok {
			return
		}
		pos, err := parsePosition(s, jsonStr)
		if err != nil {
			return
		}
		if err := room.Engine.SellHouse(playerID, pos); err != nil {
			s.Emit("error-message", err.Error())
		}
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.WithError(e).Error("socket error")
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		info, ok := s.Context().(connInfo)
		if !ok {
			return
		}
		room, err := dir.Get(info.room)
		if err != nil {
			return
		}
		wasRunning := room.Engine.Started()

		discarded, err := dir.RemovePlayer(info.room, info.playerID)
		if err != nil {
			log.WithError(err).Warn("disconnect cleanup failed")
			return
		}
		if discarded && wasRunning {
			// a running game cannot continue short a player
			server.BroadcastToRoom("/", info.room, game.EventGameOver)
		} else if !discarded {
			roster, _ := json.Marshal(room.Engine.Snapshot().Players)
			server.BroadcastToRoom("/", info.room, "player-left", string(roster))
		}
		s.LeaveAll()
	})

	go server.Serve()
	defer server.Close()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
	})

	addr := os.Getenv("SOCKET_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	http.ListenAndServe(addr, c.Handler(mux))
}

func parseAction(s socketio.Conn, jsonStr string) (*session.Room, int, bool) {
	var result map[string]string
	json.Unmarshal([]byte(jsonStr), &result)

	// actions are only accepted on the room the connection joined
	info, ok := s.Context().(connInfo)
	if !ok || info.room != result["room"] {
		s.Emit("error-message", "You are not in this room")
		return nil, 0, false
	}
	playerID, err := strconv.Atoi(result["player_id"])
	if err != nil {
		s.Emit("error-message", "Invalid player id")
		return nil, 0, false
	}
	// the engine still checks turn order; this only resolves the room
	room, err := dir.Get(info.room)
	if err != nil {
		s.Emit("error-message", err.Error())
		return nil, 0, false
	}
	return room, playerID, true
}

func parsePosition(s socketio.Conn, jsonStr string) (int, error) {
	var result map[string]string
	json.Unmarshal([]byte(jsonStr), &result)
	pos, err := strconv.Atoi(result["position"])
	if err != nil {
		s.Emit("error-message", "Invalid board position")
		return 0, err
	}
	return pos, nil
}
