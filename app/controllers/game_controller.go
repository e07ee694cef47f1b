package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/zarah-s/stark-city-sub000/app/models"
	"github.com/zarah-s/stark-city-sub000/pkg"
	"github.com/zarah-s/stark-city-sub000/platform/cache"
	"github.com/zarah-s/stark-city-sub000/platform/database"
)

// CreateRoom reserves a room code in the lobby. The live game instance
// is created when the host's join-room event arrives on the socket.
func CreateRoom(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	roomCreateDto := new(models.RoomCreateDto)
	if err := c.BodyParser(roomCreateDto); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	room := &models.Room{
		Id:     pkg.RandString(8),
		Name:   roomCreateDto.Name,
		Status: "waiting",
	}

	if _, err := db.Model(room).Insert(); err != nil {
		log.WithError(err).Error("failed creating room record")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"id": room.Id})
}

func GetAvailableRooms(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	var rooms []models.Room
	if err := db.Model(&rooms).Where("status = ?", "waiting").Select(); err != nil {
		log.WithError(err).Error("failed listing rooms")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(rooms)
}

func VerifyRoom(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	verifyRoomDto := new(models.VerifyRoomDto)
	if err := c.QueryParser(verifyRoomDto); err != nil {
		return err
	}

	room := &models.Room{Id: verifyRoomDto.Code}
	if err := db.Model(room).WherePK().Select(); err != nil {
		return c.JSON(fiber.Map{"status": false})
	}
	return c.JSON(fiber.Map{"status": true})
}

// RoomLog returns the trailing audit log for a room from redis.
func RoomLog(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	conn, err := cache.CreateRedisConnection()
	if err != nil {
		log.WithError(err).Error("redis unavailable")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	defer conn.Close()

	values, err := cache.LGET(fmt.Sprintf("room.%s.log", code), &conn)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	lines := make([]string, 0, len(values))
	for _, v := range values {
		lines = append(lines, string(v.([]byte)))
	}
	return c.JSON(fiber.Map{"log": lines})
}
