package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zarah-s/stark-city-sub000/app/controllers"
)

func GameRoutes(a *fiber.App) {
	route := a.Group("/game")
	route.Post("/create", controllers.CreateRoom)
	route.Get("/verify", controllers.VerifyRoom)
	route.Get("/all", controllers.GetAvailableRooms)
	route.Get("/log", controllers.RoomLog)
}
