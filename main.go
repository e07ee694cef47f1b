package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/joho/godotenv/autoload"

	"github.com/zarah-s/stark-city-sub000/app/controllers"
	"github.com/zarah-s/stark-city-sub000/pkg/routes"
	"github.com/zarah-s/stark-city-sub000/platform/logging"
	socket "github.com/zarah-s/stark-city-sub000/platform/sockets"
)

func main() {
	logging.Init()

	app := fiber.New()

	app.Use(cors.New())
	routes.AuthRoutes(app)
	routes.GameRoutes(app)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "secret"
	}
	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
	}))

	app.Get("/user/cur", controllers.Cur)

	go socket.CreateSocketIOServer()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":4101"
	}
	app.Listen(addr)
}
