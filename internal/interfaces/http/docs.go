package http

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
)

// MountDocs serves the swagger UI at /docs when the OpenAPI document exists
// at filePath. The document is generated outside the build, so a missing
// file disables the UI instead of stopping the API.
func MountDocs(app *fiber.App, filePath, title string) bool {
	if _, err := os.Stat(filePath); err != nil {
		return false
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: filePath,
		Path:     "docs",
		Title:    title,
	}))
	return true
}
