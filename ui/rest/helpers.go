package rest

import (
	"github.com/gofiber/fiber/v2"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
)

const userHeader = "X-User-ID"

// requestUserID extracts the acting user from the request. There is no
// session layer; the API is fronted by basic auth and the caller identifies
// the user explicitly.
func requestUserID(c *fiber.Ctx) string {
	if id := c.Get(userHeader); id != "" {
		return id
	}
	return c.Query("user_id")
}

func mustUserID(c *fiber.Ctx) string {
	id := requestUserID(c)
	if id == "" {
		panic(pkgError.ValidationError("user id: missing X-User-ID header."))
	}
	return id
}
