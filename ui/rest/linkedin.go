package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkpilot-ai/linkpilot/domains/user"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/pkg/utils"
)

type Linkedin struct {
	Service user.ILinkedinUsecase
}

func InitRestLinkedin(app fiber.Router, service user.ILinkedinUsecase) Linkedin {
	rest := Linkedin{Service: service}
	app.Get("/linkedin/connect", rest.Connect)
	app.Post("/linkedin/callback", rest.Callback)
	app.Get("/linkedin/status", rest.Status)
	return rest
}

func (h *Linkedin) Connect(c *fiber.Ctx) error {
	url, err := h.Service.ConnectURL(c.UserContext(), mustUserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Hosted auth URL created",
		Results: fiber.Map{"url": url},
	})
}

func (h *Linkedin) Callback(c *fiber.Ctx) error {
	var req struct {
		AccountID string `json:"account_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}

	err := h.Service.HandleCallback(c.UserContext(), mustUserID(c), req.AccountID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "LinkedIn account connected",
	})
}

func (h *Linkedin) Status(c *fiber.Ctx) error {
	status, err := h.Service.Status(c.UserContext(), mustUserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Connection status fetched",
		Results: status,
	})
}
