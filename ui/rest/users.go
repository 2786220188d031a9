package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkpilot-ai/linkpilot/domains/user"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/pkg/utils"
)

type Users struct {
	Service user.IUserUsecase
}

func InitRestUsers(app fiber.Router, service user.IUserUsecase) Users {
	rest := Users{Service: service}
	app.Post("/users", rest.Create)
	app.Get("/users/me", rest.Me)
	app.Put("/users/me/voice-profile", rest.SetVoiceProfile)
	app.Post("/users/me/voice-profile/analyze", rest.AnalyzeVoice)
	return rest
}

func (h *Users) Create(c *fiber.Ctx) error {
	var req user.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}

	created, err := h.Service.Create(c.UserContext(), req)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "User created",
		Results: created,
	})
}

func (h *Users) Me(c *fiber.Ctx) error {
	me, err := h.Service.Get(c.UserContext(), mustUserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "User fetched",
		Results: me,
	})
}

func (h *Users) SetVoiceProfile(c *fiber.Ctx) error {
	var req struct {
		VoiceProfile string `json:"voice_profile"`
	}
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}

	err := h.Service.SetVoiceProfile(c.UserContext(), mustUserID(c), req.VoiceProfile)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Voice profile updated",
	})
}

// AnalyzeVoice rebuilds the persona profile from the user's own LinkedIn
// posts. Runs inline; it is a single completion call.
func (h *Users) AnalyzeVoice(c *fiber.Ctx) error {
	var req struct {
		Provider string `json:"provider"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			panic(pkgError.ValidationError("invalid request body."))
		}
	}

	profile, err := h.Service.AnalyzeVoice(c.UserContext(), mustUserID(c), req.Provider)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Voice profile analyzed",
		Results: fiber.Map{"voice_profile": profile},
	})
}
