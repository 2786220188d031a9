package rest

import (
	"github.com/gofiber/fiber/v2"
	domainAnalytics "github.com/linkpilot-ai/linkpilot/domains/analytics"
	"github.com/linkpilot-ai/linkpilot/pkg/utils"
)

type Analytics struct {
	Service domainAnalytics.IAnalyticsUsecase
}

func InitRestAnalytics(app fiber.Router, service domainAnalytics.IAnalyticsUsecase) Analytics {
	rest := Analytics{Service: service}
	app.Get("/analytics/followers", rest.FollowerHistory)
	app.Get("/analytics/posts", rest.PostHistory)
	app.Post("/analytics/snapshot", rest.Snapshot)
	return rest
}

func (h *Analytics) FollowerHistory(c *fiber.Ctx) error {
	history, err := h.Service.FollowerHistory(c.UserContext(), mustUserID(c), c.QueryInt("days", 30))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Follower history fetched",
		Results: history,
	})
}

func (h *Analytics) PostHistory(c *fiber.Ctx) error {
	history, err := h.Service.PostHistory(c.UserContext(), mustUserID(c), c.QueryInt("days", 30))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post metrics fetched",
		Results: history,
	})
}

// Snapshot triggers an immediate snapshot for the acting user, outside the
// daily fan-out.
func (h *Analytics) Snapshot(c *fiber.Ctx) error {
	err := h.Service.Snapshot(c.UserContext(), mustUserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Snapshot completed",
	})
}
