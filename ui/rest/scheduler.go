package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkpilot-ai/linkpilot/pkg/utils"
	"github.com/linkpilot-ai/linkpilot/scheduler"
)

type Scheduler struct {
	Service *scheduler.Service
}

func InitRestScheduler(app fiber.Router, service *scheduler.Service) Scheduler {
	rest := Scheduler{Service: service}
	app.Get("/scheduler/health", rest.Health)
	app.Get("/scheduler/queue-depth", rest.QueueDepth)
	return rest
}

// Health reports which dispatch backend was selected at startup.
func (h *Scheduler) Health(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Scheduler is running",
		Results: fiber.Map{
			"mode":    string(h.Service.Mode()),
			"running": true,
		},
	})
}

// QueueDepth returns the number of pending dispatch tasks. Only meaningful
// in distributed mode; fallback mode has no queue to measure.
func (h *Scheduler) QueueDepth(c *fiber.Ctx) error {
	queue := h.Service.Queue()
	if queue == nil {
		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "SUCCESS",
			Message: "No queue in fallback mode",
			Results: fiber.Map{"mode": string(h.Service.Mode())},
		})
	}

	depth, err := queue.Depth(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Queue depth fetched",
		Results: fiber.Map{
			"mode":  string(h.Service.Mode()),
			"depth": depth,
		},
	})
}
