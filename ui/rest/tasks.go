package rest

import (
	"github.com/gofiber/fiber/v2"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/pkg/taskmonitor"
	"github.com/linkpilot-ai/linkpilot/pkg/utils"
)

type Tasks struct {
	Monitor *taskmonitor.Monitor
}

func InitRestTasks(app fiber.Router, monitor *taskmonitor.Monitor) Tasks {
	rest := Tasks{Monitor: monitor}
	app.Get("/tasks", rest.List)
	app.Get("/tasks/completed", rest.DrainCompleted)
	app.Get("/tasks/:id", rest.Get)
	return rest
}

func (h *Tasks) List(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tasks fetched",
		Results: h.Monitor.ListByUser(mustUserID(c)),
	})
}

func (h *Tasks) Get(c *fiber.Ctx) error {
	job, ok := h.Monitor.Get(c.Params("id"))
	if !ok {
		panic(pkgError.NotFoundError("task not found"))
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Task fetched",
		Results: job,
	})
}

// DrainCompleted returns finished jobs not yet reported to the client and
// marks them as seen, so polling clients get each completion once.
func (h *Tasks) DrainCompleted(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Completed tasks drained",
		Results: h.Monitor.DrainCompleted(mustUserID(c)),
	})
}
