package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"
	domainContent "github.com/linkpilot-ai/linkpilot/domains/content"
	"github.com/linkpilot-ai/linkpilot/generator"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/pkg/taskmonitor"
	"github.com/linkpilot-ai/linkpilot/pkg/utils"
	"github.com/sirupsen/logrus"
)

type Content struct {
	Service domainContent.IContentUsecase
	Writer  *generator.Ghostwriter
	Monitor *taskmonitor.Monitor
}

func InitRestContent(app fiber.Router, service domainContent.IContentUsecase, writer *generator.Ghostwriter, monitor *taskmonitor.Monitor) Content {
	rest := Content{Service: service, Writer: writer, Monitor: monitor}
	app.Get("/content", rest.List)
	app.Post("/content/generate", rest.Generate)
	app.Get("/content/:id", rest.Get)
	app.Patch("/content/:id", rest.Update)
	app.Delete("/content/:id", rest.Delete)
	app.Post("/content/:id/schedule", rest.Schedule)
	app.Post("/content/:id/publish", rest.PublishNow)
	app.Post("/content/:id/reschedule", rest.Reschedule)
	return rest
}

func (h *Content) List(c *fiber.Ctx) error {
	items, err := h.Service.List(c.UserContext(), mustUserID(c), domainContent.Status(c.Query("status")))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content items fetched",
		Results: items,
	})
}

func (h *Content) Get(c *fiber.Ctx) error {
	item, err := h.Service.Get(c.UserContext(), mustUserID(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content item fetched",
		Results: item,
	})
}

func (h *Content) Update(c *fiber.Ctx) error {
	var req domainContent.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}

	item, err := h.Service.Update(c.UserContext(), mustUserID(c), c.Params("id"), req)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content item updated",
		Results: item,
	})
}

func (h *Content) Delete(c *fiber.Ctx) error {
	err := h.Service.Delete(c.UserContext(), mustUserID(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content item deleted",
	})
}

func (h *Content) Schedule(c *fiber.Ctx) error {
	var req domainContent.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}

	item, err := h.Service.Schedule(c.UserContext(), mustUserID(c), c.Params("id"), req)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content item scheduled",
		Results: item,
	})
}

func (h *Content) PublishNow(c *fiber.Ctx) error {
	item, err := h.Service.PublishNow(c.UserContext(), mustUserID(c), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Publish dispatched",
		Results: item,
	})
}

func (h *Content) Reschedule(c *fiber.Ctx) error {
	var req domainContent.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}

	item, err := h.Service.Reschedule(c.UserContext(), mustUserID(c), c.Params("id"), req)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Content item rescheduled",
		Results: item,
	})
}

// Generate kicks off draft generation as a background job and returns the
// job id for polling.
func (h *Content) Generate(c *fiber.Ctx) error {
	var req domainContent.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}
	if err := req.Validate(); err != nil {
		panic(pkgError.ValidationError(err.Error()))
	}

	userID := mustUserID(c)
	jobID := h.Monitor.Create(userID, "generate")

	go func() {
		ctx := context.Background()
		h.Monitor.SetRunning(jobID)
		item, err := h.Writer.GeneratePost(ctx, userID, req.Prompt, req.Provider)
		if err != nil {
			logrus.WithError(err).Errorf("[REST] Generation job %s failed", jobID)
			h.Monitor.SetError(jobID, err)
			return
		}
		h.Monitor.SetDone(jobID, item.ID)
	}()

	return c.Status(fiber.StatusAccepted).JSON(utils.ResponseData{
		Status:  202,
		Code:    "ACCEPTED",
		Message: "Generation started",
		Results: fiber.Map{"job_id": jobID},
	})
}
