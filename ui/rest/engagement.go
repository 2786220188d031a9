package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"
	domainEngagement "github.com/linkpilot-ai/linkpilot/domains/engagement"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/pkg/taskmonitor"
	"github.com/linkpilot-ai/linkpilot/pkg/utils"
	"github.com/sirupsen/logrus"
)

type Engagement struct {
	Service domainEngagement.IEngagementUsecase
	Monitor *taskmonitor.Monitor
}

func InitRestEngagement(app fiber.Router, service domainEngagement.IEngagementUsecase, monitor *taskmonitor.Monitor) Engagement {
	rest := Engagement{Service: service, Monitor: monitor}
	app.Post("/engagement/comments", rest.DraftComment)
	app.Get("/engagement/comments", rest.ListComments)
	app.Patch("/engagement/comments/:id/status", rest.SetCommentStatus)
	app.Post("/engagement/reports", rest.ResearchCreator)
	app.Get("/engagement/reports", rest.ListReports)
	return rest
}

func (h *Engagement) DraftComment(c *fiber.Ctx) error {
	var req domainEngagement.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}
	req.UserID = mustUserID(c)

	comment, err := h.Service.DraftComment(c.UserContext(), req)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Comment drafted",
		Results: comment,
	})
}

func (h *Engagement) ListComments(c *fiber.Ctx) error {
	comments, err := h.Service.ListComments(c.UserContext(), mustUserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Comments fetched",
		Results: comments,
	})
}

func (h *Engagement) SetCommentStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}

	err := h.Service.SetCommentStatus(c.UserContext(), c.Params("id"), domainEngagement.CommentStatus(req.Status))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Comment status updated",
	})
}

// ResearchCreator kicks off creator research as a background job and returns
// the job id for polling.
func (h *Engagement) ResearchCreator(c *fiber.Ctx) error {
	var req domainEngagement.ResearchRequest
	if err := c.BodyParser(&req); err != nil {
		panic(pkgError.ValidationError("invalid request body."))
	}
	req.UserID = mustUserID(c)
	if err := req.Validate(); err != nil {
		panic(pkgError.ValidationError(err.Error()))
	}

	jobID := h.Monitor.Create(req.UserID, "research")

	go func() {
		ctx := context.Background()
		h.Monitor.SetRunning(jobID)
		report, err := h.Service.ResearchCreator(ctx, req)
		if err != nil {
			logrus.WithError(err).Errorf("[REST] Research job %s failed", jobID)
			h.Monitor.SetError(jobID, err)
			return
		}
		h.Monitor.SetDone(jobID, report.ID)
	}()

	return c.Status(fiber.StatusAccepted).JSON(utils.ResponseData{
		Status:  202,
		Code:    "ACCEPTED",
		Message: "Research started",
		Results: fiber.Map{"job_id": jobID},
	})
}

func (h *Engagement) ListReports(c *fiber.Ctx) error {
	reports, err := h.Service.ListReports(c.UserContext(), mustUserID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Reports fetched",
		Results: reports,
	})
}
