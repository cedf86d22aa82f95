package exam

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes HTTP endpoints for the exam catalogue and sessions.
type Handler struct {
	service *Service
}

// NewHandler constructs an exam handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListSubjects returns the public subject catalogue.
func (h *Handler) ListSubjects(c *fiber.Ctx) error {
	subjects, err := h.service.ListSubjects(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	}
	out := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, toSubjectResponse(subject))
	}
	return c.JSON(out)
}

// CountQuestions reports the bank size for a subject.
func (h *Handler) CountQuestions(c *fiber.Ctx) error {
	count, err := h.service.CountQuestions(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"subject_id": c.Params("id"), "question_count": count})
}

// CreateSubject registers a subject (admin).
func (h *Handler) CreateSubject(c *fiber.Ctx) error {
	var req SubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	subject, err := h.service.CreateSubject(c.UserContext(), SubjectInput(req))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toSubjectResponse(subject))
}

// UpdateSubject edits a subject (admin).
func (h *Handler) UpdateSubject(c *fiber.Ctx) error {
	var req SubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	subject, err := h.service.UpdateSubject(c.UserContext(), c.Params("id"), SubjectInput(req))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(toSubjectResponse(subject))
}

// DeleteSubject removes a subject (admin).
func (h *Handler) DeleteSubject(c *fiber.Ctx) error {
	if err := h.service.DeleteSubject(c.UserContext(), c.Params("id")); err != nil {
		return mapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateQuestion adds a question (admin).
func (h *Handler) CreateQuestion(c *fiber.Ctx) error {
	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	question, err := h.service.CreateQuestion(c.UserContext(), QuestionInput(req))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": question.ID})
}

// UpdateQuestion edits a question (admin).
func (h *Handler) UpdateQuestion(c *fiber.Ctx) error {
	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	question, err := h.service.UpdateQuestion(c.UserContext(), c.Params("id"), QuestionInput(req))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"id": question.ID})
}

// DeleteQuestion removes a question (admin).
func (h *Handler) DeleteQuestion(c *fiber.Ctx) error {
	if err := h.service.DeleteQuestion(c.UserContext(), c.Params("id")); err != nil {
		return mapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// ImportQuestions bulk-loads a CSV question bank (admin). The subject id
// comes from the subject_id query parameter; the body is the raw CSV.
func (h *Handler) ImportQuestions(c *fiber.Ctx) error {
	subjectID := c.Query("subject_id")
	if subjectID == "" {
		return fiber.NewError(http.StatusBadRequest, "subject_id query parameter is required")
	}
	n, err := h.service.ImportQuestionsCSV(c.UserContext(), subjectID, bytes.NewReader(c.Body()))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"imported": n})
}

// Start opens a session for the authorized credential.
func (h *Handler) Start(c *fiber.Ctx) error {
	credentialID, _ := c.Locals("credential_id").(string)
	var req StartRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	session, questions, err := h.service.StartSession(c.UserContext(), credentialID, req.SubjectID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(StartResponse{
		SessionID:       session.ID,
		SubjectID:       session.SubjectID,
		StartedAt:       session.StartedAt,
		DurationMinutes: session.DurationMinutes,
		Questions:       questions,
	})
}

// Submit scores the session for the authorized credential.
func (h *Handler) Submit(c *fiber.Ctx) error {
	credentialID, _ := c.Locals("credential_id").(string)
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.service.Submit(c.UserContext(), c.Params("sessionId"), credentialID, req.Answers)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(result)
}

// Result returns the stored score for the authorized credential.
func (h *Handler) Result(c *fiber.Ctx) error {
	credentialID, _ := c.Locals("credential_id").(string)
	result, err := h.service.Result(c.UserContext(), c.Params("sessionId"), credentialID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(result)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNoQuestions),
		errors.Is(err, ErrAlreadySubmitted),
		errors.Is(err, ErrTimeExpired):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
