package handlers

import (
	"errors"
	"log"

	"edumarket/internal/studyai"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// StudyAIHandler exposes the study tools over HTTP.
type StudyAIHandler struct {
	service  *studyai.Service
	validate *validator.Validate
}

// NewStudyAIHandler creates a new StudyAIHandler.
func NewStudyAIHandler(service *studyai.Service) *StudyAIHandler {
	return &StudyAIHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the study tool routes with the Fiber app.
func (h *StudyAIHandler) RegisterRoutes(router fiber.Router) {
	aiRoutes := router.Group("/ai")
	aiRoutes.Post("/summary", h.HandleSummary)
	aiRoutes.Post("/flashcards", h.HandleFlashcards)
	aiRoutes.Post("/quiz", h.HandleQuiz)
	aiRoutes.Post("/code", h.HandleCode)
}

// ContentRequest carries the study material for summary, flashcards and quiz.
type ContentRequest struct {
	Content string `json:"content" validate:"required"`
}

// CodeRequest describes the dataset analysis to write code for.
type CodeRequest struct {
	Dataset string `json:"dataset" validate:"required"`
	Goal    string `json:"goal" validate:"required"`
}

// HandleSummary returns revision bullets for the content.
func (h *StudyAIHandler) HandleSummary(c *fiber.Ctx) error {
	var req ContentRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	summary, err := h.service.Summarize(c.UserContext(), req.Content)
	if err != nil {
		return aiError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// HandleFlashcards returns question and answer cards for the content.
func (h *StudyAIHandler) HandleFlashcards(c *fiber.Ctx) error {
	var req ContentRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	cards, err := h.service.Flashcards(c.UserContext(), req.Content)
	if err != nil {
		return aiError(c, err)
	}
	return c.JSON(fiber.Map{"flashcards": cards})
}

// HandleQuiz returns multiple-choice practice questions for the content.
func (h *StudyAIHandler) HandleQuiz(c *fiber.Ctx) error {
	var req ContentRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	questions, err := h.service.PracticeQuestions(c.UserContext(), req.Content)
	if err != nil {
		return aiError(c, err)
	}
	return c.JSON(fiber.Map{"questions": questions})
}

// HandleCode returns a Python analysis script for a dataset.
func (h *StudyAIHandler) HandleCode(c *fiber.Ctx) error {
	var req CodeRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	code, err := h.service.GeneratePythonCode(c.UserContext(), req.Dataset, req.Goal)
	if err != nil {
		return aiError(c, err)
	}
	return c.JSON(fiber.Map{"code": code})
}

func aiError(c *fiber.Ctx, err error) error {
	log.Printf("Study AI request failed: %v", err)
	status := fiber.StatusBadGateway
	if errors.Is(err, studyai.ErrMissingAPIKey) {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"message": "AI service unavailable",
		"error":   err.Error(),
	})
}
