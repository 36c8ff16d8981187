// Package studyai turns study-tool requests into prompts for an
// OpenAI-compatible chat completion endpoint and parses the answers.
package studyai

import (
	"context"
	"fmt"
	"strings"

	"edumarket/internal/models"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.0-flash"
)

// ChatCompleter is the part of the go-openai client the service uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config selects the provider endpoint and model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// StructuredOutput requests a JSON schema from the provider for flashcards
	// and quizzes. When false the answer is parsed out of free text.
	StructuredOutput bool
}

// Service generates study aids. Every operation returns a value or an *Error.
type Service struct {
	client     ChatCompleter
	model      string
	structured bool
}

// NewService builds a Service on the go-openai client. Without an API key the
// service still constructs, and each call fails with ErrMissingAPIKey.
func NewService(cfg Config) *Service {
	var client ChatCompleter
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = cfg.BaseURL
		if clientConfig.BaseURL == "" {
			clientConfig.BaseURL = DefaultBaseURL
		}
		client = openai.NewClientWithConfig(clientConfig)
	}
	return NewServiceWithClient(client, cfg.Model, cfg.StructuredOutput)
}

// NewServiceWithClient builds a Service on any ChatCompleter.
func NewServiceWithClient(client ChatCompleter, model string, structured bool) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{
		client:     client,
		model:      model,
		structured: structured,
	}
}

// GeneratePythonCode writes a commented analysis script for a dataset.
func (s *Service) GeneratePythonCode(ctx context.Context, datasetName, goal string) (string, error) {
	const op = "generate code"
	prompt := fmt.Sprintf("You are a Senior Data Scientist. Write a clean, commented Python script for a Kaggle dataset named %q. "+
		"The goal is %q. Use libraries like pandas, matplotlib, and sklearn. Explain what the code does briefly at the end.", datasetName, goal)

	text, err := s.complete(ctx, openai.ChatCompletionRequest{
		Messages:    userMessage(prompt),
		Temperature: 0.3,
		TopP:        0.9,
	})
	if err != nil {
		return "", &Error{Op: op, Err: err}
	}
	return text, nil
}

// Summarize condenses educational content into revision bullets.
func (s *Service) Summarize(ctx context.Context, content string) (string, error) {
	const op = "generate summary"
	prompt := "Summarize the following educational content in a concise, bulleted format suitable for exam revision: \n\n " + content

	text, err := s.complete(ctx, openai.ChatCompletionRequest{
		Messages:    userMessage(prompt),
		Temperature: 0.5,
		TopP:        0.9,
	})
	if err != nil {
		return "", &Error{Op: op, Err: err}
	}
	return text, nil
}

// Flashcards creates question and answer pairs from content.
func (s *Service) Flashcards(ctx context.Context, content string) ([]models.Flashcard, error) {
	const op = "generate flashcards"
	prompt := "Create a set of 5-10 flashcards (Question and Answer pairs) based on the following text. Return them in a valid JSON format. \n\n " + content

	req := s.structuredRequest(prompt, "flashcards", jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"question": {Type: jsonschema.String},
			"answer":   {Type: jsonschema.String},
		},
		Required: []string{"question", "answer"},
	}, `[{"question": "...", "answer": "..."}]`)

	text, err := s.complete(ctx, req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	cards, err := decodeItems(text, "flashcards", validFlashcard)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	return cards, nil
}

// PracticeQuestions creates multiple-choice questions from content.
func (s *Service) PracticeQuestions(ctx context.Context, content string) ([]models.QuizQuestion, error) {
	const op = "generate questions"
	prompt := "Generate 5 multiple-choice questions based on this text for exam practice. Include options and the correct answer. \n\n " + content

	req := s.structuredRequest(prompt, "questions", jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"question":      {Type: jsonschema.String},
			"options":       {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
			"correctAnswer": {Type: jsonschema.String},
		},
		Required: []string{"question", "options", "correctAnswer"},
	}, `[{"question": "...", "options": ["...", "..."], "correctAnswer": "..."}]`)

	text, err := s.complete(ctx, req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	questions, err := decodeItems(text, "questions", validQuizQuestion)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	return questions, nil
}

// structuredRequest asks for {"<field>": [item...]} via a JSON schema, or
// spells the array shape out in the prompt when schemas are off.
func (s *Service) structuredRequest(prompt, field string, item jsonschema.Definition, example string) openai.ChatCompletionRequest {
	if !s.structured {
		prompt += "\n\nRespond with only a JSON array shaped like " + example + "."
		return openai.ChatCompletionRequest{Messages: userMessage(prompt)}
	}

	schema := &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			field: {Type: jsonschema.Array, Items: &item},
		},
		Required: []string{field},
	}
	return openai.ChatCompletionRequest{
		Messages: userMessage(prompt),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   field,
				Schema: schema,
			},
		},
	}
}

// complete performs one round trip and returns the first choice's text.
func (s *Service) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if s.client == nil {
		return "", ErrMissingAPIKey
	}
	req.Model = s.model

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func userMessage(prompt string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}}
}

func validFlashcard(c models.Flashcard) bool {
	return c.Question != "" && c.Answer != ""
}

func validQuizQuestion(q models.QuizQuestion) bool {
	return q.Question != "" && len(q.Options) >= 2 && q.CorrectAnswer != ""
}
