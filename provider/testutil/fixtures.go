package testutil

import (
	"time"

	"tooldeck/model"
)

// TestTools returns a sample tool set for classifier and orchestrator tests.
func TestTools() []model.Tool {
	return []model.Tool{
		{
			ID:             "summarizer",
			Name:           "Summarize",
			Description:    "Summarizes a block of text",
			Provider:       "ollama",
			Model:          "llama3.1:latest",
			PromptTemplate: "Summarize the following text:\n\n{input}",
			Activations:    []string{"summarize", "tldr"},
		},
		{
			ID:             "flight-booker",
			Name:           "Flight Booker",
			Description:    "Books flights",
			Provider:       "ollama",
			Model:          "llama3.1:latest",
			PromptTemplate: "Book a flight to {input.destination} on {input.date}.",
			Activations:    []string{"book a flight", "book flight"},
			Schema: []model.ToolParam{
				{Name: "destination", Description: "Where to fly", Type: "string", Required: true},
				{Name: "date", Description: "Departure date", Type: "date", Required: true},
			},
		},
	}
}

// UserMessage returns a user message with the given content.
func UserMessage(content string) model.Message {
	return model.Message{
		Role:      "user",
		Content:   content,
		Timestamp: time.Now(),
	}
}
