package repositories

import "context"

// ExpertQuery is a free-text question for the pet-expert model.
type ExpertQuery struct {
	Question    string
	MaxTokens   int
	Temperature float64
}

// ExpertAnswer is the model's reply.
type ExpertAnswer struct {
	Answer string
	Model  string
}

// ExpertModel abstracts the LLM answering pet-care questions.
type ExpertModel interface {
	Ask(ctx context.Context, query ExpertQuery) (ExpertAnswer, error)
}
