package api

type GenerationRequest struct {
	// Required
	Prompt string

	// Optional params
	ModelName   string
	Temperature float32
	MaxTokens   int
}

type CompletionStream interface {
	Recv() (string, error)
	Close() error
}
