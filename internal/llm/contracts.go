package llm

import "context"

// CompletionRequest is one chat-style completion call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	// JSONMode asks the provider to answer with a single JSON object.
	JSONMode bool
}

// Completer is the text-completion service the reviewer depends on.
// It returns the model's text content.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
