package tokenizer

import (
	"errors"
	"fmt"
)

// CountResult captures the outcome of counting a document.
type CountResult struct {
	Tokens int
	Model  string
}

// CountDocument estimates the tokens of text with counter, reporting model as the estimate's label.
func CountDocument(counter Counter, model string, text string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errors.New("nil tokenizer counter")
	}
	tokens, err := counter.CountString(text)
	if err != nil {
		return CountResult{}, fmt.Errorf("count tokens with %s: %w", counter.Name(), err)
	}
	if model == "" {
		model = counter.Name()
	}
	return CountResult{Tokens: tokens, Model: model}, nil
}
