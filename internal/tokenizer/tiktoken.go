package tokenizer

import (
	"errors"

	"github.com/pkoukk/tiktoken-go"
)

var errNilEncoding = errors.New("tiktoken encoding is not initialized")

// tiktokenCounter counts the BPE tokens of a single tiktoken encoding.
// Special-token text inside documents is counted as ordinary text.
type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
	label    string
}

func (counter tiktokenCounter) Name() string {
	return counter.label
}

func (counter tiktokenCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errNilEncoding
	}
	if input == "" {
		return 0, nil
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}
