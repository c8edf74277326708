// Package tokenizer estimates token counts for prompt and reply text. It is
// the fallback used when an upstream response carries no usage block.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// encodingForModel maps OpenAI model names to tiktoken encoding names.
var encodingForModel = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"o1":            "o200k_base",
	"o3-mini":       "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// CountTokens returns the token count for the given text and model. OpenAI
// models are counted with tiktoken; everything else falls back to
// character-based estimation.
func CountTokens(text, provider, model string) (int64, error) {
	if provider == "openai" {
		return countOpenAI(text, model)
	}
	return EstimateTokens(text), nil
}

func countOpenAI(text, model string) (int64, error) {
	encName, ok := encodingForModel[model]
	if !ok {
		// Unknown OpenAI models default to the current encoding.
		encName = "o200k_base"
	}

	var enc tokenizer.Codec
	var err error
	switch encName {
	case "o200k_base":
		enc, err = tokenizer.Get(tokenizer.O200kBase)
	case "cl100k_base":
		enc, err = tokenizer.Get(tokenizer.Cl100kBase)
	default:
		return EstimateTokens(text), nil
	}
	if err != nil {
		return 0, fmt.Errorf("load encoding %s: %w", encName, err)
	}

	ids, _, err := enc.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("encode text: %w", err)
	}
	return int64(len(ids)), nil
}

// EstimateTokens uses character-based estimation (4 chars per token on
// average), for providers without a local tokenizer.
func EstimateTokens(text string) int64 {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0
	}
	return int64((len(text) + 3) / 4)
}
