package ai

import (
	"fmt"
	"strings"

	"github.com/kubilitics/promits/internal/apperr"
)

// Model is one of the known Anthropic model identifiers. The zero value is
// not a valid model.
type Model int

const (
	ClaudeOpus4 Model = iota + 1
	ClaudeSonnet4
	Claude37Sonnet
	Claude35Haiku
	Claude35SonnetV2
	Claude35Sonnet
	Claude3Haiku
)

// DefaultModel is used when no model is chosen interactively or configured.
const DefaultModel = ClaudeSonnet4

type modelInfo struct {
	id string
	// USD per million tokens, list price.
	inputPerMTok  float64
	outputPerMTok float64
}

var modelTable = map[Model]modelInfo{
	ClaudeOpus4:      {id: "claude-opus-4-20250514", inputPerMTok: 15, outputPerMTok: 75},
	ClaudeSonnet4:    {id: "claude-sonnet-4-20250514", inputPerMTok: 3, outputPerMTok: 15},
	Claude37Sonnet:   {id: "claude-3-7-sonnet-20250219", inputPerMTok: 3, outputPerMTok: 15},
	Claude35Haiku:    {id: "claude-3-5-haiku-20241022", inputPerMTok: 0.80, outputPerMTok: 4},
	Claude35SonnetV2: {id: "claude-3-5-sonnet-20241022", inputPerMTok: 3, outputPerMTok: 15},
	Claude35Sonnet:   {id: "claude-3-5-sonnet-20240620", inputPerMTok: 3, outputPerMTok: 15},
	Claude3Haiku:     {id: "claude-3-haiku-20240307", inputPerMTok: 0.25, outputPerMTok: 1.25},
}

// Models returns the allow-list in menu order, newest first.
func Models() []Model {
	return []Model{ClaudeOpus4, ClaudeSonnet4, Claude37Sonnet, Claude35Haiku, Claude35SonnetV2, Claude35Sonnet, Claude3Haiku}
}

// String returns the wire identifier, or "" for an invalid model.
func (m Model) String() string {
	return modelTable[m].id
}

func (m Model) Valid() bool {
	_, ok := modelTable[m]
	return ok
}

// ParseModel maps a wire identifier to its Model.
func ParseModel(id string) (Model, error) {
	id = strings.TrimSpace(id)
	for m, info := range modelTable {
		if info.id == id {
			return m, nil
		}
	}
	return 0, apperr.NewInput("model", "unknown model %q (run `promits models` for the supported list)", id)
}

func (m Model) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid model %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Model) UnmarshalText(b []byte) error {
	parsed, err := ParseModel(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// EstimateCostUSD prices a usage record at the model's list rates.
func (m Model) EstimateCostUSD(u Usage) float64 {
	info, ok := modelTable[m]
	if !ok {
		return 0
	}
	in := float64(max(0, u.InputTokens)) / 1e6 * info.inputPerMTok
	out := float64(max(0, u.OutputTokens)) / 1e6 * info.outputPerMTok
	return in + out
}

// Rates returns the list price per million input and output tokens.
func (m Model) Rates() (inputPerMTok, outputPerMTok float64) {
	info := modelTable[m]
	return info.inputPerMTok, info.outputPerMTok
}
