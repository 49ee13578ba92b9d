package ai

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tiktokenEncoding approximates Claude tokenization closely enough for a
// pre-flight size check.
const tiktokenEncoding = "cl100k_base"

// LargePromptTokens is the estimate above which a prompt is worth warning
// about before it is sent.
const LargePromptTokens = 150_000

// Tokenizer estimates prompt size before a request is made.
type Tokenizer struct {
	useTiktoken bool
	once        sync.Once
	enc         *tiktoken.Tiktoken
	loadErr     error
}

// NewTokenizer returns a heuristic estimator, or a tiktoken-backed one when
// useTiktoken is set. The tiktoken BPE file is fetched (or read from
// TIKTOKEN_CACHE_DIR) on first use; if that fails the heuristic is used.
func NewTokenizer(useTiktoken bool) *Tokenizer {
	return &Tokenizer{useTiktoken: useTiktoken}
}

// Estimate returns the approximate token count of text and which method
// produced it ("tiktoken" or "heuristic").
func (t *Tokenizer) Estimate(text string) (int, string) {
	if t != nil && t.useTiktoken {
		t.once.Do(func() {
			t.enc, t.loadErr = tiktoken.GetEncoding(tiktokenEncoding)
		})
		if t.enc != nil {
			return len(t.enc.Encode(text, nil, nil)), "tiktoken"
		}
	}
	return heuristicTokens(text), "heuristic"
}

// LoadErr reports why the tiktoken encoder is unavailable, if it is.
func (t *Tokenizer) LoadErr() error {
	if t == nil {
		return nil
	}
	return t.loadErr
}

func heuristicTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	wordBased := (len(strings.Fields(text))*4 + 2) / 3
	charBased := len(text) / 4
	if wordBased > charBased {
		return wordBased
	}
	return charBased
}
