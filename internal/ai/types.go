package ai

// MaxTokens is the fixed output budget of every analysis request.
const MaxTokens = 1024

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesRequest is the body of POST /messages.
type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

// Usage is the token accounting returned with a completion.
type Usage struct {
	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`
}

// ContentBlock is one block of generated content.
type ContentBlock struct {
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	Text string `json:"text" yaml:"text"`
}

// AnalysisResult is the decoded completion response.
type AnalysisResult struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Type       string         `json:"type,omitempty" yaml:"type,omitempty"`
	Role       string         `json:"role" yaml:"role"`
	Model      string         `json:"model" yaml:"model"`
	StopReason string         `json:"stop_reason,omitempty" yaml:"stop_reason,omitempty"`
	Usage      Usage          `json:"usage" yaml:"usage"`
	Content    []ContentBlock `json:"content" yaml:"content"`
}

// Text returns the primary analysis text. It is "" only for results that
// did not come from a successful Analyze call.
func (r *AnalysisResult) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// apiError is the Anthropic error envelope.
type apiError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
