package perception

import "time"

// =============================================================================
// PROVIDER IDENTIFIERS
// =============================================================================

// Provider identifies which LLM backend a client talks to.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// =============================================================================
// ANTHROPIC WIRE TYPES
// =============================================================================

// AnthropicRequest is the request body for the Messages API.
type AnthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []AnthropicMessage `json:"messages"`
}

// AnthropicMessage is a single conversation turn.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicResponse is the response body for the Messages API.
type AnthropicResponse struct {
	Content []AnthropicContent `json:"content"`
	Error   *AnthropicError    `json:"error,omitempty"`
}

// AnthropicContent is a single content block in a response.
type AnthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AnthropicError is an error payload from the API.
type AnthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// =============================================================================
// OPENAI WIRE TYPES
// =============================================================================

// OpenAIRequest is the request body for chat completions.
type OpenAIRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

// OpenAIMessage is a single chat message.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIResponse is the response body for chat completions.
type OpenAIResponse struct {
	Choices []OpenAIChoice `json:"choices"`
	Error   *OpenAIError   `json:"error,omitempty"`
}

// OpenAIChoice is a single completion choice.
type OpenAIChoice struct {
	Message OpenAIMessage `json:"message"`
}

// OpenAIError is an error payload from the API.
type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// =============================================================================
// GEMINI WIRE TYPES
// =============================================================================

// GeminiRequest is the request body for generateContent.
type GeminiRequest struct {
	Contents          []GeminiContent          `json:"contents"`
	SystemInstruction *GeminiContent           `json:"systemInstruction,omitempty"`
	GenerationConfig  *GeminiGenerationConfig  `json:"generationConfig,omitempty"`
}

// GeminiContent is a role-tagged list of parts.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart is a single text part.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiGenerationConfig tunes generation behavior.
type GeminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// GeminiResponse is the response body for generateContent.
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
	Error      *GeminiError      `json:"error,omitempty"`
}

// GeminiCandidate is a single generated candidate.
type GeminiCandidate struct {
	Content GeminiContent `json:"content"`
}

// GeminiError is an error payload from the API.
type GeminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
