package service

import (
	"encoding/json"
	"strings"
)

// StreamChunk is one provider-neutral piece of a streamed completion
type StreamChunk struct {
	Content         string
	ThinkingContent string // reasoning output from providers that expose it (DeepSeek on NVIDIA)
	Role            string
	Done            bool
}

// StreamChunkParser converts a provider's SSE data line into a StreamChunk
type StreamChunkParser interface {
	ParseChunk(data []byte) (*StreamChunk, error)
}

type rawDelta struct {
	Role             string  `json:"role,omitempty"`
	Content          string  `json:"content,omitempty"`
	ReasoningContent *string `json:"reasoning_content,omitempty"`
}

type rawChunk struct {
	Choices []struct {
		Delta        rawDelta `json:"delta"`
		FinishReason *string  `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

func decodeChunk(data []byte) (*rawChunk, *StreamChunk, error) {
	var raw rawChunk
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	chunk := &StreamChunk{}
	if len(raw.Choices) > 0 {
		choice := raw.Choices[0]
		chunk.Role = choice.Delta.Role
		chunk.Content = choice.Delta.Content
		chunk.Done = choice.FinishReason != nil && *choice.FinishReason != ""
	}
	return &raw, chunk, nil
}

// OpenAIStreamChunkParser parses standard OpenAI-format streaming chunks
type OpenAIStreamChunkParser struct{}

// ParseChunk implements StreamChunkParser
func (p *OpenAIStreamChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	_, chunk, err := decodeChunk(data)
	return chunk, err
}

// NVIDIAStreamChunkParser parses NVIDIA/DeepSeek chunks which carry reasoning_content
type NVIDIAStreamChunkParser struct{}

// ParseChunk implements StreamChunkParser
func (p *NVIDIAStreamChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	raw, chunk, err := decodeChunk(data)
	if err != nil {
		return nil, err
	}
	if len(raw.Choices) > 0 && raw.Choices[0].Delta.ReasoningContent != nil {
		chunk.ThinkingContent = *raw.Choices[0].Delta.ReasoningContent
	}
	return chunk, nil
}

// IsNVIDIAProvider checks if the base URL is NVIDIA API
func IsNVIDIAProvider(baseURL string) bool {
	return strings.Contains(baseURL, "integrate.api.nvidia.com")
}

// IsOpenAIProvider checks if the base URL is official OpenAI API
func IsOpenAIProvider(baseURL string) bool {
	return strings.Contains(baseURL, "api.openai.com")
}
