// Package openai is a minimal OpenAI API client covering the two
// endpoints the skills need: JSON-mode chat completions (text and
// multimodal) and audio transcription.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client talks to the OpenAI HTTP API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty apiKey produces a client whose calls
// fail with ErrNoAPIKey; callers use Available to pick a fallback path.
func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// NewWithBaseURL creates a client against a non-default endpoint (tests).
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

// ErrNoAPIKey signals that no API key is configured.
var ErrNoAPIKey = fmt.Errorf("no OpenAI API key configured")

// Available reports whether the client has an API key.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Message is one chat message. Content is either a string or a
// []ContentPart for multimodal input.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL holds a data: or https: image reference.
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an inline JPEG content part from raw image bytes.
func ImagePart(jpeg []byte) ContentPart {
	url := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}

type chatRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	ResponseFormat *respFmt  `json:"response_format,omitempty"`
}

type respFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ChatJSON sends a JSON-mode chat completion and parses the reply as a
// JSON object. When the model returns prose around the object, the
// first balanced {...} span is salvaged. If no object can be recovered
// the raw reply text is returned alongside a nil map, with a nil error;
// transport and API failures return an error.
func (c *Client) ChatJSON(ctx context.Context, model string, messages []Message) (map[string]any, string, error) {
	if !c.Available() {
		return nil, "", ErrNoAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: &respFmt{Type: "json_object"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, "", fmt.Errorf("parsing chat response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return nil, "", fmt.Errorf("chat completions error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("chat completions returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, "", fmt.Errorf("chat completions returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		return obj, content, nil
	}
	if salvaged, ok := ExtractJSONObject(content); ok {
		return salvaged, content, nil
	}
	return nil, content, nil
}

type transcribeResponse struct {
	Text  string    `json:"text"`
	Error *apiError `json:"error"`
}

// Transcribe uploads an audio file to the transcription endpoint and
// returns the transcript text.
func (c *Client) Transcribe(ctx context.Context, model, audioPath string) (string, error) {
	if !c.Available() {
		return "", ErrNoAPIKey
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("opening audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copying audio into form: %w", err)
	}
	if err := w.WriteField("model", model); err != nil {
		return "", fmt.Errorf("writing model field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("creating transcription request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling transcription: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing transcription response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("transcription error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription returned status %d", resp.StatusCode)
	}
	return parsed.Text, nil
}

// ExtractJSONObject finds the first balanced top-level JSON object in s,
// respecting string literals and escapes, and parses it. Used to salvage
// structured output from models that wrap JSON in prose.
func ExtractJSONObject(s string) (map[string]any, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				var obj map[string]any
				if err := json.Unmarshal([]byte(s[start:i+1]), &obj); err == nil {
					return obj, true
				}
				// Keep scanning for a later candidate.
				start = -1
			}
		}
	}
	return nil, false
}
