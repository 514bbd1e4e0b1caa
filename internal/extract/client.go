package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.openai.com/v1"

// Client calls the OpenAI chat-completions API to turn a free-text incident
// description into structured operation fields.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// Config describes the credentials and model for the client.
type Config struct {
	APIKey  string
	Model   string
	APIBase string
}

// TransportOption is a catalog entry offered to the model.
type TransportOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Result holds the fields extracted from the description. Optional fields
// are null when the description does not mention them.
type Result struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Date        *string           `json:"date"`
	Latitude    *string           `json:"latitude"`
	Longitude   *string           `json:"longitude"`
	Type        string            `json:"type"`
	Transports  []TransportOption `json:"transports"`
}

// New builds a client; the API key is required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("extract: api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o"
	}

	apiBase := strings.TrimSpace(cfg.APIBase)
	if apiBase == "" {
		apiBase = defaultAPIBase
	}

	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    strings.TrimRight(apiBase, "/"),
	}, nil
}

const systemPrompt = `Analyze the provided operation description and extract the information needed to fill in the operation details. You will be given:

1. Operation description: free text with the key facts about the operation.
2. Available transports: a list in the format {id: number, name: transport name}.
3. Possible operation types, comma separated.

Determine the most suitable operation type, select one or more transports that can help carry out the operation, and extract the remaining details:

- name: compose a suitable title from the description.
- description: a short summary of the description.
- date: the operation date in YYYY-MM-DD if clearly stated, otherwise null.
- latitude/longitude: approximate coordinates in the 48.1616 format when the description names an address or location, otherwise null.
- type: the best match from the provided types.
- transports: at least one transport from the provided list that best fits the stated needs.

Use null for date, latitude or longitude when the description is ambiguous or incomplete. Always pick at least one transport.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractOperation sends the description plus catalog to the model and
// decodes the structured answer.
func (c *Client) ExtractOperation(ctx context.Context, prompt string, transports []TransportOption, types []string) (*Result, error) {
	catalog, err := json.Marshal(transports)
	if err != nil {
		return nil, err
	}

	userMsg := fmt.Sprintf("Possible types: %s. Available transports: %s. Operation description: %s",
		strings.Join(types, ", "), string(catalog), prompt)

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMsg},
		},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   "operation",
				Strict: true,
				Schema: resultSchema(types),
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		// The body is only JSON when the API itself answered; a proxy error
		// page must still map to a status error.
		var apiErr chatResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("extract: api error: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("extract: status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("extract: decode response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, errors.New("extract: empty response")
	}
	choice := parsed.Choices[0].Message
	if choice.Refusal != "" {
		return nil, fmt.Errorf("extract: refused: %s", choice.Refusal)
	}

	var result Result
	if err := json.Unmarshal([]byte(choice.Content), &result); err != nil {
		return nil, fmt.Errorf("extract: decode result: %w", err)
	}

	return &result, nil
}

func resultSchema(types []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"name", "description", "date", "latitude", "longitude", "type", "transports"},
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"date":        map[string]any{"type": []string{"string", "null"}},
			"latitude":    map[string]any{"type": []string{"string", "null"}},
			"longitude":   map[string]any{"type": []string{"string", "null"}},
			"type":        map[string]any{"type": "string", "enum": types},
			"transports": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"id", "name"},
					"properties": map[string]any{
						"id":   map[string]any{"type": "integer"},
						"name": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
