package botapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/foxseedlab/meetsync/internal/botapi"
)

type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) botapi.Client {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

type statusPayload struct {
	Status         string `json:"status"`
	LiveTranscript string `json:"live_transcript"`
}

type transcriptPayload struct {
	Transcript string `json:"transcript"`
}

func (c *HTTPClient) GetStatus(ctx context.Context, providerBotID string) (*botapi.StatusResponse, error) {
	var payload statusPayload
	if err := c.get(ctx, fmt.Sprintf("/bots/%s", providerBotID), &payload); err != nil {
		return nil, err
	}
	return &botapi.StatusResponse{
		Status:         payload.Status,
		LiveTranscript: payload.LiveTranscript,
	}, nil
}

func (c *HTTPClient) GetTranscript(ctx context.Context, providerBotID string) (*botapi.TranscriptResponse, error) {
	var payload transcriptPayload
	if err := c.get(ctx, fmt.Sprintf("/bots/%s/transcript", providerBotID), &payload); err != nil {
		return nil, err
	}
	return &botapi.TranscriptResponse{Text: payload.Transcript}, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", botapi.ErrProviderUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("%w: %s returned status %d", botapi.ErrProviderUnavailable, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
