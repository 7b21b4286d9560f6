package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"dialogues/internal/dialogues"
)

// ListDialogues fetches the newest published dialogues, up to limit.
func (c *HTTPClient) ListDialogues(ctx context.Context, limit int) ([]dialogues.Dialogue, error) {
	path := "/api/dialogues"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Dialogues []dialogues.Dialogue `json:"dialogues"`
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list dialogues: %w", err)
	}
	return resp.Dialogues, nil
}

// GetDialogue fetches one dialogue by id. A missing dialogue is (nil, nil).
func (c *HTTPClient) GetDialogue(ctx context.Context, id uuid.UUID) (*dialogues.Dialogue, error) {
	var dialogue dialogues.Dialogue
	err := c.do(ctx, http.MethodGet, "/api/dialogues/"+id.String(), "", nil, &dialogue)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get dialogue: %w", err)
	}
	return &dialogue, nil
}

// PublishDialogue creates a dialogue authored by the signed-in user's profile.
func (c *HTTPClient) PublishDialogue(ctx context.Context, title, content string) (*dialogues.Dialogue, error) {
	payload := map[string]string{"title": title, "content": content}

	var created dialogues.Dialogue
	if err := c.do(ctx, http.MethodPost, "/api/dialogues", c.currentToken(), payload, &created); err != nil {
		return nil, fmt.Errorf("publish dialogue: %w", err)
	}
	return &created, nil
}
