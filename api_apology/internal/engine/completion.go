package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sorrymonster/pkg/models"
)

var (
	// ErrEmptyCompletion means the model returned no content.
	ErrEmptyCompletion = errors.New("empty completion from model")
	// ErrMalformedCompletion means the content was not the expected JSON object.
	ErrMalformedCompletion = errors.New("malformed completion from model")
)

// channelCompletion is what one per-channel model call returns. Drafts is
// accepted as well for models that answer with the full multi-channel shape.
type channelCompletion struct {
	Draft       *models.ChannelDraft           `json:"draft"`
	Drafts      map[string]models.ChannelDraft `json:"drafts"`
	Metrics     *models.Metrics                `json:"metrics"`
	Detectors   models.Detectors               `json:"detectors"`
	Adjustments []string                       `json:"adjustments"`
	Rationales  []string                       `json:"rationales"`
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func parseChannelCompletion(raw string, ch models.Channel) (*channelCompletion, models.ChannelDraft, error) {
	s := stripFences(raw)
	if s == "" {
		return nil, models.ChannelDraft{}, ErrEmptyCompletion
	}

	var c channelCompletion
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, models.ChannelDraft{}, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}

	var draft models.ChannelDraft
	switch {
	case c.Draft != nil:
		draft = *c.Draft
	case c.Drafts != nil:
		d, ok := c.Drafts[string(ch)]
		if !ok {
			return nil, models.ChannelDraft{}, fmt.Errorf("%w: no draft for channel %s", ErrMalformedCompletion, ch)
		}
		draft = d
	default:
		return nil, models.ChannelDraft{}, fmt.Errorf("%w: missing draft", ErrMalformedCompletion)
	}

	if strings.TrimSpace(draft.Useful) == "" || strings.TrimSpace(draft.Pointless) == "" {
		return nil, models.ChannelDraft{}, fmt.Errorf("%w: draft needs both useful and pointless text", ErrMalformedCompletion)
	}
	if c.Metrics == nil {
		return nil, models.ChannelDraft{}, fmt.Errorf("%w: missing metrics", ErrMalformedCompletion)
	}
	return &c, draft, nil
}

func parseInterpretCompletion(raw string) (*models.InterpretResponse, error) {
	s := stripFences(raw)
	if s == "" {
		return nil, ErrEmptyCompletion
	}
	var out models.InterpretResponse
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCompletion, err)
	}
	return &out, nil
}
