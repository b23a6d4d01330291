/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/config"
	"github.com/HamedShams/jira-work-hours/internal/domain"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"
)

const systemPrompt = "You are a delivery coach reviewing one engineer's Jira time logs. " +
	"Given a productivity report (estimate vs logged hours per issue, scores where 30-45% is on target) " +
	"and a timesheet gap report, write at most five short plain-text lines: what stands out, " +
	"which days are under-logged, and one concrete suggestion. No markdown."

var ErrDisabled = errors.New("openai: missing key")

type Client struct {
	key   string
	model string
	cli   openai.Client
	log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	model := cfg.OpenAIModel
	if strings.TrimSpace(model) == "" {
		model = "gpt-4.1-mini"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIKey)}
	if cfg.OpenAITimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.OpenAITimeout))
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	return &Client{key: cfg.OpenAIKey, model: model, cli: openai.NewClient(opts...), log: log}
}

// Enabled reports whether a key is configured.
func (c *Client) Enabled() bool { return strings.TrimSpace(c.key) != "" }

// Narrate asks the model for a short commentary on a week of work.
func (c *Client) Narrate(ctx context.Context, rep domain.ProductivityReport, gaps domain.TimesheetGaps) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	c.log.Info().Str("model", c.model).Msg("openai Narrate call")
	b, err := json.Marshal(map[string]any{"productivity": rep, "timesheet": gaps})
	if err != nil {
		return "", err
	}
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(string(b)),
		},
	}
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
