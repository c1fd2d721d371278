// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package chat

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"chai/internal/agent"
	"chai/internal/config"
	"chai/internal/tools"
)

// Client is the OpenAI-compatible model service used by agent sessions.
type Client struct {
	api    ChatClient
	cfg    *config.Config
	logger zerolog.Logger
}

var _ agent.Model = (*Client)(nil)

// NewClient creates a client for the endpoint and credentials in cfg.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIURL != "" {
		clientConfig.BaseURL = cfg.APIURL
		clientConfig.HTTPClient = &http.Client{}
	}
	return NewClientWithAPI(cfg, openai.NewClientWithConfig(clientConfig), logger)
}

// NewClientWithAPI creates a client around a provided API implementation.
func NewClientWithAPI(cfg *config.Config, api ChatClient, logger *zerolog.Logger) *Client {
	c := &Client{api: api, cfg: cfg, logger: zerolog.Nop()}
	if logger != nil {
		c.logger = logger.With().Str("component", "chat").Logger()
	}
	return c
}

// Stream starts one streamed completion for req.
func (c *Client) Stream(ctx context.Context, req agent.Request) (agent.Stream, error) {
	request := c.buildRequest(req)
	c.logger.Debug().
		Str("model", request.Model).
		Int("messages", len(request.Messages)).
		Int("tools", len(request.Tools)).
		Msg("creating completion stream")

	stream, err := c.api.CreateChatCompletionStream(ctx, request)
	if err != nil {
		return nil, &StreamError{Operation: "create_stream", Err: err}
	}
	return newEventStream(stream, func() { stream.Close() }), nil
}

func (c *Client) buildRequest(req agent.Request) openai.ChatCompletionRequest {
	request := openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: toMessages(req.System, req.Turns),
		Stream:   true,
		Tools:    toOpenAITools(req.Tools),
	}
	if c.cfg.Temperature != nil {
		request.Temperature = *c.cfg.Temperature
	}
	if c.cfg.MaxTokens != nil {
		request.MaxTokens = *c.cfg.MaxTokens
	}
	return request
}

func toMessages(system string, turns []agent.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, turn := range turns {
		switch turn.Role {
		case agent.RoleUser:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: turn.Content,
			})
		case agent.RoleAssistant:
			msg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: turn.Content,
			}
			for _, call := range turn.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
			messages = append(messages, msg)
		case agent.RoleTool:
			name := turn.ToolName
			if name == "" {
				name = unknownToolName
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    turn.Content,
				Name:       name,
				ToolCallID: turn.ToolCallID,
			})
		}
	}
	return messages
}

func toOpenAITools(specs []tools.Spec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	defs := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	return defs
}
