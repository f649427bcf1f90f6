package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kitbuilder587/invest-bot/internal/llm"
)

type Client struct {
	Response string
	Error    error
	Delay    time.Duration

	mu         sync.Mutex
	queue      []string
	CallCount  int
	LastSystem string
	LastPrompt string
	AllCalls   []LLMCall
}

type LLMCall struct {
	System string
	Prompt string
}

func New() *Client {
	return &Client{
		Response: "Mock narrative for the requested symbol [market] [news] [earnings].",
	}
}

func (c *Client) WithResponse(response string) *Client {
	c.Response = response
	return c
}

// WithResponses задает очередь ответов на последовательные вызовы,
// после исчерпания очереди возвращается Response
func (c *Client) WithResponses(responses ...string) *Client {
	c.queue = append([]string(nil), responses...)
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastSystem = system
	c.LastPrompt = prompt
	c.AllCalls = append(c.AllCalls, LLMCall{System: system, Prompt: prompt})

	response := c.Response
	if len(c.queue) > 0 {
		response = c.queue[0]
		c.queue = c.queue[1:]
	}
	c.mu.Unlock()

	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if c.Error != nil {
		return "", c.Error
	}

	return response, nil
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount = 0
	c.LastSystem = ""
	c.LastPrompt = ""
	c.AllCalls = nil
	c.queue = nil
}

func (c *Client) HasEvaluatorCall() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.AllCalls {
		if strings.Contains(call.System, "evaluation agent") {
			return true
		}
	}
	return false
}

var _ llm.Client = (*Client)(nil)
