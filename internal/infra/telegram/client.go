package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type UpdateHandler func(context.Context, tgbotapi.Update)

// Sender is the outgoing half of the bot API.
type Sender interface {
	Send(msg tgbotapi.Chattable) error
}

type Client struct {
	api         *tgbotapi.BotAPI
	logger      *zap.Logger
	handler     UpdateHandler
	pollTimeout int
	dryRun      bool
}

// NewClient returns a dry-mode client when token is empty: updates are never
// received and sends are dropped.
func NewClient(token string, pollTimeout int, logger *zap.Logger, handler UpdateHandler) (*Client, error) {
	if handler == nil {
		return nil, errors.New("telegram update handler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if strings.TrimSpace(token) == "" {
		return &Client{
			logger:      logger,
			handler:     handler,
			pollTimeout: pollTimeout,
			dryRun:      true,
		}, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &Client{
		api:         api,
		logger:      logger,
		handler:     handler,
		pollTimeout: pollTimeout,
	}, nil
}

func (c *Client) DryRun() bool {
	return c.dryRun
}

func (c *Client) Start(ctx context.Context) error {
	if c.dryRun {
		c.logger.Warn("BOT_TOKEN is empty, running in dry mode")
		<-ctx.Done()
		return nil
	}

	timeout := c.pollTimeout
	if timeout <= 0 {
		timeout = 30
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = timeout
	updates := c.api.GetUpdatesChan(updateConfig)
	c.logger.Info("telegram polling started", zap.String("bot", c.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			c.handler(ctx, update)
		}
	}
}

func (c *Client) Send(msg tgbotapi.Chattable) error {
	if c.dryRun {
		return nil
	}
	// Callback answers decode to a bool result, which Send cannot unmarshal
	// into a Message.
	if _, ok := msg.(tgbotapi.CallbackConfig); ok {
		_, err := c.api.Request(msg)
		return err
	}
	_, err := c.api.Send(msg)
	return err
}
