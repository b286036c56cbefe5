package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/repo/backendhttp"
)

const GenericFailureMessage = "An error occurred. Please try again."

type State int

const (
	StateAwaitingCredentials State = iota
	StateSubmitting
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "awaiting_credentials"
	}
}

type Authenticator interface {
	SignIn(ctx context.Context, creds backendhttp.Credentials) (string, error)
}

type Throttle interface {
	AllowSignIn(ctx context.Context, client string) (int64, bool, error)
	RetryAfterSignIn(ctx context.Context, client string) (int64, error)
	ResetSignIn(ctx context.Context, client string) error
}

// Outcome is what the sign-in view shows after a submit.
type Outcome struct {
	Authenticated bool
	Throttled     bool
	Message       string
}

type Controller struct {
	auth     Authenticator
	throttle Throttle
	logger   *zap.Logger
	state    State
}

func NewController(auth Authenticator, throttle Throttle, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{auth: auth, throttle: throttle, logger: logger}
}

func (c *Controller) State() State {
	return c.state
}

// Cooldown reports whether the client's next attempt would be throttled,
// without counting one. Throttle errors are logged and treated as no wait.
func (c *Controller) Cooldown(ctx context.Context, client string) Outcome {
	if c.throttle == nil {
		return Outcome{}
	}
	retryAfter, err := c.throttle.RetryAfterSignIn(ctx, client)
	if err != nil {
		c.logger.Warn("sign-in throttle unavailable", zap.Error(err))
		return Outcome{}
	}
	if retryAfter <= 0 {
		return Outcome{}
	}
	return Outcome{Throttled: true, Message: throttledMessage(retryAfter)}
}

// Submit makes one sign-in attempt. Only the exact "Login successful"
// message authenticates; anything else returns to AwaitingCredentials.
func (c *Controller) Submit(ctx context.Context, creds backendhttp.Credentials, client string) Outcome {
	c.state = StateSubmitting
	log := c.logger.With(zap.String("email", creds.Email))

	if c.throttle != nil {
		retryAfter, allowed, err := c.throttle.AllowSignIn(ctx, client)
		switch {
		case err != nil:
			log.Warn("sign-in throttle unavailable", zap.Error(err))
		case !allowed:
			c.state = StateAwaitingCredentials
			log.Info("sign-in throttled", zap.Int64("retry_after_sec", retryAfter))
			return Outcome{Throttled: true, Message: throttledMessage(retryAfter)}
		}
	}

	message, err := c.auth.SignIn(ctx, creds)
	if err != nil {
		c.state = StateAwaitingCredentials
		backendMessage := backendhttp.BackendMessage(err)
		if backendhttp.IsTransport(err) || backendMessage == "" {
			log.Error("sign in failed", zap.Error(err))
			return Outcome{Message: GenericFailureMessage}
		}
		log.Info("sign in rejected", zap.String("message", backendMessage))
		return Outcome{Message: backendMessage}
	}

	if message != backendhttp.LoginSuccessMessage {
		c.state = StateAwaitingCredentials
		log.Info("sign in rejected", zap.String("message", message))
		if strings.TrimSpace(message) == "" {
			message = GenericFailureMessage
		}
		return Outcome{Message: message}
	}

	if c.throttle != nil {
		if err := c.throttle.ResetSignIn(ctx, client); err != nil {
			log.Warn("reset sign-in throttle", zap.Error(err))
		}
	}
	c.state = StateAuthenticated
	log.Info("sign in succeeded")
	return Outcome{Authenticated: true, Message: message}
}

func throttledMessage(retryAfter int64) string {
	return fmt.Sprintf("Too many sign-in attempts. Try again in %d seconds.", retryAfter)
}
