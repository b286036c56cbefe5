package botapp

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/config"
)

func TestAppRunsInDryModeWithoutToken(t *testing.T) {
	cfg := config.Default()
	cfg.Bot.Token = ""

	app, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()

	if !app.client.DryRun() {
		t.Fatal("expected dry mode without token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestNewRequiresLogger(t *testing.T) {
	if _, err := New(context.Background(), config.Default(), nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
