package wahisper_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wahisper "github.com/AdonayRH/wahisper-sub000"
	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/inventory"
)

func TestBotDefaultsRunAConversation(t *testing.T) {
	inv := inventory.NewInMemoryGateway()
	require.NoError(t, inv.Upsert(context.Background(), []core.Product{
		{Code: "PEN-01", Description: "Gel pen black", Price: 1.20, Stock: 10},
	}))

	bot := wahisper.New(func(o *wahisper.Options) {
		o.Inventory = inv
	})
	defer bot.Close()

	replies, err := bot.HandleText(context.Background(), "u1", "I want a pen")
	require.NoError(t, err)
	require.NotEmpty(t, replies)
	assert.Contains(t, replies[0].Text, "Gel pen black")

	replies, err = bot.HandleAction(context.Background(), "u1", core.ActionViewCart)
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "cart is empty")
}

func TestBotAdminGateDefaultsClosed(t *testing.T) {
	bot := wahisper.New()
	defer bot.Close()

	replies, err := bot.HandleAction(context.Background(), "u1", core.ActionAdminUpload)
	require.NoError(t, err)
	assert.Contains(t, replies[0].Text, "not allowed")
}
