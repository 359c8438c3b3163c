package engine

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailgen/mailgen/config"
	"github.com/mailgen/mailgen/graph"
	"github.com/mailgen/mailgen/models"
)

type seqIDs struct {
	node, msg int
}

func (s *seqIDs) NodeID() string {
	s.node++
	return fmt.Sprintf("node-%d", s.node)
}

func (s *seqIDs) MessageID() string {
	s.msg++
	return fmt.Sprintf("msg-%d@test", s.msg)
}

func selectorConfig() *config.GenerationConfig {
	return &config.GenerationConfig{
		MaxThreadLength: 9,
		BurstCap:        3,
		ReplyWeight:     40,
		ReplyAllWeight:  40,
		ForwardWeight:   10,
		EndWeight:       10,
	}
}

// buildPingPong grows a two-party exchange of the given number of replies
// under a root and returns the final leaf.
func buildPingPong(t *testing.T, store *graph.Store, hops int) *models.Email {
	t.Helper()
	ids := &seqIDs{}
	alice := &mail.Address{Address: "alice@test"}
	bob := &mail.Address{Address: "bob@test"}

	date := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	node, err := store.CreateRoot(&models.Email{
		ThreadID: "t1", Type: models.ActionNew,
		From: alice, To: []*mail.Address{bob},
		Date: date, Subject: "Ping",
	}, ids)
	require.NoError(t, err)

	for i := 0; i < hops; i++ {
		date = date.Add(time.Hour)
		from, to := bob, alice
		if i%2 == 1 {
			from, to = alice, bob
		}
		node, err = store.AttachChild(node.ID, &models.Email{
			ThreadID: "t1", Type: models.ActionReply,
			From: from, To: []*mail.Address{to},
			Date:       date,
			Subject:    "Re: Ping",
			InReplyTo:  node.MessageID,
			References: append(append([]string{}, node.References...), node.MessageID),
		}, ids)
		require.NoError(t, err)
	}
	return node
}

func TestSelectorBurstCap(t *testing.T) {
	store := graph.NewStore()
	leaf := buildPingPong(t, store, 3)
	sel := NewSelector(selectorConfig(), store)

	// three alternating replies hit the cap: every draw is forced to End
	for seed := int64(0); seed < 20; seed++ {
		action := sel.Select(leaf, 4, 100, rand.New(rand.NewSource(seed)))
		assert.Equal(t, models.ActionEnd, action, "seed %d", seed)
	}
}

func TestSelectorBelowBurstCap(t *testing.T) {
	store := graph.NewStore()
	leaf := buildPingPong(t, store, 2)
	cfg := selectorConfig()
	cfg.EndWeight = 0.0001
	cfg.ForwardWeight = 0.0001
	sel := NewSelector(cfg, store)

	// two hops do not trip a cap of three, replies continue
	action := sel.Select(leaf, 3, 100, rand.New(rand.NewSource(1)))
	assert.True(t, action.IsReplyClass(), "got %s", action)
}

func TestSelectorDepthGuard(t *testing.T) {
	store := graph.NewStore()
	leaf := buildPingPong(t, store, 0)
	sel := NewSelector(selectorConfig(), store)

	tests := []struct {
		name         string
		threadLength int
		allowance    int
	}{
		{"max thread length", 9, 100},
		{"beyond max", 12, 100},
		{"no allowance", 2, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			action := sel.Select(leaf, test.threadLength, test.allowance,
				rand.New(rand.NewSource(1)))
			assert.Equal(t, models.ActionEnd, action)
		})
	}
}

func TestSelectorWeights(t *testing.T) {
	store := graph.NewStore()
	leaf := buildPingPong(t, store, 0)

	// overwhelming weight on one action pins the draw
	tests := []struct {
		name   string
		adjust func(*config.GenerationConfig)
		want   models.Action
	}{
		{"reply", func(c *config.GenerationConfig) { c.ReplyWeight = 1e9 }, models.ActionReply},
		{"forward", func(c *config.GenerationConfig) { c.ForwardWeight = 1e9 }, models.ActionForward},
		{"end", func(c *config.GenerationConfig) { c.EndWeight = 1e9 }, models.ActionEnd},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := selectorConfig()
			test.adjust(cfg)
			sel := NewSelector(cfg, store)
			for seed := int64(0); seed < 10; seed++ {
				action := sel.Select(leaf, 2, 100, rand.New(rand.NewSource(seed)))
				assert.Equal(t, test.want, action, "seed %d", seed)
			}
		})
	}
}
