package engine

import (
	"math/rand"

	"github.com/mailgen/mailgen/config"
	"github.com/mailgen/mailgen/graph"
	"github.com/mailgen/mailgen/models"
)

// Selector samples the next action for an open leaf. It keeps no state of
// its own: the decision is a pure function of the leaf's position in the
// graph, the configuration and the RNG stream, so a fixed seed replays the
// same choices.
type Selector struct {
	cfg   *config.GenerationConfig
	store *graph.Store
}

func NewSelector(cfg *config.GenerationConfig, store *graph.Store) *Selector {
	return &Selector{cfg: cfg, store: store}
}

// Select returns the action for leaf. threadLength is the number of nodes
// already in the leaf's thread, allowance the node budget left for this
// branch. Two guards override the weighted draw: the depth/budget guard and
// the burst guard capping alternating two-party exchanges.
func (sel *Selector) Select(leaf *models.Email, threadLength, allowance int, rng *rand.Rand) models.Action {
	if allowance <= 0 || threadLength >= sel.cfg.MaxThreadLength {
		return models.ActionEnd
	}
	if sel.burstLength(leaf) >= sel.cfg.BurstCap {
		return models.ActionEnd
	}

	probs := sel.cfg.Probabilities()
	draw := rng.Float64()
	switch {
	case draw < probs[0]:
		return models.ActionReply
	case draw < probs[0]+probs[1]:
		return models.ActionReplyAll
	case draw < probs[0]+probs[1]+probs[2]:
		return models.ActionForward
	}
	return models.ActionEnd
}

// burstLength counts the consecutive alternating exchanges between the same
// two participants ending at leaf: each hop is a message whose sender is
// the parent's primary recipient and whose primary recipient is the parent's
// sender. A long run of these is a ping-pong loop that the burst cap cuts
// off.
func (sel *Selector) burstLength(leaf *models.Email) int {
	count := 0
	node := leaf
	for node != nil && node.ParentID != "" {
		parent := sel.store.Parent(node.ID)
		if parent == nil || len(node.To) == 0 || len(parent.To) == 0 {
			break
		}
		if node.From.Address != parent.To[0].Address ||
			node.To[0].Address != parent.From.Address {
			break
		}
		count++
		node = parent
	}
	return count
}
