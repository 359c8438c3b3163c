package graph

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/mailgen/mailgen/models"
)

// maxIDRetries bounds how often a colliding message-id draw is repeated
// before the attach fails for good.
const maxIDRetries = 8

// IDSource supplies fresh identifiers for a node under registration. Both
// draws must come from the caller's thread-local RNG so that ids stay
// reproducible; the store only enforces global uniqueness.
type IDSource interface {
	NodeID() string
	MessageID() string
}

// Store is the append-only arena holding every node of a run. Nodes refer
// to each other by id, never by pointer, so concurrent readers are safe and
// no ownership cycles form. The store is the single serialization point of
// a run; all other engine state is thread-local.
type Store struct {
	mu sync.Mutex

	nodes    map[string]*models.Email
	byMsgID  map[string]string
	children map[string][]string

	// threads maps thread id to node ids in creation order. threadFirst
	// remembers each thread's root-most node for export ordering.
	threads map[string][]string

	open map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		nodes:    make(map[string]*models.Email),
		byMsgID:  make(map[string]string),
		children: make(map[string][]string),
		threads:  make(map[string][]string),
		open:     make(map[string]struct{}),
	}
}

// CreateRoot registers a thread-opening node and opens it as the thread's
// leaf. The draft must carry headers, body, date and thread id; node and
// message ids are assigned here.
func (s *Store) CreateRoot(draft *models.Email, ids IDSource) (*models.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draft.ParentID != "" {
		return nil, errors.New("root draft must not have a parent")
	}
	if err := s.register(draft, ids); err != nil {
		return nil, err
	}
	return draft, nil
}

// AttachChild validates the draft against its parent and registers it. The
// parent's leaf closes, the child opens. Violated date ordering is fatal
// (ErrDateOrder); message-id collisions are retried a bounded number of
// times before ErrDuplicateID is returned.
func (s *Store) AttachChild(parentID string, draft *models.Email, ids IDSource) (*models.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.nodes[parentID]
	if !ok {
		return nil, errors.Errorf("%s: unknown parent", parentID)
	}
	if !draft.Date.After(parent.Date) {
		return nil, errors.Wrapf(models.ErrDateOrder, "%s -> %s",
			parent.Date, draft.Date)
	}
	if err := s.validateReferences(parent, draft); err != nil {
		return nil, err
	}

	draft.ParentID = parentID
	if err := s.register(draft, ids); err != nil {
		return nil, err
	}
	s.children[parentID] = append(s.children[parentID], draft.ID)
	delete(s.open, parentID)
	return draft, nil
}

// validateReferences checks that the draft's references are the
// ancestry chain of message-ids ending at the parent. A truncated-forward
// draft carries a proper suffix of the chain instead; that is accepted as
// long as it still ends at the parent, so dangling references to broken
// ancestors stay representable.
func (s *Store) validateReferences(parent, draft *models.Email) error {
	refs := draft.References
	if len(refs) == 0 || refs[len(refs)-1] != parent.MessageID {
		return errors.Errorf("references must end at parent %s", parent.MessageID)
	}
	chain := s.ancestryChainLocked(parent.ID)
	chain = append(chain, parent.MessageID)
	if len(refs) > len(chain) {
		return errors.Errorf("references longer than ancestry (%d > %d)",
			len(refs), len(chain))
	}
	offset := len(chain) - len(refs)
	for i, r := range refs {
		if chain[offset+i] != r {
			return errors.Errorf("references diverge from ancestry at %q", r)
		}
	}
	return nil
}

func (s *Store) register(draft *models.Email, ids IDSource) error {
	if draft.ThreadID == "" {
		return errors.New("draft missing thread id")
	}
	draft.ID = ids.NodeID()
	if _, dup := s.nodes[draft.ID]; dup {
		return errors.Wrap(models.ErrDuplicateID, draft.ID)
	}

	var msgid string
	for try := 0; ; try++ {
		msgid = ids.MessageID()
		if _, dup := s.byMsgID[msgid]; !dup {
			break
		}
		if try >= maxIDRetries {
			return errors.Wrap(models.ErrDuplicateID, msgid)
		}
	}
	draft.MessageID = msgid

	s.nodes[draft.ID] = draft
	s.byMsgID[msgid] = draft.ID
	s.threads[draft.ThreadID] = append(s.threads[draft.ThreadID], draft.ID)
	s.open[draft.ID] = struct{}{}
	return nil
}

// CloseLeaf terminates a branch: no further children may attach through the
// engine once its leaf is closed.
func (s *Store) CloseLeaf(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, nodeID)
}

// OpenLeaves returns the open leaf ids, every thread's current attachment
// point. With a thread id, only that thread's leaves. Order follows node
// creation within each thread and is deterministic.
func (s *Store) OpenLeaves(threadID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	appendOpen := func(ids []string) {
		for _, id := range ids {
			if _, ok := s.open[id]; ok {
				out = append(out, id)
			}
		}
	}
	if threadID != "" {
		appendOpen(s.threads[threadID])
		return out
	}
	for _, tid := range s.threadIDsLocked() {
		appendOpen(s.threads[tid])
	}
	return out
}

// Node returns the node with the given id, or nil.
func (s *Store) Node(id string) *models.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes[id]
}

// ByMessageID resolves a message-id to its node, or nil.
func (s *Store) ByMessageID(msgid string) *models.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byMsgID[msgid]; ok {
		return s.nodes[id]
	}
	return nil
}

// AncestryChain returns the message-ids from the thread root down to the
// node's parent, root first. Broken ancestors appear like any other; their
// ids stay valid reference targets.
func (s *Store) AncestryChain(nodeID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ancestryChainLocked(nodeID)
}

func (s *Store) ancestryChainLocked(nodeID string) []string {
	var chain []string
	node := s.nodes[nodeID]
	for node != nil && node.ParentID != "" {
		parent := s.nodes[node.ParentID]
		if parent == nil {
			break
		}
		chain = append(chain, parent.MessageID)
		node = parent
	}
	// walked child-to-root, flip to root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// ThreadNodes returns a thread's nodes in creation order.
func (s *Store) ThreadNodes(threadID string) []*models.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Email, 0, len(s.threads[threadID]))
	for _, id := range s.threads[threadID] {
		out = append(out, s.nodes[id])
	}
	return out
}

// Parent returns a node's parent, or nil for roots.
func (s *Store) Parent(nodeID string) *models.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	if node := s.nodes[nodeID]; node != nil && node.ParentID != "" {
		return s.nodes[node.ParentID]
	}
	return nil
}

// Children returns the ids of a node's children in attach order.
func (s *Store) Children(nodeID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.children[nodeID]))
	copy(out, s.children[nodeID])
	return out
}

// MarkBroken flags a node as lost. The node drops out of Export but keeps
// its message-id registered, so descendants keep dangling references to it.
func (s *Store) MarkBroken(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[nodeID]
	if !ok {
		return errors.Errorf("%s: unknown node", nodeID)
	}
	node.Broken = true
	return nil
}

// Export returns all non-broken nodes in causal order: threads sorted by
// their root date (thread id as tie break), nodes within a thread in chain
// order. A forwarded-off thread always starts later than the node it was
// forked from, so every parent precedes its children in the output.
func (s *Store) Export() []*models.Email {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Email
	for _, tid := range s.threadIDsLocked() {
		for _, id := range s.threads[tid] {
			if node := s.nodes[id]; !node.Broken {
				out = append(out, node)
			}
		}
	}
	return out
}

// threadIDsLocked returns thread ids ordered by root date, then thread id.
func (s *Store) threadIDsLocked() []string {
	ids := make([]string, 0, len(s.threads))
	for tid := range s.threads {
		ids = append(ids, tid)
	}
	sort.Slice(ids, func(i, j int) bool {
		a := s.nodes[s.threads[ids[i]][0]]
		b := s.nodes[s.threads[ids[j]][0]]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Stats summarizes the graph.
type Stats struct {
	Total  int
	Broken int
	// Inclusive counts leaf nodes: messages nothing replies to. Each one
	// carries the full quoted history of its branch.
	Inclusive int
	Threads   int
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Total: len(s.nodes), Threads: len(s.threads)}
	for id, node := range s.nodes {
		if node.Broken {
			st.Broken++
		}
		if len(s.children[id]) == 0 {
			st.Inclusive++
		}
	}
	return st
}
