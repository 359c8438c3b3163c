package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mailgen/mailgen/attach"
	"github.com/mailgen/mailgen/compose"
	"github.com/mailgen/mailgen/config"
	"github.com/mailgen/mailgen/content"
	"github.com/mailgen/mailgen/graph"
	"github.com/mailgen/mailgen/lib"
	"github.com/mailgen/mailgen/log"
	"github.com/mailgen/mailgen/models"
	"github.com/mailgen/mailgen/roster"
)

// threadGamma spaces the per-thread RNG substreams; brokenSalt seeds the
// post-build data-loss pass. Both are arbitrary odd constants.
const (
	threadGamma uint64 = 0x9E3779B97F4A7C15
	brokenSalt         = 0x5851F42D4C957F2D
)

// substream derives a deterministic thread-local RNG from the run seed.
// Thread interleaving never touches another thread's stream, so the graph
// comes out identical at any worker count.
func substream(seed int64, index int) *rand.Rand {
	return rand.New(rand.NewSource(int64(uint64(seed) ^ (uint64(index)+1)*threadGamma)))
}

// idSource draws node and message ids from a task's substream. The graph
// store checks them for global uniqueness.
type idSource struct {
	rng    *rand.Rand
	domain string
}

func (s idSource) NodeID() string {
	return uuid.Must(uuid.NewRandomFromReader(s.rng)).String()
}

func (s idSource) MessageID() string {
	return lib.GenerateMessageID(s.rng, s.domain)
}

var subjectSuffixes = []string{
	"- Follow Up", "- Continued", "- Revisited",
	"- Additional Thoughts", "- Part II",
}

// Engine drives a run from root creation to termination. All shared state
// lives in the graph store; everything else is task-local.
type Engine struct {
	cfg      *config.Config
	store    *graph.Store
	selector *Selector
	roster   roster.Provider
	provider content.Provider
	fallback content.Template
	renderer attach.Renderer
	logger   log.Logger

	// usedSubjects de-duplicates root subjects across threads. Roots are
	// created sequentially, so no lock is needed.
	usedSubjects map[string]struct{}
}

func New(cfg *config.Config, store *graph.Store, ros roster.Provider,
	provider content.Provider, renderer attach.Renderer,
) *Engine {
	return &Engine{
		cfg:          cfg,
		store:        store,
		selector:     NewSelector(&cfg.Generation, store),
		roster:       ros,
		provider:     provider,
		renderer:     renderer,
		logger:       log.NewLogger("engine", 3),
		usedSubjects: make(map[string]struct{}),
	}
}

// task is the unit of expansion: one root thread plus any threads its
// forwards spawn, processed sequentially on one thread-local RNG stream.
type task struct {
	index     int
	rng       *rand.Rand
	clock     *clock
	leaf      *models.Email
	threadLen int
	// allowance is this task's slice of the global node budget; used
	// reports back how much of it was consumed.
	allowance int
	used      int
}

// Generate builds the whole conversation graph. It terminates when every
// leaf is closed or the node budget is exhausted; the depth and burst
// guards guarantee every branch eventually ends. On cancellation the graph
// stays valid: nodes register atomically, so no partial node is ever
// visible.
func (e *Engine) Generate(ctx context.Context) error {
	gen := &e.cfg.Generation
	remaining := gen.NodeBudget
	threadIdx := 0

	for {
		wave := gen.Roots
		if wave < 1 {
			wave = 1
		}
		if gen.TargetLeaves > 0 {
			if e.store.Stats().Inclusive >= gen.TargetLeaves {
				break
			}
		} else if threadIdx > 0 {
			break
		}

		var tasks []*task
		for i := 0; i < wave && remaining > 0; i++ {
			t, err := e.createRoot(ctx, threadIdx)
			if err != nil {
				return err
			}
			remaining--
			threadIdx++
			tasks = append(tasks, t)
		}
		if len(tasks) == 0 {
			e.logger.Infof("stopping: %s", models.ErrBudgetExceeded)
			break
		}

		// deterministic budget split: tasks draw from pre-assigned
		// allowances, never from a shared counter that would make the
		// outcome depend on goroutine interleaving
		share, extra := remaining/len(tasks), remaining%len(tasks)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(gen.Workers)
		for i, t := range tasks {
			t.allowance = share
			if i < extra {
				t.allowance++
			}
			t := t
			g.Go(func() error {
				defer log.PanicHandler()
				return e.expand(gctx, t)
			})
		}
		err := g.Wait()
		for _, t := range tasks {
			remaining -= t.used
		}
		if err != nil {
			// cancellation closes every leaf and leaves a valid
			// partial graph behind
			if errors.Is(err, context.Canceled) {
				e.logger.Warnf("generation interrupted")
				break
			}
			return err
		}

		if gen.TargetLeaves == 0 {
			break
		}
		if remaining <= 0 {
			e.logger.Infof("stopping: %s", models.ErrBudgetExceeded)
			break
		}
	}

	e.markBroken()

	st := e.store.Stats()
	e.logger.Infof("generation done: %d emails, %d inclusive, %d threads, %d broken",
		st.Total, st.Inclusive, st.Threads, st.Broken)
	return nil
}

// createRoot opens a new thread with a topic-opening message.
func (e *Engine) createRoot(ctx context.Context, index int) (*task, error) {
	gen := &e.cfg.Generation
	rng := substream(gen.Seed, index)
	clk := newClock(
		e.cfg.Dates.Start.Add(time.Duration(index)*e.cfg.Dates.MinStep),
		e.cfg.Dates.MinStep, e.cfg.Dates.MaxStep)

	people := e.roster.Lookup(e.cfg.Roster.Department)
	if len(people) < 2 {
		people = e.roster.Lookup("")
	}
	if len(people) < 2 {
		return nil, errors.New("roster too small to address mail")
	}
	sender := people[rng.Intn(len(people))]
	var others []*roster.Person
	for _, p := range people {
		if p != sender {
			others = append(others, p)
		}
	}
	n := 1 + rng.Intn(3)
	if n > len(others) {
		n = len(others)
	}
	var to []*mail.Address
	for ; n > 0; n-- {
		i := rng.Intn(len(others))
		to = append(to, others[i].Address())
		others = append(others[:i], others[i+1:]...)
	}

	date := clk.tick(rng)
	res := e.text(ctx, &content.Request{
		Sender:     sender.Address(),
		Recipients: to,
		Topic:      gen.Topic,
		Style:      content.StyleNew,
		RNG:        rng,
	})
	subject := e.dedupSubject(res.Subject, rng)

	atts, err := compose.ResolveAttachments(&compose.AttachmentInput{
		Action:   models.ActionNew,
		Subject:  subject,
		Date:     date,
		RootRate: e.cfg.Attachments.RootRate,
		Renderer: e.renderer,
		RNG:      rng,
	})
	if err != nil {
		e.logger.Warnf("thread %d: %v, continuing without attachment", index, err)
	}

	draft := &models.Email{
		ThreadID:    uuid.Must(uuid.NewRandomFromReader(rng)).String(),
		Type:        models.ActionNew,
		From:        sender.Address(),
		To:          to,
		Date:        date,
		Subject:     subject,
		Content:     res.Body,
		Attachments: atts,
	}
	root, err := e.store.CreateRoot(draft, idSource{rng, e.roster.Domain()})
	if err != nil {
		return nil, err
	}
	e.logProgress()
	return &task{index: index, rng: rng, clock: clk, leaf: root, threadLen: 1}, nil
}

// expand grows one task's thread until its leaf resolves to End or the
// branch runs out of allowance.
func (e *Engine) expand(ctx context.Context, t *task) error {
	for {
		if err := ctx.Err(); err != nil {
			e.store.CloseLeaf(t.leaf.ID)
			return err
		}

		action := e.selector.Select(t.leaf, t.threadLen, t.allowance, t.rng)
		if action == models.ActionEnd {
			e.store.CloseLeaf(t.leaf.ID)
			e.logger.Debugf("thread %d: branch ended at %d nodes",
				t.index, t.threadLen)
			return nil
		}

		child, err := e.composeChild(ctx, t, action)
		switch {
		case err == nil:
		case errors.Is(err, models.ErrRecipientPoolExhausted):
			e.logger.Debugf("thread %d: %v, ending branch", t.index, err)
			e.store.CloseLeaf(t.leaf.ID)
			return nil
		case errors.Is(err, models.ErrDuplicateID):
			// the store already retried; give up on the branch,
			// not the run
			e.logger.Warnf("thread %d: %v, ending branch", t.index, err)
			e.store.CloseLeaf(t.leaf.ID)
			return nil
		default:
			return err
		}

		t.used++
		t.allowance--
		if child.ThreadID == t.leaf.ThreadID {
			t.threadLen++
		} else {
			t.threadLen = 1
		}
		t.leaf = child
		e.logProgress()
	}
}

// composeChild produces and attaches the node for a reply, reply-all or
// forward of the task's current leaf.
func (e *Engine) composeChild(ctx context.Context, t *task, action models.Action) (*models.Email, error) {
	gen := &e.cfg.Generation
	parent := t.leaf

	participants := lib.NewAddressSet()
	for _, node := range e.store.ThreadNodes(parent.ThreadID) {
		participants.Add(node.From)
		participants.AddList(node.To)
		participants.AddList(node.Cc)
	}

	sender := e.pickSender(t, action, parent, participants)

	headers, err := compose.ComposeHeaders(&compose.HeaderInput{
		Parent:       parent,
		Action:       action,
		Sender:       sender,
		Participants: participants,
		Roster:       e.roster,
		ForwardRefs:  gen.ForwardRefs,
		RNG:          t.rng,
	})
	if err != nil {
		return nil, err
	}

	date := t.clock.tick(t.rng)

	style := content.StyleReply
	if action == models.ActionForward {
		style = content.StyleForward
	}
	res := e.text(ctx, &content.Request{
		Sender:     sender,
		Recipients: headers.To,
		Topic:      gen.Topic,
		Subject:    headers.Subject,
		PriorText:  parent.Rendered(),
		Style:      style,
		RNG:        t.rng,
	})
	body := compose.ComposeBody(parent, action, res.Body)

	atts, err := compose.ResolveAttachments(&compose.AttachmentInput{
		Parent:         parent,
		Action:         action,
		Subject:        headers.Subject,
		Date:           date,
		ReattachProb:   gen.ReattachProb,
		ForwardNewRate: e.cfg.Attachments.ForwardNewRate,
		Renderer:       e.renderer,
		RNG:            t.rng,
	})
	if err != nil {
		// renderer failures are non-fatal; the carried-over set in
		// atts is still valid
		e.logger.Warnf("thread %d: %v, continuing", t.index, err)
	}

	threadID := parent.ThreadID
	if action == models.ActionForward && gen.ForwardNewThread {
		threadID = uuid.Must(uuid.NewRandomFromReader(t.rng)).String()
	}

	draft := &models.Email{
		ThreadID:    threadID,
		Type:        action,
		From:        headers.From,
		To:          headers.To,
		Cc:          headers.Cc,
		Date:        date,
		Subject:     headers.Subject,
		InReplyTo:   headers.InReplyTo,
		References:  headers.References,
		Content:     body.Content,
		QuotedBlock: body.QuotedBlock,
		Attachments: atts,
	}
	return e.store.AttachChild(parent.ID, draft, idSource{t.rng, e.roster.Domain()})
}

// pickSender chooses who writes the next message: replies come from one of
// the parent's recipients (possibly the parent's own sender, self-replies
// are legal), forwards from any thread participant with a roster entry.
func (e *Engine) pickSender(t *task, action models.Action, parent *models.Email,
	participants lib.AddressSet,
) *mail.Address {
	if action.IsReplyClass() {
		pool := parent.Recipients()
		if len(pool) == 0 {
			return parent.From
		}
		return pool[t.rng.Intn(len(pool))]
	}
	var pool []*roster.Person
	for _, p := range e.roster.Lookup("") {
		if participants.Contains(p.Address()) {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		all := e.roster.Lookup("")
		return all[t.rng.Intn(len(all))].Address()
	}
	return pool[t.rng.Intn(len(pool))].Address()
}

// text runs the content provider and falls back to templated output when it
// fails; a flaky provider never kills a run.
func (e *Engine) text(ctx context.Context, req *content.Request) *content.Result {
	// text draws from a forked per-message stream. The structural stream
	// advances by exactly one draw here, no matter how much entropy the
	// provider or the fallback consumes.
	req.RNG = rand.New(rand.NewSource(req.RNG.Int63()))
	if e.provider != nil {
		res, err := e.provider.Generate(ctx, req)
		if err == nil {
			return res
		}
		e.logger.Warnf("%v: %v, using template fallback",
			models.ErrContentProvider, err)
	}
	res, _ := e.fallback.Generate(ctx, req)
	return res
}

// dedupSubject avoids identical root subjects across threads by appending a
// follow-up style suffix, falling back to a counter when the suffixed form
// is taken as well.
func (e *Engine) dedupSubject(subject string, rng *rand.Rand) string {
	if _, used := e.usedSubjects[subject]; used {
		subject = subject + " " + subjectSuffixes[rng.Intn(len(subjectSuffixes))]
	}
	if _, used := e.usedSubjects[subject]; used {
		base := subject
		for i := 2; ; i++ {
			subject = fmt.Sprintf("%s (%d)", base, i)
			if _, used := e.usedSubjects[subject]; !used {
				break
			}
		}
	}
	e.usedSubjects[subject] = struct{}{}
	return subject
}

// markBroken simulates data loss on a fraction of interior nodes. It runs
// only after the full graph is built, so every descendant's reference chain
// was computed against the still-present ancestor and now dangles exactly
// like a collected-but-incomplete corpus would.
func (e *Engine) markBroken() {
	frac := e.cfg.Generation.BrokenFraction
	if frac <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(e.cfg.Generation.Seed ^ brokenSalt))
	for _, node := range e.store.Export() {
		if node.ParentID == "" || len(e.store.Children(node.ID)) == 0 {
			continue
		}
		if rng.Float64() < frac {
			if err := e.store.MarkBroken(node.ID); err != nil {
				e.logger.Errorf("mark broken: %v", err)
				continue
			}
			e.logger.Debugf("marked %s broken", node.MessageID)
		}
	}
}

func (e *Engine) logProgress() {
	st := e.store.Stats()
	e.logger.Tracef("progress: total=%d inclusive=%d", st.Total, st.Inclusive)
}
