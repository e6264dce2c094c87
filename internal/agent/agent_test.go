package agent

import (
	"errors"
	"strings"
	"testing"

	"github.com/Garsondee/Swarm-Sense/internal/comms"
	"github.com/Garsondee/Swarm-Sense/internal/grid"
	"github.com/Garsondee/Swarm-Sense/internal/nav"
	"github.com/Garsondee/Swarm-Sense/internal/simlog"
)

// fakeEnv is a single agent on an open map with a private shared array.
type fakeEnv struct {
	id       int
	role     Role
	w, h     int
	round    int
	pos      grid.Loc
	facing   grid.Direction
	walls    map[grid.Loc]bool
	res      map[grid.Loc]int
	entities []Entity
	shared   *[comms.SlotCount]int
	inbox    []uint32
	sent     []uint32
	budget   int
	carried  int
	health   int
	stock    int
	moved    bool
	yields   int
	spawned  []grid.Direction
	promoted int
	// promoteErr makes Promote fail.
	promoteErr error
}

func newFakeEnv(role Role, start grid.Loc) *fakeEnv {
	return &fakeEnv{
		role:   role,
		w:      30,
		h:      30,
		pos:    start,
		facing: grid.North,
		walls:  make(map[grid.Loc]bool),
		res:    make(map[grid.Loc]int),
		shared: new([comms.SlotCount]int),
		budget: 10_000,
		health: 100,
	}
}

func (e *fakeEnv) Round() int             { return e.round }
func (e *fakeEnv) ID() int                { return e.id }
func (e *fakeEnv) Role() Role             { return e.role }
func (e *fakeEnv) Location() grid.Loc     { return e.pos }
func (e *fakeEnv) Facing() grid.Direction { return e.facing }
func (e *fakeEnv) MapWidth() int          { return e.w }
func (e *fakeEnv) MapHeight() int         { return e.h }
func (e *fakeEnv) OnMap(l grid.Loc) bool  { return l.X >= 0 && l.Y >= 0 && l.X < e.w && l.Y < e.h }
func (e *fakeEnv) CanTurn() bool          { return true }
func (e *fakeEnv) Carried() int           { return e.carried }
func (e *fakeEnv) Health() int            { return e.health }
func (e *fakeEnv) TeamStock() int         { return e.stock }
func (e *fakeEnv) BudgetLeft() int        { return e.budget }
func (e *fakeEnv) SenseNearby() []Entity  { return e.entities }
func (e *fakeEnv) ReadShared(i int) int   { return e.shared[i] }

func (e *fakeEnv) CanMove(d grid.Direction) bool {
	if e.moved || d == grid.Center || !d.Valid() {
		return false
	}
	next := e.pos.Add(d)
	return e.OnMap(next) && !e.walls[next]
}

func (e *fakeEnv) Move(d grid.Direction) error {
	if !e.CanMove(d) {
		return errors.New("blocked")
	}
	e.pos = e.pos.Add(d)
	e.moved = true
	return nil
}

func (e *fakeEnv) Turn(d grid.Direction) error {
	e.facing = d
	return nil
}

func (e *fakeEnv) SenseCells() []Cell {
	var out []Cell
	for l, n := range e.res {
		out = append(out, Cell{Loc: l, Resource: n})
	}
	return out
}

func (e *fakeEnv) SenseCell(l grid.Loc) (Cell, bool) {
	return Cell{Loc: l, Wall: e.walls[l], Resource: e.res[l]}, e.OnMap(l)
}

func (e *fakeEnv) Collect(l grid.Loc) error {
	if e.res[l] <= 0 {
		return errors.New("depleted")
	}
	e.res[l]--
	e.carried++
	return nil
}

func (e *fakeEnv) Deliver(grid.Loc) error {
	e.stock += e.carried
	e.carried = 0
	return nil
}

func (e *fakeEnv) Spawn(d grid.Direction) error {
	if !e.OnMap(e.pos.Add(d)) {
		return errors.New("off map")
	}
	e.spawned = append(e.spawned, d)
	return nil
}

func (e *fakeEnv) Promote() error {
	if e.promoteErr != nil {
		return e.promoteErr
	}
	e.promoted++
	e.role = Leader
	return nil
}

func (e *fakeEnv) WriteShared(i, v int) error {
	if i < 0 || i >= comms.SlotCount {
		return comms.ErrOutOfRange
	}
	e.shared[i] = v
	return nil
}

func (e *fakeEnv) Broadcast(raw uint32) error {
	e.sent = append(e.sent, raw)
	return nil
}

func (e *fakeEnv) ReadBroadcasts() []uint32 {
	in := e.inbox
	e.inbox = nil
	return in
}

func (e *fakeEnv) Yield() { e.yields++ }

// advance starts the next round.
func (e *fakeEnv) advance() {
	e.round++
	e.moved = false
}

func newTestAgent(t *testing.T, role Role, cfg Config) (*fakeEnv, *Context, *Machine, *simlog.Log) {
	t.Helper()
	env := newFakeEnv(role, grid.Loc{X: 15, Y: 15})
	log := simlog.New(false)
	ctx := NewContext(env, cfg, log, "A0", "A")
	return env, ctx, NewMachine(role), log
}

func TestMachine_LockResumesAfterInit(t *testing.T) {
	env, ctx, m, _ := newTestAgent(t, Worker, DefaultConfig())
	var inits, collects, ends int
	m.SetState(StateInit, func(c *Context) Result { inits++; return runInit(c) })
	m.SetState(StateCollect, func(*Context) Result { collects++; return lock("busy") })
	m.SetState(StateEndTurn, func(c *Context) Result { ends++; return runEndTurn(c) })

	m.Round(ctx)
	env.advance()
	m.Round(ctx)

	if inits != 2 || collects != 2 || ends != 2 {
		t.Fatalf("init=%d collect=%d end_turn=%d, want 2 each", inits, collects, ends)
	}
	if env.yields != 2 {
		t.Fatalf("yields = %d, want 2", env.yields)
	}
	if m.Current() != StateCollect || !m.Resuming() {
		t.Fatalf("current=%s resuming=%v, want collect and resuming", m.Current(), m.Resuming())
	}
}

func TestMachine_EndOfTurnSkipsToBookkeeping(t *testing.T) {
	env, ctx, m, _ := newTestAgent(t, Worker, DefaultConfig())
	explored := false
	m.SetState(StateCollect, func(*Context) Result { return endOfTurn("done") })
	m.SetState(StateExplore, func(*Context) Result { explored = true; return ok("") })

	m.Round(ctx)
	if explored {
		t.Fatalf("explore ran after END_OF_TURN")
	}
	if env.yields != 1 || m.Current() != StateInit {
		t.Fatalf("yields=%d current=%s", env.yields, m.Current())
	}
}

func TestMachine_UnknownTypeLoggedOnce(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Leader, DefaultConfig())
	env.inbox = []uint32{9<<comms.TypeShift | 3<<comms.XShift | 4}
	before := *env.shared

	m.Round(ctx)
	env.advance()
	m.Round(ctx)

	for s := comms.SlotEnemyLeaderX; s < comms.SlotMode; s++ {
		if env.shared[s] != before[s] {
			t.Fatalf("slot %d changed to %d", s, env.shared[s])
		}
	}
	if n := log.Count("comms", "unknown_type"); n != 1 {
		t.Fatalf("unknown_type logged %d times, want 1", n)
	}
	if n := log.Count("fsm", "error"); n != 1 {
		t.Fatalf("fsm/error logged %d times, want 1", n)
	}
	if ctx.Errs != 1 {
		t.Fatalf("Errs = %d", ctx.Errs)
	}
}

func TestInit_SharedFactExpires(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTLEnemyLeader = 20

	shared := new([comms.SlotCount]int)
	leader := comms.NewTable(&fakeEnv{shared: shared}, true)
	leader.Sync(10)
	if _, err := leader.WriteLoc(comms.RecEnemyLeader, grid.Loc{X: 7, Y: 8}); err != nil {
		t.Fatalf("write: %v", err)
	}

	cases := []struct {
		round int
		want  bool
	}{
		{29, true},
		{30, true},
		{31, false},
	}
	for _, tc := range cases {
		env := newFakeEnv(Worker, grid.Loc{X: 1, Y: 1})
		env.shared = shared
		env.round = tc.round
		ctx := NewContext(env, cfg, nil, "A1", "A")
		runInit(ctx)
		got := ctx.EnemyLeader.Fresh(ctx.Round, cfg.TTLEnemyLeader)
		if got != tc.want {
			t.Fatalf("round %d: enemy leader present=%v, want %v", tc.round, got, tc.want)
		}
		if got && ctx.EnemyLeader.Loc != (grid.Loc{X: 7, Y: 8}) {
			t.Fatalf("round %d: loc %s", tc.round, ctx.EnemyLeader.Loc)
		}
	}
}

func TestMachine_FaultRecovers(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Worker, DefaultConfig())
	m.SetState(StateAvoidThreat, func(*Context) Result { panic("boom") })

	m.Round(ctx)
	if env.yields != 1 {
		t.Fatalf("yields = %d, want 1", env.yields)
	}
	if m.Current() != StateInit || ctx.Faults != 1 {
		t.Fatalf("current=%s faults=%d", m.Current(), ctx.Faults)
	}
	if !log.HasEntry("fsm", "fault", "boom") {
		t.Fatalf("missing fsm/fault entry:\n%s", log.Format())
	}

	m.SetState(StateAvoidThreat, runAvoidThreat)
	env.advance()
	m.Round(ctx)
	if env.yields != 2 || ctx.Faults != 1 {
		t.Fatalf("second round: yields=%d faults=%d", env.yields, ctx.Faults)
	}
}

func TestMachine_StepCap(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Worker, DefaultConfig())
	loop := NewTransitionTable(StateEndTurn).
		On(StateInit, CodeAny, StateExplore).
		On(StateExplore, CodeAny, StateInit)
	m.SetTable(loop)
	m.SetState(StateInit, func(*Context) Result { return ok("") })
	m.SetState(StateExplore, func(*Context) Result { return ok("") })

	m.Round(ctx)
	if !log.HasEntry("fsm", "step_cap", "") {
		t.Fatalf("missing fsm/step_cap")
	}
	if env.yields != 1 || m.Current() != StateInit {
		t.Fatalf("yields=%d current=%s", env.yields, m.Current())
	}
}

func TestMachine_UnknownStateFallsBack(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Worker, DefaultConfig())
	m.SetCurrent(StateID(42))

	m.Round(ctx)
	if log.Count("fsm", "unknown_state") != 1 {
		t.Fatalf("missing fsm/unknown_state:\n%s", log.Format())
	}
	if log.Count("fsm", "error") != 1 {
		t.Fatalf("missing fsm/error")
	}
	if env.yields != 1 || m.Current() != StateInit {
		t.Fatalf("yields=%d current=%s", env.yields, m.Current())
	}
}

func TestTransitionTable_GuardsInOrder(t *testing.T) {
	ctx := &Context{Cfg: DefaultConfig()}
	tbl := WorkerTable()

	if next, _ := tbl.Next(StateAvoidThreat, CodeOK, ctx); next != StateCollect {
		t.Fatalf("empty worker -> %s, want collect", next)
	}
	ctx.Carried = ctx.Cfg.DeliverThreshold
	if next, _ := tbl.Next(StateAvoidThreat, CodeCant, ctx); next != StateDeliver {
		t.Fatalf("loaded worker -> %s, want deliver", next)
	}
	ctx.Carried = 1
	ctx.Health = ctx.Cfg.LowHealth
	if next, _ := tbl.Next(StateAvoidThreat, CodeOK, ctx); next != StateDeliver {
		t.Fatalf("hurt carrier -> %s, want deliver", next)
	}
	if next, _ := tbl.Next(StateDeliver, CodeCant, ctx); next != StateExplore {
		t.Fatalf("deliver CANT -> %s", next)
	}
	if next, found := tbl.Next(StateDeliver, CodeWarn, ctx); next != StateEndTurn || !found {
		t.Fatalf("deliver WARN -> %s found=%v", next, found)
	}
}

func TestWorker_CollectsAdjacentResource(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Worker, DefaultConfig())
	env.res[grid.Loc{X: 16, Y: 15}] = 3

	m.Round(ctx)
	if env.carried != 1 {
		t.Fatalf("carried = %d, want 1", env.carried)
	}
	if env.pos != (grid.Loc{X: 15, Y: 15}) {
		t.Fatalf("collector moved to %s", env.pos)
	}
	if !log.HasEntry("action", "collect", "(16,15)") {
		t.Fatalf("missing collect entry:\n%s", log.Format())
	}
}

func TestWorker_HeadsForResource(t *testing.T) {
	env, ctx, m, _ := newTestAgent(t, Worker, DefaultConfig())
	target := grid.Loc{X: 20, Y: 15}
	env.res[target] = 5
	start := env.pos.DistSq(target)

	m.Round(ctx)
	if d := env.pos.DistSq(target); d >= start {
		t.Fatalf("distance %d not below %d", d, start)
	}
}

func TestWorker_CollectWeighsInterest(t *testing.T) {
	target := grid.Loc{X: 20, Y: 15}
	scores := func(interest int64) nav.ScoreVector {
		cfg := DefaultConfig()
		cfg.InterestWeight = interest
		env, ctx, m, _ := newTestAgent(t, Worker, cfg)
		env.res[target] = 5
		m.Round(ctx)
		if env.pos != (grid.Loc{X: 16, Y: 15}) {
			t.Fatalf("interest %d: pos = %s, want one step east", interest, env.pos)
		}
		return ctx.Nav.Scores
	}
	without, with := scores(0), scores(6)
	for _, d := range []grid.Direction{grid.East, grid.NorthEast, grid.SouthEast} {
		if with.Get(d) <= without.Get(d) {
			t.Fatalf("%s: score %d with interest, %d without", d, with.Get(d), without.Get(d))
		}
	}
}

func TestWorker_DeliversToLeader(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Worker, DefaultConfig())
	env.carried = ctx.Cfg.DeliverThreshold
	env.entities = []Entity{{ID: 9, Kind: KindLeader, Loc: grid.Loc{X: 16, Y: 16}, Ally: true}}

	m.Round(ctx)
	if env.carried != 0 || env.stock != ctx.Cfg.DeliverThreshold {
		t.Fatalf("carried=%d stock=%d", env.carried, env.stock)
	}
	if !log.HasEntry("action", "deliver", "") {
		t.Fatalf("missing deliver entry")
	}
}

func TestWorker_DeliverLocksEnRoute(t *testing.T) {
	env, ctx, m, _ := newTestAgent(t, Worker, DefaultConfig())
	env.carried = ctx.Cfg.DeliverThreshold
	env.entities = []Entity{{ID: 9, Kind: KindLeader, Loc: grid.Loc{X: 25, Y: 15}, Ally: true}}

	m.Round(ctx)
	if !m.Resuming() || m.Current() != StateDeliver {
		t.Fatalf("current=%s resuming=%v", m.Current(), m.Resuming())
	}
	if env.pos.X != 16 {
		t.Fatalf("pos = %s, want one step east", env.pos)
	}
}

func TestWorker_BroadcastsThreat(t *testing.T) {
	env, ctx, m, _ := newTestAgent(t, Worker, DefaultConfig())
	env.entities = []Entity{
		{ID: 3, Kind: KindThreat, Loc: grid.Loc{X: 25, Y: 25}},
		{ID: 4, Kind: KindWorker, Loc: grid.Loc{X: 10, Y: 10}},
	}

	m.Round(ctx)
	if len(env.sent) != 1 {
		t.Fatalf("sent %d broadcasts, want 1", len(env.sent))
	}
	msg, err := comms.Decode(env.sent[0], env.w, env.h)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != comms.MsgEnemyUnit && msg.Type != comms.MsgThreat {
		t.Fatalf("sent %s", msg)
	}
}

func TestLeader_PublishesAndSpawns(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Leader, DefaultConfig())
	env.stock = ctx.Cfg.SpawnCost
	env.entities = []Entity{{ID: 5, Kind: KindLeader, Loc: grid.Loc{X: 3, Y: 4}}}

	m.Round(ctx)
	if env.shared[comms.SlotLeaderX] != 15 || env.shared[comms.SlotLeaderY] != 15 {
		t.Fatalf("leader slots = %d,%d", env.shared[comms.SlotLeaderX], env.shared[comms.SlotLeaderY])
	}
	if env.shared[comms.SlotEnemyLeaderX] != 3 || env.shared[comms.SlotEnemyLeaderY] != 4 {
		t.Fatalf("enemy leader slots = %d,%d", env.shared[comms.SlotEnemyLeaderX], env.shared[comms.SlotEnemyLeaderY])
	}
	if env.shared[comms.SlotLeaderStamp] != comms.EncodeStamp(0) {
		t.Fatalf("leader stamp = %d", env.shared[comms.SlotLeaderStamp])
	}
	if len(env.spawned) != 1 || env.spawned[0] != grid.North {
		t.Fatalf("spawned %v", env.spawned)
	}
	if !log.HasEntry("action", "spawn", "N") {
		t.Fatalf("missing spawn entry:\n%s", log.Format())
	}
}

func TestLeader_IngestsWorkerReport(t *testing.T) {
	env, ctx, m, _ := newTestAgent(t, Leader, DefaultConfig())
	raw, err := comms.Encode(comms.MsgResource, grid.Loc{X: 12, Y: 20}, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env.inbox = []uint32{raw}

	m.Round(ctx)
	if env.shared[comms.SlotResourceX] != 12 || env.shared[comms.SlotResourceY] != 20 {
		t.Fatalf("resource slots = %d,%d", env.shared[comms.SlotResourceX], env.shared[comms.SlotResourceY])
	}
	if !ctx.Resource.Valid || ctx.Resource.Loc != (grid.Loc{X: 12, Y: 20}) {
		t.Fatalf("leader context resource = %+v", ctx.Resource)
	}
}

func lastSent(t *testing.T, env *fakeEnv) comms.Message {
	t.Helper()
	if len(env.sent) == 0 {
		t.Fatal("nothing broadcast")
	}
	m, err := comms.Decode(env.sent[len(env.sent)-1], env.w, env.h)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func TestWorker_CallsForSuccessor(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Worker, DefaultConfig())
	env.id = 7
	ctx.AllyLeader = Sighting{Loc: grid.Loc{X: 16, Y: 15}, ID: 9, Round: 0, Valid: true}
	env.round = ctx.Cfg.TTLLeader + ctx.Cfg.SuccessionRounds + 1
	env.promoteErr = errors.New("no quorum")

	m.Round(ctx)
	if !log.HasEntry("fsm", "leader_lost", "rally (16,15)") {
		t.Fatalf("missing leader_lost entry:\n%s", log.Format())
	}
	if msg := lastSent(t, env); msg.Type != comms.MsgAskLeader || msg.Loc != (grid.Loc{X: 16, Y: 15}) || msg.Aux != 7 {
		t.Fatalf("sent %s, want ask_leader at the rally", msg)
	}
	if env.pos != (grid.Loc{X: 15, Y: 15}) {
		t.Fatalf("pos = %s, a refused worker should hold the rally", env.pos)
	}
	if env.promoted != 0 {
		t.Fatalf("promoted %d times", env.promoted)
	}

	env.advance()
	env.promoteErr = nil
	m.Round(ctx)
	if env.promoted != 1 || env.role != Leader {
		t.Fatalf("promoted=%d role=%s", env.promoted, env.role)
	}
	if !log.HasEntry("fsm", "promoted", "") {
		t.Fatalf("missing promoted entry:\n%s", log.Format())
	}
	if n := log.Count("fsm", "leader_lost"); n != 1 {
		t.Fatalf("leader_lost logged %d times, want 1", n)
	}
}

func TestWorker_WalksToRallyBeforePromoting(t *testing.T) {
	env, ctx, m, _ := newTestAgent(t, Worker, DefaultConfig())
	ctx.AllyLeader = Sighting{Loc: grid.Loc{X: 25, Y: 15}, Round: 0, Valid: true}
	env.round = 200

	m.Round(ctx)
	if env.pos != (grid.Loc{X: 16, Y: 15}) {
		t.Fatalf("pos = %s, want one step toward the rally", env.pos)
	}
	if env.promoted != 0 {
		t.Fatal("promoted away from the rally")
	}
}

func TestWorker_PrefersPublishedRally(t *testing.T) {
	env, ctx, m, _ := newTestAgent(t, Worker, DefaultConfig())
	leader := comms.NewTable(&fakeEnv{shared: env.shared}, true)
	leader.Sync(0)
	if _, err := leader.WriteLoc(comms.RecRally, grid.Loc{X: 15, Y: 5}); err != nil {
		t.Fatalf("write rally: %v", err)
	}
	ctx.AllyLeader = Sighting{Loc: grid.Loc{X: 25, Y: 15}, Round: 0, Valid: true}
	env.round = 200

	m.Round(ctx)
	if env.pos != (grid.Loc{X: 15, Y: 14}) {
		t.Fatalf("pos = %s, want one step toward the published rally", env.pos)
	}
	if msg := lastSent(t, env); msg.Type != comms.MsgAskLeader || msg.Loc != (grid.Loc{X: 15, Y: 5}) {
		t.Fatalf("sent %s", msg)
	}
}

func TestWorker_NoSuccessionWithoutKnownLeader(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Worker, DefaultConfig())
	env.round = 500

	m.Round(ctx)
	if log.Count("fsm", "leader_lost") != 0 || env.promoted != 0 {
		t.Fatal("worker that never knew a leader called for a successor")
	}
	for _, raw := range env.sent {
		if msg, _ := comms.Decode(raw, env.w, env.h); msg.Type == comms.MsgAskLeader {
			t.Fatalf("sent %s", msg)
		}
	}
}

func TestLeader_PublishesRallyAndCountsAsks(t *testing.T) {
	env, ctx, m, log := newTestAgent(t, Leader, DefaultConfig())
	raw, err := comms.Encode(comms.MsgAskLeader, grid.Loc{X: 15, Y: 15}, 3)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env.inbox = []uint32{raw, raw}

	m.Round(ctx)
	if env.shared[comms.SlotRallyX] != 15 || env.shared[comms.SlotRallyY] != 15 || env.shared[comms.SlotRallyStamp] == 0 {
		t.Fatalf("rally slots = %d,%d stamp %d", env.shared[comms.SlotRallyX], env.shared[comms.SlotRallyY], env.shared[comms.SlotRallyStamp])
	}
	if !log.HasEntry("comms", "ask_leader", "2 succession") {
		t.Fatalf("missing ask_leader entry:\n%s", log.Format())
	}
	if log.Count("comms", "unknown_type") != 0 {
		t.Fatal("ask_leader treated as unknown")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg := DefaultConfig()
	cfg.DangerWeight = 5000
	cfg.TTLThreat = 2000
	err := cfg.Validate()
	if !errors.Is(err, ErrBadConfig) {
		t.Fatalf("err = %v, want ErrBadConfig", err)
	}
	for _, want := range []string{"danger_weight", "ttl_threat"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfig_ValidateOrderIsStable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DangerWeight = 5000
	cfg.NavWeight = 5000
	cfg.ExploreWeight = -5000
	cfg.TTLLeader = -1
	cfg.TTLMode = 4000
	cfg.TTLThreat = 2000
	first := cfg.Validate().Error()
	for range 20 {
		if got := cfg.Validate().Error(); got != first {
			t.Fatalf("error text changed between calls:\n%s\n%s", first, got)
		}
	}
	order := []string{"danger_weight", "explore_weight", "nav_weight", "ttl_leader", "ttl_threat", "ttl_mode"}
	last := -1
	for _, name := range order {
		i := strings.Index(first, name)
		if i <= last {
			t.Fatalf("%s out of order in %q", name, first)
		}
		last = i
	}
}
