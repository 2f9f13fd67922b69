// Package combat runs the discrete-event combat simulation and aggregates its
// outcome.
package combat

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/character"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/dice"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/encounter"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/stats"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/unit"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/simerr"
)

// Default timing constants, in simulated time.
const (
	DefaultRegenInterval         = 10 * time.Second
	DefaultPlayerRespawnDelay    = 150 * time.Second
	DefaultEncounterRespawnDelay = 3 * time.Second
)

// ScriptEngine evaluates scripted trigger conditions for one run.
type ScriptEngine interface {
	trigger.ScriptEvaluator
	Close()
}

// ScriptFactory creates a fresh ScriptEngine per run. Engines are never
// shared between runs.
type ScriptFactory func() (ScriptEngine, error)

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMode selects expected-value or stochastic resolution.
func WithMode(m Mode) Option { return func(s *Simulator) { s.mode = m } }

// WithSeed fixes the stochastic seed. Zero draws a fresh seed per run.
func WithSeed(seed uint64) Option { return func(s *Simulator) { s.seed = seed } }

// WithTiming overrides the regen interval and the respawn delays. Zero values
// keep the defaults.
func WithTiming(regen, playerRespawn, encounterRespawn time.Duration) Option {
	return func(s *Simulator) {
		if regen > 0 {
			s.regenInterval = regen
		}
		if playerRespawn > 0 {
			s.playerRespawn = playerRespawn
		}
		if encounterRespawn > 0 {
			s.encounterRespawn = encounterRespawn
		}
	}
}

// WithScripts enables scripted trigger conditions.
func WithScripts(f ScriptFactory) Option { return func(s *Simulator) { s.scripts = f } }

// Simulator runs simulations against a shared read-only catalog.
//
// Run may be called from several goroutines; each call owns all of its
// state. Progress reports the most recently started run.
type Simulator struct {
	catalog *gamedata.Catalog
	logger  *zap.Logger

	mode             Mode
	seed             uint64
	regenInterval    time.Duration
	playerRespawn    time.Duration
	encounterRespawn time.Duration
	scripts          ScriptFactory

	progress atomic.Uint64
}

// New creates a Simulator.
//
// Precondition: catalog must be non-nil and fully loaded.
// Postcondition: Returns a Simulator in expected-value mode unless overridden.
func New(catalog *gamedata.Catalog, opts ...Option) *Simulator {
	s := &Simulator{
		catalog:          catalog,
		logger:           zap.NewNop(),
		mode:             ModeExpected,
		regenInterval:    DefaultRegenInterval,
		playerRespawn:    DefaultPlayerRespawnDelay,
		encounterRespawn: DefaultEncounterRespawnDelay,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Progress returns the simulated-time fraction completed, in [0, 1].
func (s *Simulator) Progress() float64 {
	return math.Float64frombits(s.progress.Load())
}

func (s *Simulator) setProgress(f float64) {
	s.progress.Store(math.Float64bits(f))
}

// Run simulates party against enc until the requested duration elapses or
// ctx is cancelled.
//
// Postcondition: on cancellation the partial result is returned together
// with a CANCELLED error. Setup failures return a nil result and a
// *simerr.Error naming the phase and the offending reference.
func (s *Simulator) Run(ctx context.Context, party []character.PlayerConfig, enc encounter.Config) (*Result, error) {
	s.setProgress(0)
	if len(party) == 0 {
		return nil, simerr.New(simerr.CodeNoPlayers, simerr.PhaseSetup, enc.Target, "party has no players")
	}
	if err := enc.Validate(); err != nil {
		return nil, err
	}
	if !s.mode.Valid() {
		return nil, simerr.New(simerr.CodeSetupFailed, simerr.PhaseSetup, string(s.mode), "unknown simulation mode")
	}

	b, err := s.setup(party, enc)
	if err != nil {
		return nil, err
	}
	defer b.close()

	b.log.Info("simulation started",
		zap.String("mode", string(s.mode)),
		zap.Int("players", len(b.players)),
		zap.Float64("hours", enc.Hours),
	)
	runErr := b.loop(ctx)
	b.finish()
	if runErr != nil {
		b.log.Warn("simulation cancelled", zap.Duration("simulated", b.res.SimulatedTime), zap.Error(runErr))
		return b.res, runErr
	}
	s.setProgress(1)
	b.log.Info("simulation finished",
		zap.Int("encounters", b.res.Encounters),
		zap.Int("monster_kinds", len(b.res.MonsterDeaths)),
	)
	return b.res, nil
}

// battle is the mutable state of one run.
type battle struct {
	sim     *Simulator
	log     *zap.Logger
	catalog *gamedata.Catalog
	cfg     encounter.Config
	plan    *encounter.Plan
	// roller is nil in expected-value mode.
	roller  *dice.Roller
	scripts ScriptEngine

	sched scheduler
	now   time.Duration
	end   time.Duration

	players         []*unit.Unit
	monsters        []*unit.Unit
	playerSubjects  []trigger.Subject
	monsterSubjects []trigger.Subject
	// idle players have no attack window scheduled because they had no target.
	idle map[*unit.Unit]bool

	group       int
	groupStart  time.Duration
	spawnQueued bool

	res *Result
}

func (s *Simulator) setup(party []character.PlayerConfig, enc encounter.Config) (*battle, error) {
	b := &battle{
		sim:     s,
		catalog: s.catalog,
		cfg:     enc,
		end:     enc.Duration(),
		idle:    make(map[*unit.Unit]bool),
	}

	var seed uint64
	if s.mode == ModeStochastic {
		seed = s.seed
		if seed == 0 {
			var err error
			if seed, err = dice.NewSeed(); err != nil {
				return nil, simerr.Wrap(simerr.CodeSetupFailed, simerr.PhaseSetup, "seed", err)
			}
		}
	}

	loadouts := make([]*character.Loadout, 0, len(party))
	levels := make([]float64, 0, len(party))
	seen := make(map[string]bool, len(party))
	for i, cfg := range party {
		l, err := character.Build(cfg, s.catalog, s.logger)
		if err != nil {
			return nil, simerr.Wrap(simerr.CodeSetupFailed, simerr.PhaseSetup, fmt.Sprintf("party[%d]", i), err)
		}
		if seen[l.ID] {
			return nil, simerr.New(simerr.CodeSetupFailed, simerr.PhaseSetup, l.ID, "duplicate player id")
		}
		seen[l.ID] = true
		loadouts = append(loadouts, l)
		levels = append(levels, l.CombatLevel)
	}

	ids := make([]string, len(loadouts))
	for i, l := range loadouts {
		ids[i] = l.ID
	}
	b.res = newResult(ids)
	b.res.Target = enc.Target
	b.res.Tier = enc.Tier
	b.res.Mode = s.mode
	b.res.Seed = seed
	b.log = s.logger.With(zap.String("run_id", b.res.RunID.String()), zap.String("target", enc.Target))

	if s.mode == ModeStochastic {
		b.roller = dice.NewLoggedRoller(dice.NewSeededSource(seed), b.log)
	}

	plan, err := encounter.NewPlan(enc.Target, enc.Tier, s.catalog, b.roller)
	if err != nil {
		return nil, err
	}
	b.plan = plan
	if plan.IsDungeon() {
		b.res.Dungeon = &DungeonStats{}
	}

	debuffs := stats.PartyDebuffs(levels)
	for i, l := range loadouts {
		p := unit.NewPlayer(l, debuffs[i])
		for _, bf := range enc.PlayerBuffs() {
			p.AddBuff(bf, 0)
		}
		for _, bf := range plan.Def.PlayerBuffs {
			p.AddBuff(bf, 0)
		}
		b.players = append(b.players, p)
		b.playerSubjects = append(b.playerSubjects, p)
		b.idle[p] = true
		b.res.Debuffs[p.ID] = debuffs[i]
	}

	if s.scripts != nil {
		eng, err := s.scripts()
		if err != nil {
			return nil, simerr.Wrap(simerr.CodeSetupFailed, simerr.PhaseSetup, "scripts", err)
		}
		b.scripts = eng
	}
	return b, nil
}

func (b *battle) close() {
	if b.scripts != nil {
		b.scripts.Close()
	}
}

// loop drains the event queue until the requested duration.
//
// Postcondition: returns a CANCELLED error if ctx is done at an event
// boundary; SimulatedTime then holds the time reached.
func (b *battle) loop(ctx context.Context) error {
	b.queueSpawn(0)
	b.schedule(b.sim.regenInterval, eventRegen, nil)
	for {
		select {
		case <-ctx.Done():
			b.res.Cancelled = true
			b.res.SimulatedTime = b.now
			return simerr.Wrap(simerr.CodeCancelled, simerr.PhaseRun, b.cfg.Target, ctx.Err())
		default:
		}
		ev, ok := b.sched.pop()
		if !ok || ev.at >= b.end {
			break
		}
		b.now = ev.at
		b.dispatch(ev)
		b.sim.setProgress(float64(b.now) / float64(b.end))
	}
	b.now = b.end
	b.res.SimulatedTime = b.end
	return nil
}

func (b *battle) dispatch(ev *event) {
	switch ev.kind {
	case eventSpawn:
		b.spawn()
	case eventRegen:
		b.regen()
		b.schedule(b.now+b.sim.regenInterval, eventRegen, nil)
	case eventAttack:
		if b.current(ev) {
			b.act(ev.unit)
		}
	case eventSlotReady:
		if b.current(ev) {
			b.useConsumables(ev.unit)
		}
	case eventBuffExpiry:
		if b.current(ev) {
			ev.unit.Refresh(b.now)
		}
	case eventRespawn:
		if b.current(ev) {
			b.respawn(ev.unit)
		}
	}
}

// current reports whether ev still applies: the unit has neither died nor
// respawned since, and a monster's group has not been despawned.
func (b *battle) current(ev *event) bool {
	if ev.unit.Epoch != ev.epoch {
		return false
	}
	return ev.unit.IsPlayer() || ev.group == b.group
}

func (b *battle) schedule(at time.Duration, kind eventKind, u *unit.Unit) {
	e := &event{at: at, kind: kind, unit: u, group: b.group}
	if u != nil {
		e.epoch = u.Epoch
	}
	b.sched.push(e)
}

func (b *battle) queueSpawn(at time.Duration) {
	if b.spawnQueued {
		return
	}
	b.spawnQueued = true
	b.schedule(at, eventSpawn, nil)
}

func (b *battle) spawn() {
	b.spawnQueued = false
	if !anyAlive(b.players) {
		return
	}
	sp := b.plan.Next()
	b.group++
	b.groupStart = b.now
	b.monsters = nil
	b.monsterSubjects = nil
	for i, hrid := range sp.Monsters {
		def, ok := b.catalog.Monster(hrid)
		if !ok {
			b.log.Warn("unknown monster skipped", zap.String("phase", string(simerr.PhaseRun)), zap.String("ref", hrid))
			continue
		}
		m, unknown := unit.NewMonster(hrid, def, b.plan.Tier, b.catalog)
		for _, ref := range unknown {
			b.log.Warn("unknown monster reference ignored",
				zap.String("monster", hrid), zap.String("phase", string(simerr.PhaseRun)), zap.String("ref", ref))
		}
		for _, bf := range b.plan.Def.MonsterBuffs {
			m.AddBuff(bf, b.now)
		}
		b.monsters = append(b.monsters, m)
		b.monsterSubjects = append(b.monsterSubjects, m)
		b.schedule(b.now+m.Details().AttackInterval, eventAttack, m)
		b.log.Debug("monster spawned", zap.String("monster", hrid), zap.Int("slot", i), zap.Duration("at", b.now))
	}
	if len(b.monsters) == 0 {
		b.queueSpawn(b.now + b.sim.encounterRespawn)
		return
	}
	if b.res.Dungeon != nil && sp.Wave+1 > b.res.Dungeon.MaxWave {
		b.res.Dungeon.MaxWave = sp.Wave + 1
	}
	for _, p := range b.players {
		if p.Alive() && b.idle[p] {
			delete(b.idle, p)
			b.schedule(b.now+p.Details().AttackInterval, eventAttack, p)
		}
	}
}

// act runs one attack window for u.
func (b *battle) act(u *unit.Unit) {
	u.Refresh(b.now)
	if u.Stunned(b.now) {
		b.schedule(u.StunnedUntil(), eventAttack, u)
		return
	}
	target := b.target(u)
	if target == nil {
		if u.IsPlayer() {
			b.idle[u] = true
		}
		return
	}
	if u.IsPlayer() {
		b.useConsumables(u)
	}
	if !b.useAbility(u, target) {
		b.strike(u, target, AutoAttackStrike(u.Details()), AutoAttack)
	}
	// A monster whose strike wiped the party was despawned with its group.
	if u.Alive() && (u.IsPlayer() || b.inGroup(u)) {
		b.schedule(b.now+u.Details().AttackInterval, eventAttack, u)
	}
}

// env builds the trigger environment seen by u.
func (b *battle) env(u, target *unit.Unit) trigger.Env {
	allies, enemies := b.playerSubjects, b.monsterSubjects
	if !u.IsPlayer() {
		allies, enemies = enemies, allies
	}
	env := trigger.Env{
		Self:           u,
		Allies:         allies,
		Enemies:        enemies,
		Now:            b.now,
		EncounterStart: b.groupStart,
	}
	if target != nil {
		env.Target = target
	}
	if b.scripts != nil {
		env.Scripts = b.scripts
	}
	return env
}

func (b *battle) onTriggerError(u *unit.Unit, s *unit.Slot) func(trigger.Trigger, error) {
	return func(t trigger.Trigger, err error) {
		b.log.Debug("trigger not satisfied",
			zap.String("unit", u.ID),
			zap.String("slot", s.HRID()),
			zap.Stringer("trigger", t),
			zap.Error(err),
		)
	}
}

func (b *battle) useConsumables(u *unit.Unit) {
	if !u.Alive() {
		return
	}
	u.Refresh(b.now)
	env := b.env(u, b.target(u))
	for _, slots := range [][]*unit.Slot{u.Food, u.Drinks} {
		for _, s := range slots {
			if u.ShouldTrigger(s, env, b.now, b.onTriggerError(u, s)) {
				b.consume(u, s)
			}
		}
	}
}

func (b *battle) consume(u *unit.Unit, s *unit.Slot) {
	c := s.Item.Consumable
	hrid := s.HRID()
	s.MarkUsed(b.now)
	addInt(b.res.ConsumablesUsed, u.ID, hrid, 1)
	addFloat(b.res.HPGained, u.ID, hrid, u.Heal(c.HitpointRestore))
	addFloat(b.res.MPGained, u.ID, hrid, u.RestoreMana(c.ManapointRestore))
	b.applyBuffs(u, c.Buffs, hrid)
	// A cooldown hastened to nothing waits for the next attack window or
	// regen tick instead of re-firing at the same instant.
	if ready := u.ReadyAt(s); ready > b.now {
		b.schedule(ready, eventSlotReady, u)
	}
	b.log.Debug("consumable used", zap.String("unit", u.ID), zap.String("item", hrid), zap.Duration("at", b.now))
}

// useAbility casts the first eligible ability in slot order.
//
// Postcondition: returns true iff the cast ability deals damage, which
// replaces the auto-attack for this window.
func (b *battle) useAbility(u, target *unit.Unit) bool {
	if len(u.Abilities) == 0 {
		return false
	}
	env := b.env(u, target)
	for _, s := range u.Abilities {
		if !u.ShouldTrigger(s, env, b.now, b.onTriggerError(u, s)) {
			continue
		}
		b.cast(u, s, target)
		return s.Ability.HasDamage()
	}
	return false
}

func (b *battle) cast(u *unit.Unit, s *unit.Slot, target *unit.Unit) {
	def := s.Ability
	if !u.SpendMana(def.ManaCost) {
		return
	}
	s.MarkUsed(b.now)
	if u.IsPlayer() {
		addInt(b.res.AbilitiesUsed, u.ID, def.HRID, 1)
		addFloat(b.res.ManaUsed, u.ID, def.HRID, def.ManaCost)
	}
	b.log.Debug("ability cast", zap.String("unit", u.ID), zap.String("ability", def.HRID), zap.Duration("at", b.now))

	d := u.Details()
	for _, e := range def.Effects {
		flat, ratio := e.Scaled(s.Level)
		switch e.Kind {
		case gamedata.EffectDamage:
			dt := u.DamageType
			if parsed, ok := stats.ParseDamageType(e.DamageType); ok {
				dt = parsed
			}
			st := Strike{Style: u.Style, DamageType: dt, Flat: flat, Ratio: ratio, Bonus: d.Table[stats.AbilityDamage]}
			for _, t := range b.targets(u, target, e.Target, gamedata.TargetEnemy) {
				b.strike(u, t, st, def.HRID)
			}
		case gamedata.EffectHeal:
			amount := (flat + ratio*float64(d.MaxDamage[stats.StyleMagic])) * (1 + d.Table[stats.HealingAmplify])
			for _, t := range b.targets(u, target, e.Target, gamedata.TargetSelf) {
				gained := t.Heal(amount)
				if t.IsPlayer() {
					addFloat(b.res.HPGained, t.ID, def.HRID, gained)
				}
			}
		case gamedata.EffectBuff:
			for _, t := range b.targets(u, target, e.Target, gamedata.TargetSelf) {
				b.applyBuffs(t, e.Buffs, def.HRID)
			}
		case gamedata.EffectStun:
			for _, t := range b.targets(u, target, e.Target, gamedata.TargetEnemy) {
				b.stun(u, t, e)
			}
		}
	}
}

// targets resolves rule relative to u. An empty rule falls back to def.
func (b *battle) targets(u, target *unit.Unit, rule, def gamedata.TargetRule) []*unit.Unit {
	if rule == "" {
		rule = def
	}
	allies, enemies := b.players, b.monsters
	if !u.IsPlayer() {
		allies, enemies = enemies, allies
	}
	switch rule {
	case gamedata.TargetEnemy:
		if target != nil && target.Alive() {
			return []*unit.Unit{target}
		}
		return nil
	case gamedata.TargetAllEnemies:
		return alive(enemies)
	case gamedata.TargetSelf:
		return []*unit.Unit{u}
	case gamedata.TargetLowestHPAlly:
		var best *unit.Unit
		for _, a := range allies {
			if a.Alive() && (best == nil || a.HP()/a.MaxHP() < best.HP()/best.MaxHP()) {
				best = a
			}
		}
		if best == nil {
			return nil
		}
		return []*unit.Unit{best}
	case gamedata.TargetAllAllies:
		return alive(allies)
	default:
		return nil
	}
}

func (b *battle) applyBuffs(u *unit.Unit, buffs []buff.Buff, source string) {
	for _, bf := range buffs {
		if bf.Source == "" {
			bf.Source = source
		}
		u.AddBuff(bf, b.now)
		if !bf.Permanent() {
			b.schedule(b.now+bf.Duration, eventBuffExpiry, u)
		}
	}
}

// stun applies a stun effect. In expected-value mode the duration is scaled
// by the landing probability instead of rolled.
func (b *battle) stun(u, t *unit.Unit, e gamedata.AbilityEffect) {
	p := HitChance(float64(u.Details().Accuracy[u.Style]), float64(t.Details().Evasion[u.Style])) * e.StunChance
	d := e.StunDuration
	if b.roller == nil {
		d = time.Duration(float64(d) * p)
	} else if !b.roller.Chance("stun", p) {
		return
	}
	if d > 0 {
		t.Stun(b.now, d)
	}
}

// strike resolves one damaging action from u against t and applies its side
// effects: life steal, mana leech and thorns.
func (b *battle) strike(u, t *unit.Unit, s Strike, ability string) {
	ud, td := u.Details(), t.Details()
	o := ResolveStrike(ud, td, s, b.roller)
	dealt, died := t.TakeDamage(o.Damage)
	b.res.Attack(u.ID, t.ID, ability).add(o, dealt)

	var reflectedDeath bool
	if dealt > 0 {
		if ls := ud.Table[stats.LifeSteal]; ls > 0 {
			gained := u.Heal(dealt * ls)
			if u.IsPlayer() {
				addFloat(b.res.HPGained, u.ID, "lifeSteal", gained)
			}
		}
		if ml := ud.Table[stats.ManaLeech]; ml > 0 {
			gained := u.RestoreMana(dealt * ml)
			if u.IsPlayer() {
				addFloat(b.res.MPGained, u.ID, "manaLeech", gained)
			}
		}
		if reflect := ThornsDamage(dealt, ud, td, s.DamageType); reflect > 0 {
			rd, rdied := u.TakeDamage(reflect)
			b.res.Attack(t.ID, u.ID, Thorns).add(Outcome{Hits: 1}, rd)
			reflectedDeath = rdied
		}
	}
	if died {
		b.onDeath(t)
	}
	if reflectedDeath {
		b.onDeath(u)
	}
}

// target picks u's current target. Players attack the first living monster.
// Monsters attack the living player with the highest threat; in stochastic
// mode threat is a weight instead.
func (b *battle) target(u *unit.Unit) *unit.Unit {
	if u.IsPlayer() {
		for _, m := range b.monsters {
			if m.Alive() {
				return m
			}
		}
		return nil
	}
	candidates := alive(b.players)
	if len(candidates) == 0 {
		return nil
	}
	if b.roller == nil {
		best := candidates[0]
		for _, p := range candidates[1:] {
			if threat(p) > threat(best) {
				best = p
			}
		}
		return best
	}
	var total float64
	for _, p := range candidates {
		total += threat(p)
	}
	r := b.roller.Between("target", 0, total)
	for _, p := range candidates {
		if r < threat(p) {
			return p
		}
		r -= threat(p)
	}
	return candidates[len(candidates)-1]
}

// BaseThreat is every player's threat before the threat stat.
const BaseThreat = 100

func threat(u *unit.Unit) float64 {
	return math.Max(1, BaseThreat+u.Details().Table[stats.Threat])
}

func (b *battle) onDeath(u *unit.Unit) {
	if u.IsPlayer() {
		b.res.Deaths[u.ID]++
		delete(b.idle, u)
		b.schedule(b.now+b.sim.playerRespawn, eventRespawn, u)
		b.log.Debug("player died", zap.String("player", u.ID), zap.Duration("at", b.now))
		if !anyAlive(b.players) {
			b.wipe()
		}
		return
	}

	if !b.inGroup(u) {
		return
	}
	b.res.MonsterDeaths[u.HRID]++
	for _, p := range b.players {
		b.grantExperience(p, u.Experience)
	}
	if anyAlive(b.monsters) {
		return
	}
	b.res.Encounters++
	if b.res.Dungeon != nil && b.plan.WaveCleared() {
		b.res.Dungeon.Completions++
		b.log.Debug("dungeon completed", zap.Duration("at", b.now))
	}
	b.queueSpawn(b.now + b.sim.encounterRespawn)
}

// wipe despawns the current group after the whole party died. A dungeon run
// counts as failed and restarts from its first wave.
func (b *battle) wipe() {
	b.group++
	b.monsters = nil
	b.monsterSubjects = nil
	if b.res.Dungeon != nil {
		b.res.Dungeon.Failures++
		b.plan.Restart()
	}
	b.log.Debug("party wiped", zap.Duration("at", b.now))
}

func (b *battle) inGroup(m *unit.Unit) bool {
	for _, x := range b.monsters {
		if x == m {
			return true
		}
	}
	return false
}

func (b *battle) respawn(u *unit.Unit) {
	u.Respawn()
	b.log.Debug("player respawned", zap.String("player", u.ID), zap.Duration("at", b.now))
	if anyAlive(b.monsters) {
		b.schedule(b.now+u.Details().AttackInterval, eventAttack, u)
		return
	}
	b.idle[u] = true
	b.queueSpawn(b.now + b.sim.encounterRespawn)
}

func (b *battle) grantExperience(p *unit.Unit, base float64) {
	shares := SplitExperience(base, p.Details().Table, Training{
		Style:    p.Style,
		Primary:  p.PrimarySkill,
		Focus:    p.FocusSkill,
		HasFocus: p.HasFocus,
		Debuff:   p.Debuff,
	})
	for s, v := range shares {
		addFloat(b.res.Experience, p.ID, s.String(), v)
	}
}

// regen restores maxPool*regen to every living unit, then gives players a
// chance to use consumables.
func (b *battle) regen() {
	for _, group := range [][]*unit.Unit{b.players, b.monsters} {
		for _, u := range group {
			if !u.Alive() {
				continue
			}
			u.Refresh(b.now)
			d := u.Details()
			hp := u.Heal(float64(d.MaxHitpoints) * d.Table[stats.HPRegen])
			mp := u.RestoreMana(float64(d.MaxManapoints) * d.Table[stats.MPRegen])
			if u.IsPlayer() {
				addFloat(b.res.HPGained, u.ID, "regen", hp)
				addFloat(b.res.MPGained, u.ID, "regen", mp)
			}
		}
	}
	for _, p := range b.players {
		b.useConsumables(p)
	}
}

// finish derives each player's drops from the monster death counts. Drop
// bonuses are read with temporary buffs cleared.
func (b *battle) finish() {
	for _, p := range b.players {
		p.Buffs().ClearTemporary()
		t := p.Details().Table
		bonuses := encounter.Bonuses{
			DropRate: t[stats.CombatDropRate],
			RareFind: t[stats.CombatRareFind],
			Quantity: t[stats.CombatDropQuantity],
			Debuff:   p.Debuff,
		}
		var drops map[string]float64
		if b.roller == nil {
			drops = encounter.ExpectedDrops(b.res.MonsterDeaths, b.cfg.Tier, bonuses, len(b.players), b.catalog)
		} else {
			drops = encounter.RollDrops(b.res.MonsterDeaths, b.cfg.Tier, bonuses, len(b.players), b.catalog, b.roller)
		}
		b.res.Drops[p.ID] = drops
	}
}

func anyAlive(units []*unit.Unit) bool {
	for _, u := range units {
		if u.Alive() {
			return true
		}
	}
	return false
}

func alive(units []*unit.Unit) []*unit.Unit {
	var out []*unit.Unit
	for _, u := range units {
		if u.Alive() {
			out = append(out, u)
		}
	}
	return out
}
