package combat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/buff"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/character"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/combat"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/encounter"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/gamedata"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/game/trigger"
	"github.com/Archetypically/MWICombatSimulator-sub000/internal/simerr"
)

var strongLevels = map[string]float64{
	"stamina": 100, "intelligence": 100, "attack": 100, "melee": 100,
	"defense": 100, "ranged": 100, "magic": 100,
}

func testCatalog(t *testing.T) *gamedata.Catalog {
	t.Helper()
	c := gamedata.NewCatalog()
	for _, m := range []*gamedata.MonsterDef{
		{HRID: "/monsters/slime", Style: "smash", DamageType: "physical", Experience: 10,
			Drops: []gamedata.DropEntry{{Item: "/items/goo", Rate: 1, Min: 2, Max: 2}}},
		{HRID: "/monsters/spiky", Style: "smash", DamageType: "physical", Experience: 10,
			Stats: map[string]float64{"physicalThorns": 0.5}},
		{HRID: "/monsters/ogre", Style: "smash", DamageType: "physical", Experience: 100,
			Levels: map[string]float64{"stamina": 200, "attack": 200, "melee": 200, "defense": 200}},
	} {
		require.NoError(t, c.RegisterMonster(m))
	}
	require.NoError(t, c.RegisterEncounter(&gamedata.EncounterDef{
		HRID: "/dungeons/slime_pit", Kind: gamedata.EncounterDungeon,
		Waves: []gamedata.Wave{{Monsters: []string{"/monsters/slime"}}, {Monsters: []string{"/monsters/slime", "/monsters/slime"}}},
	}))
	require.NoError(t, c.RegisterEncounter(&gamedata.EncounterDef{
		HRID: "/dungeons/ogre_den", Kind: gamedata.EncounterDungeon,
		Waves: []gamedata.Wave{{Monsters: []string{"/monsters/ogre"}}, {Monsters: []string{"/monsters/slime"}}},
	}))
	require.NoError(t, c.RegisterItem(&gamedata.ItemDef{HRID: "/items/goo", Category: gamedata.CategoryLoot, SellPrice: 5}))
	require.NoError(t, c.RegisterItem(&gamedata.ItemDef{
		HRID: "/items/cheese", Category: gamedata.CategoryFood,
		Consumable: &gamedata.ConsumableDef{Cooldown: 60 * time.Second, HitpointRestore: 10},
	}))
	require.NoError(t, c.RegisterItem(&gamedata.ItemDef{
		HRID: "/items/feast", Category: gamedata.CategoryFood,
		Consumable: &gamedata.ConsumableDef{Cooldown: 10 * time.Hour, HitpointRestore: 10},
	}))
	require.NoError(t, c.RegisterAbility(&gamedata.AbilityDef{
		HRID: "/abilities/slam", ManaCost: 1, Cooldown: 10 * time.Second,
		Effects: []gamedata.AbilityEffect{{Kind: gamedata.EffectDamage, Target: gamedata.TargetEnemy, Flat: 10, Ratio: 1}},
	}))
	for _, a := range []*gamedata.AbilityDef{
		{HRID: "/abilities/mend", ManaCost: 1, Cooldown: 10 * time.Second,
			Effects: []gamedata.AbilityEffect{{Kind: gamedata.EffectHeal, Target: gamedata.TargetSelf, Flat: 50}}},
		{HRID: "/abilities/frenzy", ManaCost: 1, Cooldown: 60 * time.Second,
			Effects: []gamedata.AbilityEffect{{Kind: gamedata.EffectBuff, Target: gamedata.TargetSelf,
				Buffs: []buff.Buff{{Type: "attackSpeed", Flat: 1, Duration: 30 * time.Second}}}}},
		{HRID: "/abilities/daze", Cooldown: 5 * time.Second,
			Effects: []gamedata.AbilityEffect{{Kind: gamedata.EffectStun, Target: gamedata.TargetEnemy,
				StunChance: 1, StunDuration: 10 * time.Hour}}},
	} {
		require.NoError(t, c.RegisterAbility(a))
	}
	for _, it := range []*gamedata.ItemDef{
		{HRID: "/items/espresso", Category: gamedata.CategoryFood, Consumable: &gamedata.ConsumableDef{
			Cooldown: 10 * time.Hour, Buffs: []buff.Buff{{Type: "attackSpeed", Flat: 1, Duration: 60 * time.Second}}}},
		{HRID: "/items/sip", Category: gamedata.CategoryFood, Consumable: &gamedata.ConsumableDef{HitpointRestore: 1}},
		{HRID: "/items/fangs", Category: gamedata.CategoryEquipment, Equipment: &gamedata.EquipmentDef{
			Slot: "neck", Stats: map[string]float64{"lifeSteal": 0.1, "manaLeech": 0.1}}},
	} {
		require.NoError(t, c.RegisterItem(it))
	}
	// dummy and stunner never die within an hour
	for _, m := range []*gamedata.MonsterDef{
		{HRID: "/monsters/dummy", Style: "smash", DamageType: "physical", Experience: 1,
			Levels: map[string]float64{"stamina": 100000}},
		{HRID: "/monsters/stunner", Style: "smash", DamageType: "physical", Experience: 1,
			Levels:    map[string]float64{"stamina": 100000, "attack": 100000},
			Stats:     map[string]float64{"autoAttackDamage": -0.9},
			Abilities: []gamedata.MonsterAbility{{Ability: "/abilities/daze", Triggers: []trigger.Trigger{}}}},
	} {
		require.NoError(t, c.RegisterMonster(m))
	}
	return c
}

func player(id string) character.PlayerConfig {
	return character.PlayerConfig{ID: id, Levels: strongLevels}
}

func hour(target string) encounter.Config {
	return encounter.Config{Target: target, Hours: 1}
}

func TestRun_NoPlayers(t *testing.T) {
	_, err := combat.New(testCatalog(t)).Run(context.Background(), nil, hour("/monsters/slime"))
	require.Error(t, err)
	assert.True(t, simerr.IsCode(err, simerr.CodeNoPlayers))
}

func TestRun_SetupErrors(t *testing.T) {
	sim := combat.New(testCatalog(t))
	_, err := sim.Run(context.Background(), []character.PlayerConfig{player("p1")}, hour("/monsters/unicorn"))
	assert.True(t, simerr.IsCode(err, simerr.CodeUnknownTarget))

	_, err = sim.Run(context.Background(), []character.PlayerConfig{player("p1")}, encounter.Config{Target: "/monsters/slime"})
	assert.True(t, simerr.IsCode(err, simerr.CodeInvalidDuration))

	_, err = sim.Run(context.Background(), []character.PlayerConfig{player("p1"), player("p1")}, hour("/monsters/slime"))
	assert.True(t, simerr.IsCode(err, simerr.CodeSetupFailed))

	_, err = sim.Run(context.Background(), []character.PlayerConfig{{}}, hour("/monsters/slime"))
	var se *simerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, simerr.CodeSetupFailed, se.Code)
	assert.Equal(t, "party[0]", se.Ref)
}

func TestRun_KillsAndExperience(t *testing.T) {
	sim := combat.New(testCatalog(t))
	res, err := sim.Run(context.Background(), []character.PlayerConfig{player("p1")}, hour("/monsters/slime"))
	require.NoError(t, err)

	assert.Equal(t, time.Hour, res.SimulatedTime)
	assert.Equal(t, 1.0, sim.Progress())
	kills := res.MonsterDeaths["/monsters/slime"]
	require.Greater(t, kills, 100)
	assert.Equal(t, kills, res.Encounters)
	assert.Zero(t, res.Deaths["p1"])

	// 10 xp per kill: 30% melee plus 70% over five training skills.
	assert.InDelta(t, 10*float64(kills), res.TotalExperience("p1"), 1e-6)
	assert.InDelta(t, 4.4*float64(kills), res.Experience["p1"]["melee"], 1e-6)
	assert.InDelta(t, 1.4*float64(kills), res.Experience["p1"]["attack"], 1e-6)

	assert.InDelta(t, 2*float64(kills), res.Drops["p1"]["/items/goo"], 1e-6)
	assert.Greater(t, res.DamageDealt("p1"), 0.0)
	assert.Greater(t, res.Attack("/monsters/slime", "p1", combat.AutoAttack).Attempts, 0.0)
}

func TestRun_ExpectedModeIsDeterministic(t *testing.T) {
	cat := testCatalog(t)
	party := []character.PlayerConfig{player("p1"), {ID: "p2", Levels: map[string]float64{"stamina": 60, "melee": 60, "attack": 60}}}
	enc := encounter.Config{Target: "/dungeons/slime_pit", Hours: 2, Pass: true}

	a, err := combat.New(cat).Run(context.Background(), party, enc)
	require.NoError(t, err)
	b, err := combat.New(cat).Run(context.Background(), party, enc)
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	b.RunID = a.RunID
	assert.Equal(t, a, b)
}

func TestRun_StochasticSeedIsReproducible(t *testing.T) {
	cat := testCatalog(t)
	party := []character.PlayerConfig{player("p1")}
	run := func() *combat.Result {
		res, err := combat.New(cat, combat.WithMode(combat.ModeStochastic), combat.WithSeed(42)).
			Run(context.Background(), party, hour("/monsters/slime"))
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, uint64(42), a.Seed)
	b.RunID = a.RunID
	assert.Equal(t, a, b)
	assert.Greater(t, a.MonsterDeaths["/monsters/slime"], 0)
}

func TestRun_UnknownModeFails(t *testing.T) {
	_, err := combat.New(testCatalog(t), combat.WithMode("chaotic")).
		Run(context.Background(), []character.PlayerConfig{player("p1")}, hour("/monsters/slime"))
	assert.True(t, simerr.IsCode(err, simerr.CodeSetupFailed))
}

func TestRun_Dungeon(t *testing.T) {
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{player("p1")}, hour("/dungeons/slime_pit"))
	require.NoError(t, err)
	require.NotNil(t, res.Dungeon)
	assert.Equal(t, 2, res.Dungeon.MaxWave)
	assert.Greater(t, res.Dungeon.Completions, 0)
	assert.Zero(t, res.Dungeon.Failures)
	// every completion kills three slimes over two waves
	assert.GreaterOrEqual(t, res.MonsterDeaths["/monsters/slime"], 3*res.Dungeon.Completions)
}

func TestRun_PartyWipeFailsDungeon(t *testing.T) {
	weak := character.PlayerConfig{ID: "weak"}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{weak}, hour("/dungeons/ogre_den"))
	require.NoError(t, err)
	assert.Greater(t, res.Deaths["weak"], 1)
	assert.Equal(t, res.Deaths["weak"], res.Dungeon.Failures)
	assert.Zero(t, res.Dungeon.Completions)
	assert.Equal(t, 1, res.Dungeon.MaxWave)
}

func TestRun_ThornsReflectDamage(t *testing.T) {
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{player("p1")}, hour("/monsters/spiky"))
	require.NoError(t, err)
	thorns := res.Attack("/monsters/spiky", "p1", combat.Thorns)
	assert.Greater(t, thorns.Damage, 0.0)
}

func TestRun_DamageAbilityReplacesAutoAttack(t *testing.T) {
	p := player("p1")
	p.Abilities = []character.AbilitySlot{{Ability: "/abilities/slam", Level: 1, Triggers: []trigger.Trigger{}}}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/slime"))
	require.NoError(t, err)

	casts := res.AbilitiesUsed["p1"]["/abilities/slam"]
	require.Greater(t, casts, 0)
	assert.Equal(t, float64(casts), res.Attack("p1", "/monsters/slime", "/abilities/slam").Attempts)
	assert.InDelta(t, float64(casts), res.ManaUsed["p1"]["/abilities/slam"], 1e-9)
	assert.Greater(t, res.Attack("p1", "/monsters/slime", combat.AutoAttack).Attempts, 0.0)
}

func TestRun_ConsumableTriggersAreConjunctive(t *testing.T) {
	always := trigger.Trigger{Dependency: trigger.DependencySelf, Condition: trigger.ConditionCurrentHPPercentage, Comparator: trigger.LessThanOrEqual, Value: 100}
	never := trigger.Trigger{Dependency: trigger.DependencySelf, Condition: trigger.ConditionCurrentMP, Comparator: trigger.LessThan, Value: 0}
	alsoTrue := trigger.Trigger{Dependency: trigger.DependencySelf, Condition: trigger.ConditionCurrentMP, Comparator: trigger.GreaterThanOrEqual, Value: 0}

	run := func(triggers []trigger.Trigger) int {
		p := player("p1")
		p.Food = []character.ConsumableSlot{{Item: "/items/feast", Triggers: triggers}}
		res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/slime"))
		require.NoError(t, err)
		return res.ConsumablesUsed["p1"]["/items/feast"]
	}
	assert.Zero(t, run([]trigger.Trigger{always, never}))
	assert.Equal(t, 1, run([]trigger.Trigger{always, alsoTrue}))
}

func TestRun_ConsumableUsedOncePerCooldown(t *testing.T) {
	p := player("p1")
	p.Food = []character.ConsumableSlot{{Item: "/items/cheese", Triggers: []trigger.Trigger{}}}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/slime"))
	require.NoError(t, err)
	// first use at the first attack window (3s), then every 60s
	assert.Equal(t, 60, res.ConsumablesUsed["p1"]["/items/cheese"])
}

// A player auto-attacks the dummy every 3s from 3s to 3597s.
const dummyWindows = 1199

func TestRun_RegenRestoresOnlyWhatWasLost(t *testing.T) {
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{player("p1")}, hour("/monsters/dummy"))
	require.NoError(t, err)

	taken := res.Attack("/monsters/dummy", "p1", combat.AutoAttack).Damage
	regen := res.HPGained["p1"]["regen"]
	require.Greater(t, taken, 0.0)
	require.Greater(t, regen, 0.0)
	assert.LessOrEqual(t, regen, taken+1e-9)
	// 1% of 1100 max HP on each of the 359 ticks before the hour ends
	assert.LessOrEqual(t, regen, 359*11.0)
	assert.Zero(t, res.MPGained["p1"]["regen"], "mana never spent, so nothing to restore")

	p := player("p1")
	p.Abilities = []character.AbilitySlot{{Ability: "/abilities/mend", Triggers: []trigger.Trigger{}}}
	res, err = combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/dummy"))
	require.NoError(t, err)
	mp := res.MPGained["p1"]["regen"]
	assert.Greater(t, mp, 0.0)
	assert.LessOrEqual(t, mp, res.ManaUsed["p1"]["/abilities/mend"]+1e-9)
}

func TestRun_TimedConsumableBuffExpires(t *testing.T) {
	base, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{player("p1")}, hour("/monsters/dummy"))
	require.NoError(t, err)
	assert.Equal(t, float64(dummyWindows), base.Attack("p1", "/monsters/dummy", combat.AutoAttack).Attempts)

	p := player("p1")
	p.Food = []character.ConsumableSlot{{Item: "/items/espresso", Triggers: []trigger.Trigger{}}}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/dummy"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ConsumablesUsed["p1"]["/items/espresso"])
	// 60s at a 1.5s interval instead of 3s, then back to normal
	assert.Equal(t, float64(dummyWindows+20), res.Attack("p1", "/monsters/dummy", combat.AutoAttack).Attempts)
}

func TestRun_HealAbilityKeepsAutoAttack(t *testing.T) {
	p := player("p1")
	p.Abilities = []character.AbilitySlot{{Ability: "/abilities/mend", Triggers: []trigger.Trigger{}}}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/dummy"))
	require.NoError(t, err)

	assert.Greater(t, res.AbilitiesUsed["p1"]["/abilities/mend"], 0)
	healed := res.HPGained["p1"]["/abilities/mend"]
	assert.Greater(t, healed, 0.0)
	taken := res.Attack("/monsters/dummy", "p1", combat.AutoAttack).Damage
	assert.LessOrEqual(t, healed+res.HPGained["p1"]["regen"], taken+1e-9)
	assert.Equal(t, float64(dummyWindows), res.Attack("p1", "/monsters/dummy", combat.AutoAttack).Attempts)
}

func TestRun_BuffAbilityCyclesAttackSpeed(t *testing.T) {
	p := player("p1")
	p.Abilities = []character.AbilitySlot{{Ability: "/abilities/frenzy", Triggers: []trigger.Trigger{}}}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/dummy"))
	require.NoError(t, err)

	// cast at 3s, then every 60s
	assert.Equal(t, 60, res.AbilitiesUsed["p1"]["/abilities/frenzy"])
	attempts := res.Attack("p1", "/monsters/dummy", combat.AutoAttack).Attempts
	// half of each minute hastened: about 30 windows a minute instead of 20 or 40
	assert.Greater(t, attempts, 1700.0)
	assert.Less(t, attempts, 1900.0)
}

func TestRun_StunnedPlayerNeitherActsNorConsumes(t *testing.T) {
	p := player("p1")
	p.Food = []character.ConsumableSlot{{Item: "/items/cheese", Triggers: []trigger.Trigger{}}}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/stunner"))
	require.NoError(t, err)

	assert.Greater(t, res.Attack("/monsters/stunner", "p1", combat.AutoAttack).Attempts, 0.0)
	assert.Zero(t, res.Attack("p1", "/monsters/stunner", combat.AutoAttack).Attempts)
	assert.Zero(t, res.ConsumablesUsed["p1"]["/items/cheese"])
	assert.Zero(t, res.Deaths["p1"])
}

func TestRun_LifeStealAndManaLeech(t *testing.T) {
	p := player("p1")
	p.Equipment = map[string]character.EquippedItem{"neck": {Item: "/items/fangs"}}
	p.Abilities = []character.AbilitySlot{{Ability: "/abilities/slam", Triggers: []trigger.Trigger{}}}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), []character.PlayerConfig{p}, hour("/monsters/dummy"))
	require.NoError(t, err)

	stolen := res.HPGained["p1"]["lifeSteal"]
	assert.Greater(t, stolen, 0.0)
	assert.LessOrEqual(t, stolen, 0.1*res.DamageDealt("p1"))

	leeched := res.MPGained["p1"]["manaLeech"]
	assert.Greater(t, leeched, 0.0)
	assert.LessOrEqual(t, leeched, res.ManaUsed["p1"]["/abilities/slam"]+1e-9)
}

func TestRun_UncooledConsumableStillAdvancesTime(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	p := player("p1")
	p.Food = []character.ConsumableSlot{{Item: "/items/sip", Triggers: []trigger.Trigger{}}}
	res, err := combat.New(testCatalog(t)).Run(ctx, []character.PlayerConfig{p}, hour("/monsters/slime"))
	require.NoError(t, err)

	assert.Equal(t, time.Hour, res.SimulatedTime)
	uses := res.ConsumablesUsed["p1"]["/items/sip"]
	assert.Greater(t, uses, 60)
	// at most once per attack window and regen tick
	assert.LessOrEqual(t, uses, 1199+359)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sim := combat.New(testCatalog(t))
	res, err := sim.Run(ctx, []character.PlayerConfig{player("p1")}, hour("/monsters/slime"))
	require.Error(t, err)
	assert.True(t, simerr.IsCode(err, simerr.CodeCancelled))
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)
	assert.True(t, res.Cancelled)
	assert.Zero(t, res.SimulatedTime)
	assert.Less(t, sim.Progress(), 1.0)
}

// cancellingScripts cancels the run the first time a script is evaluated.
type cancellingScripts struct {
	cancel context.CancelFunc
	closed *bool
}

func (c cancellingScripts) EvalScript(string, trigger.Subject, time.Duration) (float64, error) {
	c.cancel()
	return 1, nil
}

func (c cancellingScripts) Close() { *c.closed = true }

func TestRun_CancelledAtEventBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var closed bool
	p := player("p1")
	p.Food = []character.ConsumableSlot{{Item: "/items/cheese", Triggers: []trigger.Trigger{{
		Dependency: trigger.DependencySelf, Condition: trigger.ConditionScript,
		Comparator: trigger.GreaterThan, Value: 0, Param: "1",
	}}}}
	sim := combat.New(testCatalog(t), combat.WithScripts(func() (combat.ScriptEngine, error) {
		return cancellingScripts{cancel: cancel, closed: &closed}, nil
	}))
	res, err := sim.Run(ctx, []character.PlayerConfig{p}, hour("/monsters/slime"))
	assert.True(t, simerr.IsCode(err, simerr.CodeCancelled))
	require.NotNil(t, res)
	assert.Equal(t, 3*time.Second, res.SimulatedTime)
	assert.Equal(t, 1, res.ConsumablesUsed["p1"]["/items/cheese"], "the event in progress completes")
	assert.True(t, closed)
}

func TestRun_ScriptFactoryFailure(t *testing.T) {
	sim := combat.New(testCatalog(t), combat.WithScripts(func() (combat.ScriptEngine, error) {
		return nil, errors.New("no vm")
	}))
	_, err := sim.Run(context.Background(), []character.PlayerConfig{player("p1")}, hour("/monsters/slime"))
	assert.True(t, simerr.IsCode(err, simerr.CodeSetupFailed))
}

func TestRun_LogsRunIdentity(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	res, err := combat.New(testCatalog(t), combat.WithLogger(zap.New(core))).
		Run(context.Background(), []character.PlayerConfig{player("p1")}, encounter.Config{Target: "/monsters/slime", Hours: 0.1})
	require.NoError(t, err)
	started := logs.FilterMessage("simulation started").All()
	require.Len(t, started, 1)
	assert.Equal(t, res.RunID.String(), started[0].ContextMap()["run_id"])
	assert.Len(t, logs.FilterMessage("simulation finished").All(), 1)
}

func TestRun_PartySharesDropsAndDebuffs(t *testing.T) {
	party := []character.PlayerConfig{player("p1"), {ID: "p2", Levels: map[string]float64{"stamina": 50, "melee": 50, "attack": 50, "defense": 50}}}
	res, err := combat.New(testCatalog(t)).Run(context.Background(), party, hour("/monsters/slime"))
	require.NoError(t, err)
	kills := float64(res.MonsterDeaths["/monsters/slime"])
	assert.Zero(t, res.Debuffs["p1"])
	assert.Less(t, res.Debuffs["p2"], 0.0)
	assert.InDelta(t, 2*kills/2, res.Drops["p1"]["/items/goo"], 1e-6)
	assert.InDelta(t, 2*kills/2*(1+res.Debuffs["p2"]), res.Drops["p2"]["/items/goo"], 1e-6)
}

func TestSummarize_Profit(t *testing.T) {
	res := &combat.Result{
		RunID:           uuid.New(),
		Players:         []string{"p1"},
		SimulatedTime:   24 * time.Hour,
		Deaths:          map[string]int{"p1": 48},
		Drops:           map[string]map[string]float64{"p1": {"/items/goo": 50}},
		ConsumablesUsed: map[string]map[string]int{"p1": {"/items/cheese": 100}},
		Experience:      map[string]map[string]float64{"p1": {"melee": 2400}},
		MonsterDeaths:   map[string]int{"/monsters/slime": 240},
		Encounters:      240,
	}
	prices := map[string]float64{"/items/goo": 1000, "/items/cheese": 100}
	s := res.Summarize(func(h string) float64 { return prices[h] })

	require.Len(t, s.Players, 1)
	ps := s.Players[0]
	assert.Equal(t, 50000.0, ps.DropValue)
	assert.Equal(t, 10000.0, ps.ConsumableCost)
	assert.InDelta(t, 1666.67, ps.ProfitPerHour, 0.01)
	assert.InDelta(t, 2.0, ps.DeathsPerHour, 1e-9)
	assert.InDelta(t, 100.0, ps.ExperiencePerHour["melee"], 1e-9)
	assert.InDelta(t, 10.0, s.EncountersPerHour, 1e-9)
	assert.InDelta(t, 10.0, s.MonsterKillsPerHour["/monsters/slime"], 1e-9)
	assert.Equal(t, 24.0, s.Hours)
}

func TestRunBatch(t *testing.T) {
	cat := testCatalog(t)
	jobs := []combat.Job{
		{Name: "slime", Party: []character.PlayerConfig{player("p1")}, Encounter: hour("/monsters/slime")},
		{Name: "empty", Encounter: hour("/monsters/slime")},
		{Name: "pit", Party: []character.PlayerConfig{player("p1")}, Encounter: hour("/dungeons/slime_pit")},
	}
	results, err := combat.RunBatch(context.Background(), cat, jobs, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "slime", results[0].Job.Name)
	assert.NoError(t, results[0].Err)
	assert.True(t, simerr.IsCode(results[1].Err, simerr.CodeNoPlayers))
	assert.Nil(t, results[1].Result)
	require.NoError(t, results[2].Err)
	assert.NotNil(t, results[2].Result.Dungeon)
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := combat.RunBatch(ctx, testCatalog(t), []combat.Job{{Name: "a", Party: []character.PlayerConfig{player("p1")}, Encounter: hour("/monsters/slime")}}, 1)
	assert.True(t, simerr.IsCode(err, simerr.CodeCancelled))
	require.Len(t, results, 1)
	assert.True(t, simerr.IsCode(results[0].Err, simerr.CodeCancelled))
}
