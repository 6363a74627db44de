package fighter

import "time"

const (
	// ActionBarSize 玩家快捷栏格数，怪物只用第 0 格
	ActionBarSize = 8
	NoAction      = -1
	NoSlot        = -1
)

// Action 排队等待结算的指令。
type Action struct {
	Slot   int
	Target int
}

// Stats 玩家和怪物共用的战斗属性。
type Stats struct {
	Name  string
	Level int

	Health, MaxHealth int
	Mana, MaxMana     int

	MinDamage, MaxDamage   int
	MinDefense, MaxDefense int

	// 百分比，每次结算回复 regen% * max
	HealthRegen, ManaRegen             float32
	HealthAccumulator, ManaAccumulator float32

	TurnTimer    time.Duration
	TurnTimerMax time.Duration

	Action Action

	BattleID   uint32
	BattleSlot int
}

func New(name string) *Stats {
	return &Stats{
		Name:         name,
		TurnTimerMax: 3 * time.Second,
		Action:       Action{Slot: NoAction},
		BattleSlot:   NoSlot,
	}
}

func (s *Stats) Alive() bool { return s.Health > 0 }

// Side 槽位奇偶即阵营。
func (s *Stats) Side() int { return s.BattleSlot & 1 }

func (s *Stats) InBattle() bool { return s.BattleID != 0 }

func (s *Stats) UpdateHealth(delta int) {
	s.Health = clamp(s.Health+delta, 0, s.MaxHealth)
}

func (s *Stats) UpdateMana(delta int) {
	s.Mana = clamp(s.Mana+delta, 0, s.MaxMana)
}

func (s *Stats) RestoreHealthMana() {
	s.Health = s.MaxHealth
	s.Mana = s.MaxMana
}

// UpdateRegen 累加小数部分，返回本次应回复的整数量，由调用方决定是否生效。
func (s *Stats) UpdateRegen() (health, mana int) {
	s.HealthAccumulator += s.HealthRegen * 0.01 * float32(s.MaxHealth)
	s.ManaAccumulator += s.ManaRegen * 0.01 * float32(s.MaxMana)
	health, s.HealthAccumulator = drain(s.HealthAccumulator)
	mana, s.ManaAccumulator = drain(s.ManaAccumulator)
	return health, mana
}

func drain(acc float32) (int, float32) {
	if acc >= 1 {
		whole := int(acc)
		return whole, acc - float32(whole)
	}
	if acc < 0 {
		return 0, 0
	}
	return 0, acc
}

func (s *Stats) GenerateDamage(r Rand) int {
	return Range(r, s.MinDamage, s.MaxDamage)
}

func (s *Stats) GenerateDefense(r Rand) int {
	return Range(r, s.MinDefense, s.MaxDefense)
}

func (s *Stats) HasAction() bool { return s.Action.Slot != NoAction }

func (s *Stats) QueueAction(slot, target int) {
	s.Action = Action{Slot: slot, Target: target}
}

func (s *Stats) ClearAction() {
	s.Action = Action{Slot: NoAction}
}

// AdvanceTimer 推进回合计时，封顶 TurnTimerMax。
func (s *Stats) AdvanceTimer(dt time.Duration) {
	s.TurnTimer += dt
	if s.TurnTimer > s.TurnTimerMax {
		s.TurnTimer = s.TurnTimerMax
	}
}

func (s *Stats) TimerReady() bool { return s.TurnTimer >= s.TurnTimerMax }

// TimerPercent 0~1。
func (s *Stats) TimerPercent() float64 {
	if s.TurnTimerMax <= 0 {
		return 1
	}
	return float64(s.TurnTimer) / float64(s.TurnTimerMax)
}

// JoinBattle 占用槽位并清空上一场的残留指令。
func (s *Stats) JoinBattle(id uint32, slot int) {
	s.BattleID = id
	s.BattleSlot = slot
	s.TurnTimer = 0
	s.ClearAction()
}

func (s *Stats) LeaveBattle() {
	s.BattleID = 0
	s.BattleSlot = NoSlot
	s.TurnTimer = 0
	s.ClearAction()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
