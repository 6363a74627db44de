package entity

import (
	"time"

	"choria/internal/shared/gameconfig"
	"choria/internal/world/fighter"
	"choria/internal/world/registry"
)

// Status 玩家当前在做什么，决定哪些指令可以执行。
type Status uint8

const (
	StatusWalk Status = iota
	StatusBattle
	StatusVendor
	StatusTrader
	StatusWaitTrade
	StatusTrade
	StatusTeleport
	StatusBusy
)

func (s Status) String() string {
	switch s {
	case StatusWalk:
		return "walk"
	case StatusBattle:
		return "battle"
	case StatusVendor:
		return "vendor"
	case StatusTrader:
		return "trader"
	case StatusWaitTrade:
		return "wait_trade"
	case StatusTrade:
		return "trade"
	case StatusTeleport:
		return "teleport"
	case StatusBusy:
		return "busy"
	}
	return "unknown"
}

type Direction uint8

const (
	MoveLeft Direction = iota
	MoveUp
	MoveRight
	MoveDown
)

const (
	SkillCount    = 25
	MaxSkillLevel = 255

	AttackCooldown = 1000 * time.Millisecond
	MoveCooldown   = 125 * time.Millisecond
	TradeCooldown  = 2000 * time.Millisecond
	TeleportTime   = 3000 * time.Millisecond

	// 遇怪间隔步数
	MinBattleSteps = 4
	MaxBattleSteps = 14
)

// Character 落库的那部分字段。
type Character struct {
	ID           int64
	AccountID    int64
	Name         string
	PortraitID   int
	SpawnMapID   int
	SpawnPoint   int
	Experience   int
	Gold         int
	PlayTime     int // 秒
	Deaths       int
	MonsterKills int
	PlayerKills  int
	Bounty       int
}

// State 已进入世界的角色：存档字段 + 运行期派生属性。
type State struct {
	Character
	Fighter *fighter.Stats

	Status    Status
	Inventory Inventory
	// 下标是技能 id，值是等级
	Skills    [SkillCount]int
	ActionBar [fighter.ActionBarSize]int

	// CalculateStats 的结果
	LevelInfo            *gameconfig.Level
	ExperienceNeeded     int
	SkillPoints          int
	SkillPointsUsed      int
	WeaponDamageModifier float32
	MinDamageBonus       int
	MaxDamageBonus       int
	MinDefenseBonus      int
	MaxDefenseBonus      int
	MaxPotions           [2]int
	PotionsLeft          [2]int

	NextBattle int
	InvisPower int

	Vendor *gameconfig.Vendor
	Trader *gameconfig.Trader
	// 铁匠界面期间 Status 为 BUSY
	Blacksmith bool

	tradePartner    registry.ID
	hasTradePartner bool
	TradeGold       int
	TradeAccepted   bool

	MoveTime         time.Duration
	AttackTime       time.Duration
	TradeRequestTime time.Duration
	TeleportTime     time.Duration
	AutoSaveTime     time.Duration
	playTimeAcc      time.Duration
}

func New(c Character) *State {
	s := &State{
		Character:            c,
		Fighter:              fighter.New(c.Name),
		WeaponDamageModifier: 1,
		MoveTime:             MoveCooldown,
		AttackTime:           AttackCooldown,
		TradeRequestTime:     TradeCooldown,
	}
	for i := range s.ActionBar {
		s.ActionBar[i] = -1
	}
	return s
}

func (s *State) Level() int {
	if s.LevelInfo == nil {
		return 1
	}
	return s.LevelInfo.Level
}

func (s *State) IsInvisible() bool { return s.InvisPower > 0 }

// GenerateNextBattle 重置遇怪步数。
func (s *State) GenerateNextBattle(r fighter.Rand) {
	s.NextBattle = fighter.Range(r, MinBattleSteps, MaxBattleSteps)
}

func (s *State) UpdateGold(delta int) {
	s.Gold += delta
	if s.Gold < 0 {
		s.Gold = 0
	}
	if s.Gold > gameconfig.MaxGold {
		s.Gold = gameconfig.MaxGold
	}
}

func (s *State) UpdateExperience(delta int) {
	s.Experience += delta
	if s.Experience < 0 {
		s.Experience = 0
	}
}

// CanMove 行走状态且移动冷却结束。
func (s *State) CanMove() bool {
	return s.Status == StatusWalk && s.MoveTime >= MoveCooldown
}

// Moved 走出一步后的结算：隐身消耗步数，否则消耗遇怪步数；世界里回复生命法力。
func (s *State) Moved() {
	s.MoveTime = 0
	if s.InvisPower > 0 {
		s.InvisPower--
	} else {
		s.NextBattle--
	}
	s.ApplyRegen()
}

// ApplyRegen 非战斗时按回复率结算，返回结算量。
func (s *State) ApplyRegen() (health, mana int) {
	if s.Fighter.InBattle() {
		return 0, 0
	}
	health, mana = s.Fighter.UpdateRegen()
	if health != 0 {
		s.Fighter.UpdateHealth(health)
	}
	if mana != 0 {
		s.Fighter.UpdateMana(mana)
	}
	return health, mana
}

func (s *State) StartBattle(battleID uint32, slot int) {
	s.Status = StatusBattle
	s.Fighter.JoinBattle(battleID, slot)
	s.PotionsLeft = s.MaxPotions
}

func (s *State) StopBattle(r fighter.Rand) {
	s.Status = StatusWalk
	s.Fighter.LeaveBattle()
	s.GenerateNextBattle(r)
}

// CanAttackPlayer PvP 冷却。
func (s *State) CanAttackPlayer() bool {
	return s.Status == StatusWalk && s.AttackTime >= AttackCooldown
}

func (s *State) CanRequestTrade() bool { return s.TradeRequestTime >= TradeCooldown }

// StartTeleport 再次调用时取消。
func (s *State) StartTeleport() {
	if s.Status == StatusTeleport {
		s.Status = StatusWalk
		return
	}
	s.Status = StatusTeleport
	s.TeleportTime = TeleportTime
}

func (s *State) TradePartner() (registry.ID, bool) {
	return s.tradePartner, s.hasTradePartner
}

func (s *State) SetTradePartner(id registry.ID) {
	s.tradePartner = id
	s.hasTradePartner = true
}

func (s *State) ClearTrade() {
	s.tradePartner = 0
	s.hasTradePartner = false
	s.TradeGold = 0
	s.TradeAccepted = false
}

// ClearEvent 离开商人/交易员/铁匠。
func (s *State) ClearEvent() {
	s.Vendor = nil
	s.Trader = nil
	s.Blacksmith = false
	if s.Status == StatusVendor || s.Status == StatusTrader || s.Status == StatusBusy {
		s.Status = StatusWalk
	}
}

// TimerEvents 一次 Update 里到期的事情。
type TimerEvents struct {
	TeleportDone bool
	AutoSave     bool
}

// Update 推进各种计时，返回到期事件交给 server 处理。
func (s *State) Update(dt time.Duration, autoSave time.Duration) TimerEvents {
	var ev TimerEvents
	s.MoveTime += dt
	s.AttackTime += dt
	s.TradeRequestTime += dt

	s.playTimeAcc += dt
	if s.playTimeAcc >= time.Second {
		secs := s.playTimeAcc / time.Second
		s.PlayTime += int(secs)
		s.playTimeAcc -= secs * time.Second
	}

	if s.Status == StatusTeleport {
		s.TeleportTime -= dt
		if s.TeleportTime <= 0 {
			s.TeleportTime = 0
			s.Status = StatusWalk
			ev.TeleportDone = true
		}
	}

	if autoSave > 0 {
		s.AutoSaveTime += dt
		if s.AutoSaveTime >= autoSave {
			s.AutoSaveTime = 0
			ev.AutoSave = true
		}
	}
	return ev
}
