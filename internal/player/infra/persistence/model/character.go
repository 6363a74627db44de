package model

import (
	"time"

	"choria/internal/player/entity"
)

// Character 角色主表
type Character struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement;comment:角色ID" json:"id"`
	AccountID    int64     `gorm:"column:account_id;index;not null;comment:账号ID" json:"account_id"`
	MapID        int       `gorm:"column:map_id;not null;default:1;comment:出生地图" json:"map_id"`
	SpawnPoint   int       `gorm:"column:spawn_point;not null;default:0;comment:出生点" json:"spawn_point"`
	Name         string    `gorm:"column:name;type:varchar(10);uniqueIndex;not null;comment:角色名" json:"name"`
	PortraitID   int       `gorm:"column:portrait_id;not null;default:1;comment:头像" json:"portrait_id"`
	Experience   int       `gorm:"column:experience;not null;default:0" json:"experience"`
	Gold         int       `gorm:"column:gold;not null;default:0" json:"gold"`
	PlayTime     int       `gorm:"column:play_time;not null;default:0;comment:秒" json:"play_time"`
	Deaths       int       `gorm:"column:deaths;not null;default:0" json:"deaths"`
	MonsterKills int       `gorm:"column:monster_kills;not null;default:0" json:"monster_kills"`
	PlayerKills  int       `gorm:"column:player_kills;not null;default:0" json:"player_kills"`
	Bounty       int       `gorm:"column:bounty;not null;default:0" json:"bounty"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Character) TableName() string {
	return "characters"
}

type InventoryItem struct {
	CharacterID int64 `gorm:"column:character_id;primaryKey;comment:角色ID" json:"character_id"`
	Slot        int   `gorm:"column:slot;primaryKey;comment:格子" json:"slot"`
	ItemID      int   `gorm:"column:item_id;not null" json:"item_id"`
	Count       int   `gorm:"column:count;not null;default:1" json:"count"`
}

func (InventoryItem) TableName() string {
	return "inventory"
}

type SkillLevel struct {
	CharacterID int64 `gorm:"column:character_id;primaryKey" json:"character_id"`
	SkillID     int   `gorm:"column:skill_id;primaryKey" json:"skill_id"`
	Level       int   `gorm:"column:level;not null" json:"level"`
}

func (SkillLevel) TableName() string {
	return "skill_levels"
}

type ActionBar struct {
	CharacterID int64 `gorm:"column:character_id;primaryKey" json:"character_id"`
	Slot        int   `gorm:"column:slot;primaryKey" json:"slot"`
	Type        int   `gorm:"column:type;not null;default:0;comment:0 技能" json:"type"`
	ActionID    int   `gorm:"column:action_id;not null" json:"action_id"`
}

func (ActionBar) TableName() string {
	return "action_bars"
}

// Models AutoMigrate 用
func Models() []any {
	return []any{&Character{}, &InventoryItem{}, &SkillLevel{}, &ActionBar{}}
}

func CharacterFromEntity(c entity.Character) Character {
	return Character{
		ID:           c.ID,
		AccountID:    c.AccountID,
		MapID:        c.SpawnMapID,
		SpawnPoint:   c.SpawnPoint,
		Name:         c.Name,
		PortraitID:   c.PortraitID,
		Experience:   c.Experience,
		Gold:         c.Gold,
		PlayTime:     c.PlayTime,
		Deaths:       c.Deaths,
		MonsterKills: c.MonsterKills,
		PlayerKills:  c.PlayerKills,
		Bounty:       c.Bounty,
	}
}

func (m Character) ToEntity() entity.Character {
	return entity.Character{
		ID:           m.ID,
		AccountID:    m.AccountID,
		Name:         m.Name,
		PortraitID:   m.PortraitID,
		SpawnMapID:   m.MapID,
		SpawnPoint:   m.SpawnPoint,
		Experience:   m.Experience,
		Gold:         m.Gold,
		PlayTime:     m.PlayTime,
		Deaths:       m.Deaths,
		MonsterKills: m.MonsterKills,
		PlayerKills:  m.PlayerKills,
		Bounty:       m.Bounty,
	}
}

// ChildRows 子表行，角色 id 统一填上。
func ChildRows(snap *entity.CharacterSnapshot) ([]InventoryItem, []SkillLevel, []ActionBar) {
	id := snap.Character.ID
	items := make([]InventoryItem, 0, len(snap.Items))
	for _, r := range snap.Items {
		items = append(items, InventoryItem{CharacterID: id, Slot: r.Slot, ItemID: r.ItemID, Count: r.Count})
	}
	skills := make([]SkillLevel, 0, len(snap.Skills))
	for _, r := range snap.Skills {
		skills = append(skills, SkillLevel{CharacterID: id, SkillID: r.SkillID, Level: r.Level})
	}
	bar := make([]ActionBar, 0, len(snap.ActionBar))
	for _, r := range snap.ActionBar {
		bar = append(bar, ActionBar{CharacterID: id, Slot: r.Slot, Type: r.Type, ActionID: r.ActionID})
	}
	return items, skills, bar
}

func SnapshotFromRows(c Character, items []InventoryItem, skills []SkillLevel, bar []ActionBar) *entity.CharacterSnapshot {
	snap := &entity.CharacterSnapshot{Character: c.ToEntity()}
	for _, r := range items {
		snap.Items = append(snap.Items, entity.ItemRow{Slot: r.Slot, ItemID: r.ItemID, Count: r.Count})
	}
	for _, r := range skills {
		snap.Skills = append(snap.Skills, entity.SkillRow{SkillID: r.SkillID, Level: r.Level})
	}
	for _, r := range bar {
		snap.ActionBar = append(snap.ActionBar, entity.ActionRow{Slot: r.Slot, Type: r.Type, ActionID: r.ActionID})
	}
	return snap
}
