package entity

import "choria/internal/shared/gameconfig"

type ItemRow struct {
	Slot   int
	ItemID int
	Count  int
}

type SkillRow struct {
	SkillID int
	Level   int
}

// ActionRow Type 目前只有 0（技能）。
type ActionRow struct {
	Slot     int
	Type     int
	ActionID int
}

// CharacterSnapshot 一次完整存档，写库时子表整表替换。
type CharacterSnapshot struct {
	Version   uint64
	Character Character
	Items     []ItemRow
	Skills    []SkillRow
	ActionBar []ActionRow
}

// Snapshot 在 tick 协程上拷贝出值，之后交给异步写库。
func (s *State) Snapshot(version uint64) *CharacterSnapshot {
	snap := &CharacterSnapshot{
		Version:   version,
		Character: s.Character,
	}
	for i, slot := range s.Inventory {
		if slot.Empty() {
			continue
		}
		snap.Items = append(snap.Items, ItemRow{Slot: i, ItemID: slot.Item.ID, Count: slot.Count})
	}
	for id, level := range s.Skills {
		if level > 0 {
			snap.Skills = append(snap.Skills, SkillRow{SkillID: id, Level: level})
		}
	}
	for i, id := range s.ActionBar {
		if id >= 0 {
			snap.ActionBar = append(snap.ActionBar, ActionRow{Slot: i, ActionID: id})
		}
	}
	return snap
}

// Hydrate 从存档恢复。未知物品、越界格子、未知技能直接丢弃。
func Hydrate(snap *CharacterSnapshot, t *gameconfig.Tables) *State {
	s := New(snap.Character)
	for _, row := range snap.Items {
		item := t.Item(row.ItemID)
		if item == nil || !validSlot(row.Slot) || row.Count <= 0 {
			continue
		}
		s.Inventory[row.Slot] = Slot{Item: item, Count: min(row.Count, MaxStack)}
	}
	for _, row := range snap.Skills {
		if row.SkillID < 0 || row.SkillID >= SkillCount || t.Skill(row.SkillID) == nil {
			continue
		}
		s.Skills[row.SkillID] = min(row.Level, MaxSkillLevel)
	}
	for _, row := range snap.ActionBar {
		if row.Slot < 0 || row.Slot >= len(s.ActionBar) || row.Type != 0 {
			continue
		}
		s.ActionBar[row.Slot] = row.ActionID
	}
	return s
}
