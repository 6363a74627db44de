package model

import (
	"time"

	"choria/internal/player/entity"
)

// CharacterDoc mongodb 里一个角色一个文档，子表内嵌。
type CharacterDoc struct {
	ID           int64       `bson:"_id"`
	AccountID    int64       `bson:"account_id"`
	MapID        int         `bson:"map_id"`
	SpawnPoint   int         `bson:"spawn_point"`
	Name         string      `bson:"name"`
	PortraitID   int         `bson:"portrait_id"`
	Experience   int         `bson:"experience"`
	Gold         int         `bson:"gold"`
	PlayTime     int         `bson:"play_time"`
	Deaths       int         `bson:"deaths"`
	MonsterKills int         `bson:"monster_kills"`
	PlayerKills  int         `bson:"player_kills"`
	Bounty       int         `bson:"bounty"`
	Items        []ItemDoc   `bson:"items"`
	Skills       []SkillDoc  `bson:"skills"`
	ActionBar    []ActionDoc `bson:"action_bar"`
	Version      uint64      `bson:"version"`
	CreatedAt    time.Time   `bson:"created_at"`
	UpdatedAt    time.Time   `bson:"updated_at"`
}

type ItemDoc struct {
	Slot   int `bson:"slot"`
	ItemID int `bson:"item_id"`
	Count  int `bson:"count"`
}

type SkillDoc struct {
	SkillID int `bson:"skill_id"`
	Level   int `bson:"level"`
}

type ActionDoc struct {
	Slot     int `bson:"slot"`
	Type     int `bson:"type"`
	ActionID int `bson:"action_id"`
}

func SnapshotToDoc(snap *entity.CharacterSnapshot) CharacterDoc {
	c := snap.Character
	doc := CharacterDoc{
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
		Items:        make([]ItemDoc, 0, len(snap.Items)),
		Skills:       make([]SkillDoc, 0, len(snap.Skills)),
		ActionBar:    make([]ActionDoc, 0, len(snap.ActionBar)),
		Version:      snap.Version,
	}
	for _, r := range snap.Items {
		doc.Items = append(doc.Items, ItemDoc(r))
	}
	for _, r := range snap.Skills {
		doc.Skills = append(doc.Skills, SkillDoc(r))
	}
	for _, r := range snap.ActionBar {
		doc.ActionBar = append(doc.ActionBar, ActionDoc(r))
	}
	return doc
}

func (d CharacterDoc) Character() entity.Character {
	return entity.Character{
		ID:           d.ID,
		AccountID:    d.AccountID,
		Name:         d.Name,
		PortraitID:   d.PortraitID,
		SpawnMapID:   d.MapID,
		SpawnPoint:   d.SpawnPoint,
		Experience:   d.Experience,
		Gold:         d.Gold,
		PlayTime:     d.PlayTime,
		Deaths:       d.Deaths,
		MonsterKills: d.MonsterKills,
		PlayerKills:  d.PlayerKills,
		Bounty:       d.Bounty,
	}
}

func (d CharacterDoc) Snapshot() *entity.CharacterSnapshot {
	snap := &entity.CharacterSnapshot{Version: d.Version, Character: d.Character()}
	for _, r := range d.Items {
		snap.Items = append(snap.Items, entity.ItemRow(r))
	}
	for _, r := range d.Skills {
		snap.Skills = append(snap.Skills, entity.SkillRow(r))
	}
	for _, r := range d.ActionBar {
		snap.ActionBar = append(snap.ActionBar, entity.ActionRow(r))
	}
	return snap
}
