package worldmap

import (
	player "choria/internal/player/entity"
	"choria/internal/world/entity"
	"choria/internal/world/registry"
)

// ClosePlayers 距离平方不超过 distSq 的其他玩家。
func (m *Map) ClosePlayers(e *entity.Entity, distSq int) []registry.ID {
	if m.dir == nil {
		return nil
	}
	var out []registry.ID
	for _, o := range m.resolve() {
		if o.ID == e.ID || !o.InWorld() {
			continue
		}
		if e.DistanceSq(o) <= distSq {
			out = append(out, o.ID)
		}
	}
	return out
}

// ClosestPlayer 范围内处于 status 的最近玩家。
func (m *Map) ClosestPlayer(e *entity.Entity, distSq int, status player.Status) (registry.ID, bool) {
	if m.dir == nil {
		return 0, false
	}
	best, bestDist, found := registry.ID(0), distSq+1, false
	for _, o := range m.resolve() {
		if o.ID == e.ID || !o.InWorld() || o.Player.Status != status {
			continue
		}
		if d := e.DistanceSq(o); d <= distSq && d < bestDist {
			best, bestDist, found = o.ID, d, true
		}
	}
	return best, found
}
