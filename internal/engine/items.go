// internal/engine/items.go
//
// Items: the shared draw pool and per-player inventories. Draws consume the
// front of the pool; give/take move a specific id between pool and player
// without disturbing the rest of the pool's order. Inventories may hold
// duplicate ids; removals always take the first occurrence.

package engine

// AddItem appends an item to a player's inventory.
func AddItem(p *Player, itemID string) *Player {
	next := p.clone()
	next.Items = append(next.Items, itemID)
	return next
}

// RemoveItem removes the first occurrence of an item from a player's
// inventory. Absent items are a no-op.
func RemoveItem(p *Player, itemID string) *Player {
	idx := -1
	for i, it := range p.Items {
		if it == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return p
	}
	next := p.clone()
	next.Items = append(next.Items[:idx], next.Items[idx+1:]...)
	return next
}

// HasItem reports whether the player holds the item.
func HasItem(p *Player, itemID string) bool {
	for _, it := range p.Items {
		if it == itemID {
			return true
		}
	}
	return false
}

// DrawItems takes up to count items from the front of the shared pool and
// appends them to a player's inventory. An undersized pool yields fewer
// items, never an error.
func DrawItems(s *GameState, playerID string, count int) *GameState {
	if count <= 0 {
		return s
	}
	if _, ok := s.Players[playerID]; !ok {
		return s
	}
	if count > len(s.ItemPool) {
		count = len(s.ItemPool)
	}
	if count == 0 {
		return s
	}
	next := s.Clone()
	drawn := next.ItemPool[:count]
	p := next.Players[playerID]
	p.Items = append(p.Items, drawn...)
	next.ItemPool = next.ItemPool[count:]
	return next
}

// GiveItem moves a specific item from the pool to a player, taking the
// first matching pool entry. Missing player or item is a no-op, so the
// total count across pool and inventories is conserved.
func GiveItem(s *GameState, playerID, itemID string) *GameState {
	if _, ok := s.Players[playerID]; !ok {
		return s
	}
	idx := -1
	for i, it := range s.ItemPool {
		if it == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s
	}
	next := s.Clone()
	next.ItemPool = append(next.ItemPool[:idx], next.ItemPool[idx+1:]...)
	p := next.Players[playerID]
	p.Items = append(p.Items, itemID)
	return next
}

// TakeItem moves a specific item from a player back to the pool. The item
// is appended at the pool's tail so the remaining draw order is untouched.
func TakeItem(s *GameState, playerID, itemID string) *GameState {
	p, ok := s.Players[playerID]
	if !ok || !HasItem(p, itemID) {
		return s
	}
	next := s.Clone()
	next.Players[playerID] = RemoveItem(next.Players[playerID], itemID)
	next.ItemPool = append(next.ItemPool, itemID)
	return next
}

// GrantItem appends a specific item id to a player without consulting the
// pool. Used for authored guaranteed grants, which may mint items that
// were never pooled.
func GrantItem(s *GameState, playerID, itemID string) *GameState {
	if _, ok := s.Players[playerID]; !ok {
		return s
	}
	next := s.Clone()
	next.Players[playerID] = AddItem(next.Players[playerID], itemID)
	return next
}
