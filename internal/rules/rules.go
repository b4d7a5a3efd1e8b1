// Package rules resolves combat interactions between play card instances.
// The table state machine treats it as a collaborator: it only depends on
// ResolveAttack mutating the defender.
package rules

import (
	"github.com/tcgframework/table-server-go/internal/deck"
)

// ResolveAttack applies one attack from attacker onto defender, reducing the
// defender's health by the attack value less armor. Armor can absorb a hit
// entirely but never heals.
func ResolveAttack(attacker, defender *deck.PlayCard) {
	damage := attacker.Attack() - defender.Armor()
	if damage < 0 {
		damage = 0
	}
	defender.Health -= damage
}
