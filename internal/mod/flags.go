package mod

import (
	"fmt"
	"strings"
)

// ModFlag is a bitset restricting a mod to damage/attack/weapon kinds.
// Zero matches every query.
type ModFlag uint64

const (
	FlagAttack ModFlag = 1 << iota
	FlagSpell
	FlagHit
	FlagDot
	FlagCast
	FlagMelee
	FlagArea
	FlagProjectile
	FlagAilment
	FlagWeapon
	FlagWeapon1H
	FlagWeapon2H
	FlagWeaponMelee
	FlagWeaponRanged
	FlagAxe
	FlagBow
	FlagClaw
	FlagDagger
	FlagMace
	FlagStaff
	FlagSword
	FlagWand
	FlagUnarmed
	FlagFist
)

// KeywordFlag is a bitset restricting a mod to skill keywords.
// Zero matches every query.
type KeywordFlag uint64

const (
	KeywordAura KeywordFlag = 1 << iota
	KeywordCurse
	KeywordWarcry
	KeywordMovement
	KeywordPhysical
	KeywordFire
	KeywordCold
	KeywordLightning
	KeywordChaos
	KeywordVaal
	KeywordBow
	KeywordTrap
	KeywordMine
	KeywordTotem
	KeywordMinion
	KeywordAttack
	KeywordSpell
	KeywordHit
	KeywordBrand
)

var modFlagNames = map[string]ModFlag{
	"Attack":       FlagAttack,
	"Spell":        FlagSpell,
	"Hit":          FlagHit,
	"Dot":          FlagDot,
	"Cast":         FlagCast,
	"Melee":        FlagMelee,
	"Area":         FlagArea,
	"Projectile":   FlagProjectile,
	"Ailment":      FlagAilment,
	"Weapon":       FlagWeapon,
	"Weapon1H":     FlagWeapon1H,
	"Weapon2H":     FlagWeapon2H,
	"WeaponMelee":  FlagWeaponMelee,
	"WeaponRanged": FlagWeaponRanged,
	"Axe":          FlagAxe,
	"Bow":          FlagBow,
	"Claw":         FlagClaw,
	"Dagger":       FlagDagger,
	"Mace":         FlagMace,
	"Staff":        FlagStaff,
	"Sword":        FlagSword,
	"Wand":         FlagWand,
	"Unarmed":      FlagUnarmed,
	"Fist":         FlagFist,
}

var keywordFlagNames = map[string]KeywordFlag{
	"Aura":      KeywordAura,
	"Curse":     KeywordCurse,
	"Warcry":    KeywordWarcry,
	"Movement":  KeywordMovement,
	"Physical":  KeywordPhysical,
	"Fire":      KeywordFire,
	"Cold":      KeywordCold,
	"Lightning": KeywordLightning,
	"Chaos":     KeywordChaos,
	"Vaal":      KeywordVaal,
	"Bow":       KeywordBow,
	"Trap":      KeywordTrap,
	"Mine":      KeywordMine,
	"Totem":     KeywordTotem,
	"Minion":    KeywordMinion,
	"Attack":    KeywordAttack,
	"Spell":     KeywordSpell,
	"Hit":       KeywordHit,
	"Brand":     KeywordBrand,
}

// Matches reports whether every bit set on f is also set in query.
func (f ModFlag) Matches(query ModFlag) bool {
	return f&query == f
}

// Matches reports whether every bit set on f is also set in query.
func (f KeywordFlag) Matches(query KeywordFlag) bool {
	return f&query == f
}

// ParseModFlags parses a "|"-separated list of flag names ("Attack|Melee").
func ParseModFlags(s string) (ModFlag, error) {
	var out ModFlag
	for _, name := range splitFlags(s) {
		f, ok := modFlagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown mod flag %q", name)
		}
		out |= f
	}
	return out, nil
}

// ParseKeywordFlags parses a "|"-separated list of keyword names ("Fire|Spell").
func ParseKeywordFlags(s string) (KeywordFlag, error) {
	var out KeywordFlag
	for _, name := range splitFlags(s) {
		f, ok := keywordFlagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown keyword flag %q", name)
		}
		out |= f
	}
	return out, nil
}

func splitFlags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	n := 0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			parts[n] = p
			n++
		}
	}
	return parts[:n]
}
