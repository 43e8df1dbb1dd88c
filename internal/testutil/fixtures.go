package testutil

import "github.com/udisondev/buildplanner/internal/build"

// SampleBuild returns a fresh Witch build touching every build category:
// passives with a mastery, gear, a socketed jewel, skill groups and config.
func SampleBuild() *build.Build {
	return &build.Build{
		Class:          "Witch",
		AllocatedNodes: []int{103, 200, 300},
		Masteries:      map[int]int{200: 1},
		Items: map[string]build.Item{
			build.SlotHelmet:     {ID: "helm-1", Name: "Hubris Circlet", Mods: []string{"BASE Int 20", "BASE Life 30"}},
			build.SlotWeapon1:    {ID: "wand-1", Name: "Driftwood Wand", Mods: []string{"INC Damage 0.2 kw=Spell"}},
			build.JewelSlot(300): {ID: "jewel-1", Name: "Cobalt Jewel", Mods: []string{"BASE Int 8"}},
		},
		SkillGroups: []build.SkillGroup{
			{ID: "g1", Label: "Arc", Enabled: true, Mods: []string{"MORE Damage 0.2 kw=Spell"}},
			{ID: "g2", Label: "Clarity", Enabled: false, Mods: []string{"BASE ManaRegen 4"}},
		},
		Config: map[string]any{"Onslaught": true, "PowerCharge": 3, "enemyLightningResist": 30},
	}
}
