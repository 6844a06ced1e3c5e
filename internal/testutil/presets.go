package testutil

// WithStandardCatalog adds a small vanilla-like catalog.
//
//	items:  stone, andesite, iron_ore, gold_ore, coal_ore, oak_log,
//	        birch_log, white_wool, red_wool
//	item groups:  minecraft:logs -> oak_log, birch_log
//	block groups: minecraft:logs -> oak_log (shadowed by the item group)
//	              minecraft:wool -> white_wool, red_wool
func (b *Builder) WithStandardCatalog() *Builder {
	return b.
		WithItems(
			"minecraft:stone", "minecraft:andesite",
			"minecraft:iron_ore", "minecraft:gold_ore", "minecraft:coal_ore",
			"minecraft:oak_log", "minecraft:birch_log",
			"minecraft:white_wool", "minecraft:red_wool",
		).
		WithItemGroup("minecraft:logs", "minecraft:oak_log", "minecraft:birch_log").
		WithBlockGroup("minecraft:logs", "minecraft:oak_log").
		WithBlockGroup("minecraft:wool", "minecraft:white_wool", "minecraft:red_wool")
}

// WithStandardTags adds tag documents in the slimefun namespace that
// exercise every reference kind.
//
//	ores        iron_ore, gold_ore, optional missing ore
//	fuel        coal_ore, #minecraft:logs
//	smeltables  $slimefun:ores, stone
//	soft        #minecraft:wool
//	broken      required unknown item
func (b *Builder) WithStandardTags() *Builder {
	return b.
		WithTag("ores", "minecraft:iron_ore", "minecraft:gold_ore", Optional("create:zinc_ore")).
		WithTag("fuel", "minecraft:coal_ore", "#minecraft:logs").
		WithTag("smeltables", "$slimefun:ores", "minecraft:stone").
		WithTag("soft", Required("#minecraft:wool")).
		WithTag("broken", "minecraft:nonexistent")
}
