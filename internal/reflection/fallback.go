package reflection

// fallbacks is the fixed pool of pre-written texts substituted when
// generation is unavailable or unusable. Selection goes through the
// generator's injected random source.
var fallbacks = []string{
	"Every word you write is a step toward understanding yourself a little better. Today you showed up, and that counts.",
	"Small rivers carve the deepest canyons. Keep writing, one day at a time, and watch what you shape.",
	"The page doesn't judge, it just listens. Thank you for trusting it with today; tomorrow it will be waiting for you.",
	"Even on the heaviest days, putting feelings into words lightens the load. You did something kind for yourself just now.",
	"A streak isn't about perfection; it's about returning. However today went, you returned, and that is its own quiet victory.",
}

func (g *Generator) fallback() string {
	return fallbacks[g.pick(len(fallbacks))]
}
