package hub

import (
	"fmt"
	"math/rand/v2"
)

var (
	nameAdjectives = []string{
		"Amber", "Brisk", "Calm", "Daring", "Eager", "Fuzzy",
		"Gentle", "Hasty", "Ivory", "Jolly", "Keen", "Lucid",
		"Mellow", "Nimble", "Opal", "Plucky", "Quiet", "Rustic",
		"Swift", "Tidy", "Vivid", "Witty",
	}
	nameAnimals = []string{
		"Badger", "Crane", "Dolphin", "Falcon", "Gecko", "Heron",
		"Ibis", "Jackal", "Koala", "Lynx", "Marten", "Newt",
		"Otter", "Puffin", "Quail", "Raven", "Stoat", "Tapir",
		"Vole", "Wren",
	}
)

// newDisplayName generates an ephemeral display name for one connection.
// Names are readable rather than unique; the connection id is what
// distinguishes connections.
func newDisplayName() string {
	adj := nameAdjectives[rand.IntN(len(nameAdjectives))]
	animal := nameAnimals[rand.IntN(len(nameAnimals))]
	return fmt.Sprintf("%s%s-%03d", adj, animal, rand.IntN(1000))
}
