package internal

import (
	"fmt"
	"math/rand"
)

var usernameAdjectives = []string{
	"Salty", "Rusty", "Brave", "Sly", "Stormy", "Lucky",
	"Grim", "Swift", "Iron", "Misty", "Bold", "Silent",
}

var usernameNouns = []string{
	"Anchor", "Kraken", "Corsair", "Cutlass", "Galleon", "Harpoon",
	"Mariner", "Tempest", "Trident", "Admiral", "Buccaneer", "Frigate",
}

// GenerateUsername produces a readable display name for players that
// connect without one. Uniqueness is not required since players are
// keyed by uuid.
func GenerateUsername() string {
	adjective := usernameAdjectives[rand.Intn(len(usernameAdjectives))]
	noun := usernameNouns[rand.Intn(len(usernameNouns))]
	return fmt.Sprintf("%s %s %d", adjective, noun, rand.Intn(100))
}
