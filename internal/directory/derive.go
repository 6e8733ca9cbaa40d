package directory

import (
	"regexp"
	"strings"
)

// Vocabulary for derived room names. Order matters: the hash indexes into
// this slice, so edits here change every derived name.
var nameWords = []string{
	"Study", "Chat", "Talk", "Group", "Room", "Space", "Hub", "Zone",
	"Cafe", "Lounge", "Club", "Circle", "Forum", "Square", "Plaza",
	"Garden", "Park", "Beach", "Mountain", "Forest", "River", "Lake",
	"Ocean", "Sky", "Star", "Moon", "Sun", "Cloud", "Rain", "Snow",
	"Spring", "Summer", "Autumn", "Winter", "Morning", "Evening", "Night",
	"Coffee", "Tea", "Pizza", "Burger", "Sushi", "Taco", "Pasta", "Salad",
	"Music", "Movie", "Game", "Book", "Art", "Photo", "Video", "Code",
	"Math", "Science", "History", "English", "Physics", "Chemistry", "Biology",
	"Computer", "Phone", "Laptop", "Tablet", "Watch", "Camera", "Speaker",
	"Friend", "Family", "Team", "Class", "School", "College", "University",
	"Work", "Office", "Home", "Kitchen", "Bedroom", "Living", "Dining",
}

var lowercaseHyphenated = regexp.MustCompile(`^[a-z-]+$`)

// commonRoomWords are ids that read as room names on their own.
var commonRoomWords = map[string]bool{
	"general": true, "random": true, "study": true, "tech": true,
	"music": true, "gaming": true, "sports": true, "movies": true,
	"books": true, "food": true, "travel": true, "fitness": true,
	"art": true, "science": true,
}

// DeriveName maps a room id to a stable display name. Pure and
// deterministic: every client derives the same name for the same id without
// coordination.
//
// Readable ids pass through unchanged; anything else hashes into a two-word
// name from the fixed vocabulary.
func DeriveName(roomID string) string {
	if isReadableName(roomID) {
		return roomID
	}

	h := rollingHash(roomID)
	n := len(nameWords)
	return nameWords[h%n] + " " + nameWords[(h*2)%n]
}

// isReadableName reports whether an id already looks like a display name.
func isReadableName(id string) bool {
	for _, r := range id {
		if r == ' ' {
			return true
		}
	}
	if lowercaseHyphenated.MatchString(id) {
		return true
	}
	return commonRoomWords[strings.ToLower(id)]
}

// rollingHash is a 31-polynomial rolling hash over the id, folded to 32 bits
// and taken absolute, so the result is stable across processes.
func rollingHash(s string) int {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v)
}
