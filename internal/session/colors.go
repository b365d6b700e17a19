package session

import "math/rand"

// Display colors assigned to members at join time. Drawn uniformly with
// replacement, so two members can share a color.
var userColors = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8C471", "#82E0AA", "#F1948A", "#85C1E9", "#D7BDE2",
}

func pickColor() string {
	return userColors[rand.Intn(len(userColors))]
}
