package fleetspeed

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	Title  int // leaderboard title
	Header int // table header row
	Error  int // error messages
	Muted  int // status bar, placeholders
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Title:  5,
		Header: 5,
		Error:  1,
		Muted:  8,
	}
}
