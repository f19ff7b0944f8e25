package model

// Theme is the light/dark display preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme is used when nothing (or garbage) is stored.
const DefaultTheme = ThemeLight

// Valid reports whether t is one of the two known themes.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Fixed keys in the preference store.
const (
	PrefKeyTheme    = "theme"
	PrefKeySettings = "editorialChainSettings"
)

// Settings is the reader's free-form preference object.
//
// There is no Theme field: the theme is stored under its own key,
// and a "theme" entry inside saved or imported settings is dropped on decode.
type Settings struct {
	FontSize         string          `json:"fontSize"`
	FontFamily       string          `json:"fontFamily"`
	ReadingSpeed     string          `json:"readingSpeed"`
	VocabularyLevel  string          `json:"vocabularyLevel"`
	AutoScroll       bool            `json:"autoScroll"`
	HighlightMode    string          `json:"highlightMode"`
	Topics           map[string]bool `json:"topics"`
	Notifications    map[string]bool `json:"notifications"`
	ReadingHistory   bool            `json:"readingHistory"`
	AnalyticsSharing bool            `json:"analyticsSharing"`
}

// DefaultSettings returns a fresh copy of the defaults.
// Maps are newly allocated on every call, so callers may mutate the result.
func DefaultSettings() Settings {
	return Settings{
		FontSize:        "medium",
		FontFamily:      "inter",
		ReadingSpeed:    "normal",
		VocabularyLevel: "intermediate",
		AutoScroll:      false,
		HighlightMode:   "word",
		Topics: map[string]bool{
			"technology":    true,
			"science":       true,
			"business":      false,
			"health":        true,
			"arts":          false,
			"politics":      false,
			"sports":        false,
			"entertainment": true,
		},
		Notifications: map[string]bool{
			"dailyReminder":  true,
			"streakReminder": true,
			"newArticle":     true,
			"achievement":    true,
			"weeklyReport":   false,
			"soundEnabled":   true,
			"emailDigest":    true,
		},
		ReadingHistory:   true,
		AnalyticsSharing: false,
	}
}
