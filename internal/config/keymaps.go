package config

// KeyMappings defines all configurable key bindings
type KeyMappings struct {
	// Cards
	AddCard       string `yaml:"add_card"`
	DeleteCard    string `yaml:"delete_card"`
	MoveCardLeft  string `yaml:"move_card_left"`
	MoveCardRight string `yaml:"move_card_right"`
	MoveCardUp    string `yaml:"move_card_up"`
	MoveCardDown  string `yaml:"move_card_down"`
	ViewCard      string `yaml:"view_card"`

	// Navigation
	PrevColumn string `yaml:"prev_column"`
	NextColumn string `yaml:"next_column"`
	PrevCard   string `yaml:"prev_card"`
	NextCard   string `yaml:"next_card"`

	// Other
	ShowHelp string `yaml:"show_help"`
	Quit     string `yaml:"quit"`
}

// DefaultKeyMappings returns the default key mappings
func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		// Cards
		AddCard:       "a",
		DeleteCard:    "d",
		MoveCardLeft:  "H",
		MoveCardRight: "L",
		MoveCardUp:    "K",
		MoveCardDown:  "J",
		ViewCard:      " ",

		// Navigation
		PrevColumn: "h",
		NextColumn: "l",
		PrevCard:   "k",
		NextCard:   "j",

		// Other
		ShowHelp: "?",
		Quit:     "q",
	}
}

// applyDefaults fills in missing key mappings with defaults
func (k *KeyMappings) applyDefaults() {
	defaults := DefaultKeyMappings()

	pairs := []struct {
		field *string
		def   string
	}{
		{&k.AddCard, defaults.AddCard},
		{&k.DeleteCard, defaults.DeleteCard},
		{&k.MoveCardLeft, defaults.MoveCardLeft},
		{&k.MoveCardRight, defaults.MoveCardRight},
		{&k.MoveCardUp, defaults.MoveCardUp},
		{&k.MoveCardDown, defaults.MoveCardDown},
		{&k.ViewCard, defaults.ViewCard},
		{&k.PrevColumn, defaults.PrevColumn},
		{&k.NextColumn, defaults.NextColumn},
		{&k.PrevCard, defaults.PrevCard},
		{&k.NextCard, defaults.NextCard},
		{&k.ShowHelp, defaults.ShowHelp},
		{&k.Quit, defaults.Quit},
	}
	for _, p := range pairs {
		if *p.field == "" {
			*p.field = p.def
		}
	}
}
