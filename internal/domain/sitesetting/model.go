package sitesetting

// Settings holds site-wide values editable from the admin area.
// A nil YearlyProgramURL means no uploaded program document.
type Settings struct {
	YearlyProgramURL *string `json:"yearlyProgramUrl"`
}

// Default returns the settings used when nothing has been stored yet.
func Default() Settings {
	return Settings{}
}
