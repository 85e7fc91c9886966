package content

// Resource is a featured support service.
type Resource struct {
	Title       string `json:"service_title" yaml:"service_title"`
	Description string `json:"description" yaml:"description"`
	Link        string `json:"link" yaml:"link"`
}

// Collections is everything one run can pick from. It is read once per
// process and never written back.
type Collections struct {
	Messages    []string
	Activities  []string
	Resources   []Resource
	Backgrounds []string // file names relative to the backgrounds directory
}

// DailyContent is the selection for a single email.
type DailyContent struct {
	Message    string
	Activities []string
	Resource   Resource
	// Background is empty when no background image is available
	Background string
}

// HasBackground reports whether a background image was selected
func (d DailyContent) HasBackground() bool {
	return d.Background != ""
}
