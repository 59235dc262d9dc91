package sources

// Archive describes one historical catalog table.
type Archive struct {
	Name         string `yaml:"-" json:"name"` // Derived from filename (without .yml extension)
	Label        string `yaml:"label" json:"label"`
	Path         string `yaml:"path" json:"path"`
	BootstrapURL string `yaml:"bootstrap_url" json:"bootstrap_url,omitempty"`
	Enabled      *bool  `yaml:"enabled" json:"-"`
}

// IsEnabled treats an omitted enabled key as true.
func (a *Archive) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}
