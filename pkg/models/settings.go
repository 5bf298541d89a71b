package models

// Settings is the optional admin/config.yml (or config.toml) of a catalog.
type Settings struct {
	SiteLabel     string   `yaml:"site_label" toml:"site_label" json:"site_label"`
	ChecksDir     string   `yaml:"checks_dir" toml:"checks_dir" json:"checks_dir"`
	Manifest      string   `yaml:"manifest" toml:"manifest" json:"manifest"`
	DefaultLevel  string   `yaml:"default_level" toml:"default_level" json:"default_level"`
	DefaultScript string   `yaml:"default_script" toml:"default_script" json:"default_script"`
	Levels        []string `yaml:"levels" toml:"levels" json:"levels"`
}
