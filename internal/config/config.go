package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// StorageConfig locates the directories the server writes into. Both are
// created on startup when missing.
type StorageConfig struct {
	ResultsDir string `yaml:"resultsDir" validate:"required"`
	ExportsDir string `yaml:"exportsDir" validate:"required"`
}

// DetectionConfig carries the operator-tunable detection knobs.
type DetectionConfig struct {
	// MinConfidence is the default acceptance threshold for detected
	// objects. Requests may override it; both paths clamp to [0.1, 0.9].
	MinConfidence float64 `yaml:"minConfidence" validate:"gte=0.1,lte=0.9"`
	MaxUploadMB   int64   `yaml:"maxUploadMB" validate:"gt=0"`
	JPEGQuality   int     `yaml:"jpegQuality" validate:"gte=1,lte=100"`
}

// PaletteConfig holds the annotation colors as hex strings.
type PaletteConfig struct {
	Nut     string `yaml:"nut" validate:"hexcolor"`
	Bolt    string `yaml:"bolt" validate:"hexcolor"`
	Screw   string `yaml:"screw" validate:"hexcolor"`
	Washer  string `yaml:"washer" validate:"hexcolor"`
	Summary string `yaml:"summary" validate:"hexcolor"`
}

type Config struct {
	Addr      string          `yaml:"addr" validate:"required"`
	SSLCert   string          `yaml:"sslCert"`
	SSLKey    string          `yaml:"sslKey"`
	Storage   StorageConfig   `yaml:"storage"`
	Detection DetectionConfig `yaml:"detection"`
	Palette   PaletteConfig   `yaml:"palette"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr: "127.0.0.1:8080",
		Storage: StorageConfig{
			ResultsDir: "static/results",
			ExportsDir: "exports",
		},
		Detection: DetectionConfig{
			MinConfidence: 0.3,
			MaxUploadMB:   16,
			JPEGQuality:   90,
		},
		Palette: PaletteConfig{
			Nut:     "#00FF00",
			Bolt:    "#0000FF",
			Screw:   "#FF0000",
			Washer:  "#00FFFF",
			Summary: "#FFFF00",
		},
	}
}

var validate = validator.New()

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
