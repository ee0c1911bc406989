package menu

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/default_menu.yaml
var defaultMenuRaw []byte

type fileConfig struct {
	Hours struct {
		OpenHour       int    `yaml:"open_hour"`
		CloseHour      int    `yaml:"close_hour"`
		UTCOffsetHours int    `yaml:"utc_offset_hours"`
		Display        string `yaml:"display"`
	} `yaml:"hours"`
	Items []struct {
		Key      string  `yaml:"key"`
		Name     string  `yaml:"name"`
		Price    float64 `yaml:"price"`
		Category string  `yaml:"category"`
	} `yaml:"items"`
}

// Default returns the embedded Habibi menu.
func Default() (*Menu, error) {
	return Parse(defaultMenuRaw)
}

// Load reads a menu file; an empty path selects the embedded default.
func Load(path string) (*Menu, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Menu, error) {
	var conf fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}

	items := make([]Item, 0, len(conf.Items))
	for _, it := range conf.Items {
		items = append(items, Item{
			Key:         it.Key,
			DisplayName: it.Name,
			UnitPrice:   PriceFromFloat(it.Price),
			Category:    Category(strings.ToLower(strings.TrimSpace(it.Category))),
		})
	}

	return New(items, Hours{
		OpenHour:       conf.Hours.OpenHour,
		CloseHour:      conf.Hours.CloseHour,
		UTCOffsetHours: conf.Hours.UTCOffsetHours,
		Display:        strings.TrimSpace(conf.Hours.Display),
	})
}

func MustDefault() *Menu {
	m, err := Default()
	if err != nil {
		panic(err)
	}
	return m
}
