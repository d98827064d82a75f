package yamlprovider

import (
	"fmt"
	"strings"
)

// Config declares a scraping provider for a source that follows the same
// page layout family as the default one, so that adding a mirror is a
// config file rather than code.
type Config struct {
	Key          string `yaml:"key"`
	Name         string `yaml:"name"`
	Enabled      *bool  `yaml:"enabled"`
	BaseURL      string `yaml:"base_url"`
	PageImageURL string `yaml:"page_image_url"`

	Catalogue struct {
		Path            string   `yaml:"path"`
		CardSelector    string   `yaml:"card_selector"`
		TitleSelector   string   `yaml:"title_selector"`
		LinkSelector    string   `yaml:"link_selector"`
		CoverSelector   string   `yaml:"cover_selector"`
		AliasSelector   string   `yaml:"alias_selector"`
		IDAfter         string   `yaml:"id_after"`
		StripClassToken []string `yaml:"strip_class_tokens"`
	} `yaml:"catalogue"`

	Info struct {
		Path             string    `yaml:"path"`
		CoverSelector    string    `yaml:"cover_selector"`
		TitleSelector    string    `yaml:"title_selector"`
		AltNamesSelector string    `yaml:"alt_names_selector"`
		SynopsisBetween  [2]string `yaml:"synopsis_between"`
		TagsBetween      [2]string `yaml:"tags_between"`
	} `yaml:"info"`

	Chapters struct {
		Path string `yaml:"path"`
	} `yaml:"chapters"`
}

func (c *Config) normalizeAndValidate() error {
	c.Key = strings.TrimSpace(c.Key)
	c.Name = strings.TrimSpace(c.Name)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")

	if c.Key == "" {
		return fmt.Errorf("key is required")
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if strings.TrimSpace(c.Catalogue.Path) == "" {
		return fmt.Errorf("catalogue.path is required")
	}

	if strings.TrimSpace(c.Catalogue.CardSelector) == "" {
		c.Catalogue.CardSelector = ".Scans"
	}
	if strings.TrimSpace(c.Catalogue.TitleSelector) == "" {
		c.Catalogue.TitleSelector = "h1"
	}
	if strings.TrimSpace(c.Catalogue.LinkSelector) == "" {
		c.Catalogue.LinkSelector = "a"
	}
	if strings.TrimSpace(c.Catalogue.CoverSelector) == "" {
		c.Catalogue.CoverSelector = "img"
	}
	if strings.TrimSpace(c.Catalogue.AliasSelector) == "" {
		c.Catalogue.AliasSelector = "p"
	}
	if strings.TrimSpace(c.Catalogue.IDAfter) == "" {
		c.Catalogue.IDAfter = "catalogue/"
	}

	if strings.TrimSpace(c.Info.Path) == "" {
		c.Info.Path = "/catalogue/{id}"
	}
	if strings.TrimSpace(c.Chapters.Path) == "" {
		c.Chapters.Path = "/catalogue/{id}/scan/vf/episodes.js"
	}
	if strings.TrimSpace(c.PageImageURL) == "" {
		c.PageImageURL = "{base}/s2/scans/{id}/{chapter}/{page}.jpg"
	}

	return nil
}

func (c *Config) isEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}
