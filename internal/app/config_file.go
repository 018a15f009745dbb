package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file YAML configuration schema. Nested sections
// map naturally to the flag namespaces.
type FileConfig struct {
	Template  string `yaml:"template"`
	Output    string `yaml:"output"`
	OutputPDF string `yaml:"outputPDF"`

	Client struct {
		Name   string `yaml:"name"`
		ID     int    `yaml:"id"`
		Period string `yaml:"period"`
		Start  string `yaml:"start"`
		End    string `yaml:"end"`
	} `yaml:"client"`

	Contact string `yaml:"contact"`

	Halo struct {
		Host     string `yaml:"host"`
		ClientID string `yaml:"clientId"`
		Secret   string `yaml:"secret"`
		Scope    string `yaml:"scope"`
		PageSize int    `yaml:"pageSize"`
		File     string `yaml:"file"`
	} `yaml:"halo"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Recs struct {
		Enable bool     `yaml:"enable"`
		Count  int      `yaml:"count"`
		Sample int      `yaml:"sample"`
		Manual []string `yaml:"manual"`
	} `yaml:"recs"`

	Render struct {
		BlankUnresolved bool   `yaml:"blankUnresolved"`
		OmitEmptySlots  bool   `yaml:"omitEmptySlots"`
		ChartToken      string `yaml:"chartToken"`
		DisableChart    bool   `yaml:"disableChart"`
	} `yaml:"render"`

	Metrics struct {
		ProactiveTypes []int `yaml:"proactiveTypes"`
		ReactiveTypes  []int `yaml:"reactiveTypes"`
	} `yaml:"metrics"`

	Cache struct {
		Dir string `yaml:"dir"`
		// MaxAge is a Go duration string such as "168h".
		MaxAge string `yaml:"maxAge"`
	} `yaml:"cache"`

	DryRun    bool `yaml:"dryRun"`
	Verbose   bool `yaml:"verbose"`
	Strict    bool `yaml:"strict"`
	EnablePDF bool `yaml:"enablePDF"`
}

// LoadFileConfig parses a YAML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// Apply copies file values into cfg wherever cfg still has the zero
// value, so flags and environment keep precedence over the file.
func (fc FileConfig) Apply(cfg *Config) {
	setString(&cfg.TemplatePath, fc.Template)
	setString(&cfg.OutputPath, fc.Output)
	setString(&cfg.OutputPDF, fc.OutputPDF)
	setString(&cfg.ClientName, fc.Client.Name)
	setInt(&cfg.ClientID, fc.Client.ID)
	setString(&cfg.ReviewPeriod, fc.Client.Period)
	setString(&cfg.StartDate, fc.Client.Start)
	setString(&cfg.EndDate, fc.Client.End)
	setString(&cfg.MSPContact, fc.Contact)
	setString(&cfg.HaloHost, fc.Halo.Host)
	setString(&cfg.HaloClientID, fc.Halo.ClientID)
	setString(&cfg.HaloSecret, fc.Halo.Secret)
	setString(&cfg.HaloScope, fc.Halo.Scope)
	setInt(&cfg.TicketPageSize, fc.Halo.PageSize)
	setString(&cfg.TicketsFile, fc.Halo.File)
	setString(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setString(&cfg.LLMModel, fc.LLM.Model)
	setString(&cfg.LLMAPIKey, fc.LLM.APIKey)
	cfg.RecsEnabled = cfg.RecsEnabled || fc.Recs.Enable
	setInt(&cfg.RecCount, fc.Recs.Count)
	setInt(&cfg.SampleSize, fc.Recs.Sample)
	if len(cfg.ManualRecs) == 0 {
		cfg.ManualRecs = fc.Recs.Manual
	}
	cfg.BlankUnresolved = cfg.BlankUnresolved || fc.Render.BlankUnresolved
	cfg.OmitEmptySlots = cfg.OmitEmptySlots || fc.Render.OmitEmptySlots
	setString(&cfg.ChartToken, fc.Render.ChartToken)
	cfg.DisableChart = cfg.DisableChart || fc.Render.DisableChart
	if len(cfg.ProactiveTypes) == 0 {
		cfg.ProactiveTypes = fc.Metrics.ProactiveTypes
	}
	if len(cfg.ReactiveTypes) == 0 {
		cfg.ReactiveTypes = fc.Metrics.ReactiveTypes
	}
	setString(&cfg.CacheDir, fc.Cache.Dir)
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge != "" {
		if d, err := time.ParseDuration(fc.Cache.MaxAge); err == nil {
			cfg.CacheMaxAge = d
		}
	}
	cfg.DryRun = cfg.DryRun || fc.DryRun
	cfg.Verbose = cfg.Verbose || fc.Verbose
	cfg.Strict = cfg.Strict || fc.Strict
	cfg.EnablePDF = cfg.EnablePDF || fc.EnablePDF
}

func setString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if *dst == 0 && v != 0 {
		*dst = v
	}
}
