package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"actuation-core/actuation"
	"actuation-core/utils"
)

// AppConfig is the resolved configuration of the closed_loop binary.
type AppConfig struct {
	Runner      RunnerConfig
	Controller  actuation.Config
	LogLevel    utils.LogLevel
	LogFile     string
	MetricsAddr string
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Runner: RunnerConfig{
			Interface:     "vcan0",
			MapPath:       "config/can/can_map.csv",
			FrameName:     "ACTUATOR_CMD_1",
			FeedbackFrame: "VEHICLE_STATE_1",
			SpeedSignal:   "vehicle_speed_mps",
			MaxSpeedKPH:   100,
		},
		Controller: actuation.DefaultConfig(),
		LogLevel:   utils.INFO,
		LogFile:    "closed_loop.log",
	}
}

type fileConfig struct {
	Runner struct {
		Iface         string  `toml:"iface"`
		Map           string  `toml:"map"`
		Scenario      string  `toml:"scenario"`
		CommandFrame  string  `toml:"command_frame"`
		FeedbackFrame string  `toml:"feedback_frame"`
		SpeedSignal   string  `toml:"speed_signal"`
		MaxSpeedKPH   float64 `toml:"max_speed_kph"`
		LogLevel      string  `toml:"log_level"`
		LogFile       string  `toml:"log_file"`
		MetricsAddr   string  `toml:"metrics_addr"`
	} `toml:"runner"`
	Controller struct {
		SteerPeriod     string `toml:"steer_period"`
		SteerIdlePeriod string `toml:"steer_idle_period"`
		ThrottlePeriod  string `toml:"throttle_period"`
		BrakePeriod     string `toml:"brake_period"`
	} `toml:"controller"`
}

// LoadAppConfig reads a TOML config. Keys absent from the file keep their
// defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return resolveConfig(raw, meta)
}

// ParseAppConfig decodes a TOML config held in memory.
func ParseAppConfig(data string) (AppConfig, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return resolveConfig(raw, meta)
}

func resolveConfig(raw fileConfig, meta toml.MetaData) (AppConfig, error) {
	cfg := DefaultAppConfig()

	str := func(dst *string, v string, key ...string) {
		if meta.IsDefined(key...) {
			*dst = strings.TrimSpace(v)
		}
	}
	str(&cfg.Runner.Interface, raw.Runner.Iface, "runner", "iface")
	str(&cfg.Runner.MapPath, raw.Runner.Map, "runner", "map")
	str(&cfg.Runner.ScenarioPath, raw.Runner.Scenario, "runner", "scenario")
	str(&cfg.Runner.FrameName, raw.Runner.CommandFrame, "runner", "command_frame")
	str(&cfg.Runner.FeedbackFrame, raw.Runner.FeedbackFrame, "runner", "feedback_frame")
	str(&cfg.Runner.SpeedSignal, raw.Runner.SpeedSignal, "runner", "speed_signal")
	str(&cfg.LogFile, raw.Runner.LogFile, "runner", "log_file")
	str(&cfg.MetricsAddr, raw.Runner.MetricsAddr, "runner", "metrics_addr")

	if meta.IsDefined("runner", "max_speed_kph") {
		if raw.Runner.MaxSpeedKPH < 0 {
			return AppConfig{}, fmt.Errorf("invalid max_speed_kph: %v", raw.Runner.MaxSpeedKPH)
		}
		cfg.Runner.MaxSpeedKPH = raw.Runner.MaxSpeedKPH
	}

	if meta.IsDefined("runner", "log_level") {
		lvl, ok := utils.ParseLevel(raw.Runner.LogLevel)
		if !ok {
			return AppConfig{}, fmt.Errorf("unknown log_level %q", raw.Runner.LogLevel)
		}
		cfg.LogLevel = lvl
	}

	periods := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"steer_period", raw.Controller.SteerPeriod, &cfg.Controller.SteerPeriod},
		{"steer_idle_period", raw.Controller.SteerIdlePeriod, &cfg.Controller.SteerIdlePeriod},
		{"throttle_period", raw.Controller.ThrottlePeriod, &cfg.Controller.ThrottlePeriod},
		{"brake_period", raw.Controller.BrakePeriod, &cfg.Controller.BrakePeriod},
	}
	for _, p := range periods {
		if !meta.IsDefined("controller", p.key) {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(p.raw))
		if err != nil {
			return AppConfig{}, fmt.Errorf("parse %s: %w", p.key, err)
		}
		if d <= 0 {
			return AppConfig{}, fmt.Errorf("%s must be positive, got %v", p.key, d)
		}
		*p.dst = d
	}

	return cfg, nil
}
