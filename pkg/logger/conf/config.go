// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package conf

// LogConfig is the shape loaded under the top-level config's `log:`
// section (see pkg/config.Config).
type LogConfig struct {
	Core      Core      `yaml:"core"`
	Formatter Formatter `yaml:"formatter"`
	Level     Level     `yaml:"level"`
	Output    string    `yaml:"output"` // "stdout" or a file path
}

func DefaultConfig() *LogConfig {
	return &LogConfig{
		Core:      LogrusCore,
		Formatter: ConsoleFormater,
		Level:     InfoLevel,
		Output:    "stdout",
	}
}
