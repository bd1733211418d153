// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package conf

import (
	"fmt"
	"strings"
)

type Level string

const (
	TraceLevel Level = "trace"
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case string(TraceLevel):
		return TraceLevel, nil
	case string(DebugLevel):
		return DebugLevel, nil
	case string(InfoLevel):
		return InfoLevel, nil
	case string(WarnLevel):
		return WarnLevel, nil
	case string(ErrorLevel):
		return ErrorLevel, nil
	case string(FatalLevel):
		return FatalLevel, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}
