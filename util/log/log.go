// Copyright 2024 The Orion Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package log provides structured logging for orion. Messages are routed
// through a zap core; context log tags (via logtags) are rendered as a
// bracketed prefix, e.g. "[sql,stmt=3] planning select".
package log

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/logtags"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var verbosity int32

var logger = func() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}()

// SetVerbosity sets the level up to which V(level) returns true.
func SetVerbosity(level int) {
	atomic.StoreInt32(&verbosity, int32(level))
}

// V returns true if the verbosity is at or above the requested level.
// Callers guard expensive log message construction with it.
func V(level int) bool {
	return atomic.LoadInt32(&verbosity) >= int32(level)
}

func prefix(ctx context.Context) string {
	tags := logtags.FromContext(ctx)
	if tags == nil || len(tags.Get()) == 0 {
		return ""
	}
	return "[" + tags.String() + "] "
}

// Infof logs an informational message.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logger.Infof("%s%s", prefix(ctx), fmt.Sprintf(format, args...))
}

// Warningf logs a warning message.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logger.Warnf("%s%s", prefix(ctx), fmt.Sprintf(format, args...))
}

// Errorf logs an error message.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logger.Errorf("%s%s", prefix(ctx), fmt.Sprintf(format, args...))
}

// VEventf logs an informational message if the verbosity is at or above
// the requested level.
func VEventf(ctx context.Context, level int, format string, args ...interface{}) {
	if V(level) {
		Infof(ctx, format, args...)
	}
}
