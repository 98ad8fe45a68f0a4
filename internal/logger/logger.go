// 包 logger：统一初始化与获取日志器；通过环境变量控制日志级别、输出格式与可选的滚动日志文件
package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 默认日志器：在进程级复用，避免多处初始化导致输出不一致
var defaultLogger *slog.Logger

// Setup：初始化默认日志器
// 背景：转换器与各运维命令共用同一套日志配置
// 约束：始终输出到标准错误；LOG_FILE 非空时追加一路滚动文件（LOG_FILE_MAX_MB，默认 32）
func Setup() *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var w io.Writer = os.Stderr
	if path := strings.TrimSpace(os.Getenv("LOG_FILE")); path != "" {
		maxMB := 32
		if v := os.Getenv("LOG_FILE_MAX_MB"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				maxMB = n
			}
		}
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxMB,
			MaxBackups: 3,
		})
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// L：获取默认日志器
// 背景：为业务代码提供快捷访问；若未初始化则回退到 Setup
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}
