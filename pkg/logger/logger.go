package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName 写入每条日志的 service 字段
const ServiceName = "vault-bridge"

var (
	Log *zap.Logger
)

func init() {
	// 未 Init 时为 Nop Logger, 测试与 CLI 可以直接调用
	Log = zap.NewNop()
}

// Init 按运行环境初始化全局 Logger; production 输出 JSON, 其余环境输出彩色控制台格式
func Init(env string) {
	l, err := newConfig(env).Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	Log = l
	zap.ReplaceGlobals(Log)
}

func newConfig(env string) zap.Config {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.MessageKey = "msg"
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.InitialFields = map[string]interface{}{"service": ServiceName, "env": env}
	return cfg
}

// Replace 替换全局 Logger 并返回恢复函数, 测试用来捕获日志
// 传入的 Logger 不应带 CallerSkip
func Replace(l *zap.Logger) func() {
	prev := Log
	Log = l.WithOptions(zap.AddCallerSkip(1))
	return func() { Log = prev }
}

// Sync flushes any buffered log entries
func Sync() {
	_ = Log.Sync()
}

// With 返回带固定字段的子 Logger (例如 request_id)
// 子 Logger 直接调用 zap 方法，不经过本包的 helper，因此去掉一层 CallerSkip
func With(fields ...zap.Field) *zap.Logger {
	return Log.WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}

func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// AsynqLogger 将 asynq 的日志接口适配到 zap
type AsynqLogger struct {
	sugar *zap.SugaredLogger
}

func NewAsynqLogger() *AsynqLogger {
	return &AsynqLogger{sugar: Log.Sugar().Named("asynq")}
}

func (l *AsynqLogger) Debug(args ...interface{}) { l.sugar.Debug(fmt.Sprint(args...)) }
func (l *AsynqLogger) Info(args ...interface{})  { l.sugar.Info(fmt.Sprint(args...)) }
func (l *AsynqLogger) Warn(args ...interface{})  { l.sugar.Warn(fmt.Sprint(args...)) }
func (l *AsynqLogger) Error(args ...interface{}) { l.sugar.Error(fmt.Sprint(args...)) }
func (l *AsynqLogger) Fatal(args ...interface{}) { l.sugar.Fatal(fmt.Sprint(args...)) }
