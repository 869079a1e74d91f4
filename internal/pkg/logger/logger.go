package logger

import (
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"proxy-deploy-backend/internal/pkg/ssh"
)

const maxLoggedCommand = 100

type Options struct {
	Level  string
	Format string // "json" or "console"
	File   string // optional, rotated with lumberjack
}

type Logger struct {
	*zap.Logger
}

func NewLogger(opts Options) *Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	var encoder zapcore.Encoder
	if opts.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writer := zapcore.AddSync(os.Stdout)
	if opts.File != "" {
		writer = zapcore.NewMultiWriteSyncer(writer, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 10,
			MaxAge:     7,
			LocalTime:  true,
		}))
	}

	core := zapcore.NewCore(encoder, writer, level)
	return &Logger{Logger: zap.New(core, zap.AddCaller())}
}

// New wraps an existing zap logger, e.g. one built by zaptest/observer.
func New(l *zap.Logger) *Logger {
	return &Logger{Logger: l}
}

func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

func (l *Logger) SSHConnectionAttempt(cred ssh.Credential) {
	l.Info("connecting over SSH",
		zap.String("type", "ssh_connection"),
		zap.String("target", cred.String()),
	)
}

func (l *Logger) DeploymentStep(index int, action string) {
	l.Info("deployment step started",
		zap.String("type", "deployment"),
		zap.Int("step", index),
		zap.String("action", action),
	)
}

func (l *Logger) DeploymentError(index int, action, reason string) {
	l.Error("deployment step failed",
		zap.String("type", "deployment"),
		zap.Int("step", index),
		zap.String("action", action),
		zap.String("error", reason),
	)
}

func (l *Logger) DeploymentSuccess(index int, action string) {
	l.Info("deployment step completed",
		zap.String("type", "deployment"),
		zap.Int("step", index),
		zap.String("action", action),
	)
}

// Connected, Completed and ConnectionFailed make Logger an ssh.Observer.

func (l *Logger) Connected(cred ssh.Credential, command string) {
	l.Info("connected",
		zap.String("type", "ssh_connection"),
		zap.String("target", cred.String()),
		zap.String("command", truncate(command, maxLoggedCommand)),
	)
}

func (l *Logger) Completed(cred ssh.Credential, result *ssh.CommandResult, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("type", "ssh_command"),
		zap.String("target", cred.String()),
		zap.Duration("elapsed", elapsed),
	}
	if result.ExitCode != nil {
		fields = append(fields, zap.Int("exit_code", *result.ExitCode))
	}
	if result.Signal != "" {
		fields = append(fields, zap.String("signal", result.Signal))
	}
	l.Info("command completed", fields...)
}

func (l *Logger) ConnectionFailed(cred ssh.Credential, err error) {
	l.Error("SSH error",
		zap.String("type", "ssh_connection"),
		zap.String("target", cred.String()),
		zap.Error(err),
	)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
