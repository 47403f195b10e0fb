package api

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mautops/notary-gin/internal/config"
	"github.com/mautops/notary-gin/internal/service"
	"github.com/sirupsen/logrus"
)

// ServiceName 日志和追踪中使用的服务名
const ServiceName = "notary-gin"

const logTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

var defaultLogger *logrus.Logger

// JSONFormatter JSON 格式化器（用于测试）
type JSONFormatter = logrus.JSONFormatter

// NewLogger 创建新的日志记录器
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(newFormatter("json"))
	logger.SetLevel(logrus.InfoLevel)
	logger.SetOutput(os.Stdout)
	logger.AddHook(newContextFieldsHook(""))
	return logger
}

// NewLoggerFromConfig 根据配置创建日志记录器
// 每条日志带上服务名和运行环境;通过 WithContext 记录的日志还会带上公证处、用户和请求 ID。
func NewLoggerFromConfig(cfg *config.LogConfig, env string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(newFormatter(cfg.Format))

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	var writers []io.Writer
	if cfg.Output == "stdout" || cfg.Output == "both" {
		writers = append(writers, os.Stdout)
	}
	if cfg.Output == "file" || cfg.Output == "both" {
		file, err := openLogFile(env)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}
	logger.SetOutput(io.MultiWriter(writers...))

	logger.AddHook(newContextFieldsHook(env))
	return logger, nil
}

func newFormatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{
			TimestampFormat: logTimestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "time",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
			},
		}
	}
	return &logrus.TextFormatter{
		TimestampFormat: logTimestampFormat,
		FullTimestamp:   true,
	}
}

// openLogFile 日志文件按环境区分: logs/notary-gin-<env>.log
func openLogFile(env string) (*os.File, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}
	name := ServiceName + ".log"
	if env != "" {
		name = ServiceName + "-" + env + ".log"
	}
	return os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
}

// contextFieldsHook 补充服务字段,以及请求 context 中的操作人信息
type contextFieldsHook struct {
	env string
}

func newContextFieldsHook(env string) *contextFieldsHook {
	return &contextFieldsHook{env: env}
}

func (h *contextFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *contextFieldsHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = ServiceName
	if h.env != "" {
		entry.Data["env"] = h.env
	}
	if entry.Context == nil {
		return nil
	}

	// 调用方显式写入的字段优先
	if id, ok := service.IdentityFromContext(entry.Context); ok {
		setIfAbsent(entry, "office_id", id.OfficeID)
		setIfAbsent(entry, "user_id", id.UserID)
	}
	setIfAbsent(entry, "request_id", service.GetRequestID(entry.Context))
	return nil
}

func setIfAbsent(entry *logrus.Entry, key, value string) {
	if value == "" {
		return
	}
	if _, exists := entry.Data[key]; !exists {
		entry.Data[key] = value
	}
}

// SetLogger 替换默认日志记录器,服务启动时由配置创建
func SetLogger(logger *logrus.Logger) {
	defaultLogger = logger
}

// GetLogger 获取默认日志记录器
func GetLogger() *logrus.Logger {
	if defaultLogger == nil {
		defaultLogger = NewLogger()
	}
	return defaultLogger
}

// SetLoggerOutput 设置日志输出
func SetLoggerOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

// SetLoggerLevel 设置日志级别
func SetLoggerLevel(level logrus.Level) {
	GetLogger().SetLevel(level)
}
