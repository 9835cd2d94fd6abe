package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log 全局日志实例。包加载后即可写（stderr、info 级别），
// InitLogger 之后按配置接管级别和输出目标。
var Log = newLogger(logrus.InfoLevel, os.Stderr)

// levelTags 把 logrus 级别收敛成等宽标签，保证日志列对齐
var levelTags = map[logrus.Level]string{
	logrus.TraceLevel: "TRAC",
	logrus.DebugLevel: "DEBU",
	logrus.InfoLevel:  "INFO",
	logrus.WarnLevel:  "WARN",
	logrus.ErrorLevel: "ERRO",
	logrus.FatalLevel: "FATA",
	logrus.PanicLevel: "PANI",
}

// lineFormatter 单行文本格式：时间 级别 调用点 | 消息
type lineFormatter struct{}

// Format 实现 logrus.Formatter 接口
func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	caller := "-"
	if entry.HasCaller() {
		caller = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	tag, ok := levelTags[entry.Level]
	if !ok {
		tag = strings.ToUpper(entry.Level.String())
	}

	msg := fmt.Sprintf("%s %s %s | %s\n",
		entry.Time.Format("2006-01-02 15:04:05.000"), tag, caller, entry.Message)
	return []byte(msg), nil
}

func newLogger(level logrus.Level, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetReportCaller(true)
	l.SetFormatter(&lineFormatter{})
	l.SetLevel(level)
	l.SetOutput(out)
	return l
}

// InitLogger 按配置重建全局日志。级别串非法时回落到 info；
// filePath 非空时同时写控制台和日志文件。
func InitLogger(levelStr string, filePath string) error {
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	writers := []io.Writer{os.Stdout}
	if filePath != "" {
		// 确保日志目录存在
		if dir := filepath.Dir(filePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("创建日志目录失败: %w", err)
			}
		}

		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}

	Log = newLogger(level, io.MultiWriter(writers...))
	return nil
}
