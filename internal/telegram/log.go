// ABOUTME: Routes the Bot API library's internal logging into slog
// ABOUTME: Keeps polling retry messages in the same structured stream as everything else

package telegram

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type slogBotLogger struct {
	logger *slog.Logger
}

func (l slogBotLogger) Println(v ...interface{}) {
	l.logger.Warn(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (l slogBotLogger) Printf(format string, v ...interface{}) {
	l.logger.Warn(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}

// InstallLogger sends the library's log output to logger. The library
// logger is process-wide, so this is called once at startup.
func InstallLogger(logger *slog.Logger) error {
	return tgbotapi.SetLogger(slogBotLogger{logger: logger.With("component", "telegram-api")})
}
