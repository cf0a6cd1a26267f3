package botkit

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// IsAPIError сообщает, что ошибку вернул сам телеграм, а не сеть или наш код
func IsAPIError(err error) bool {
	_, ok := apiError(err)
	return ok
}

// IsNotFound - сообщение уже удалено или никогда не существовало
func IsNotFound(err error) bool {
	e, ok := apiError(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "not found")
}

// tgbotapi всегда возвращает ошибку апи как *tgbotapi.Error
func apiError(err error) (*tgbotapi.Error, bool) {
	var e *tgbotapi.Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}
