// ABOUTME: User-facing strings and keyboards of the relay
// ABOUTME: Button labels double as inbound command matchers, so they live in one place

package relay

import "github.com/2389/event-relay/internal/transport"

// Reply keyboard labels.
const (
	LabelExitChat = "❌Выйти из чата"
	LabelViewItem = "Посмотреть событие"
	LabelCatalog  = "Каталог"
	LabelAnswer   = "Ответить"
)

const (
	textEnteredClient   = "Вы вошли в чат с владельцем события:"
	textEnteredService  = "Вы вошли в чат по событию:"
	textCancelled       = "Cancelled."
	textMalformedAnchor = "Не удалось определить событие. Откройте карточку события и попробуйте ещё раз."
	textBridgeFailed    = "Не удалось передать вложение. Попробуйте отправить его ещё раз."
	textDeliveryFailed  = "Сообщение не доставлено. Попробуйте ещё раз."
	textToOwnerHeader   = "Сообщение:"
	textToUserHeader    = "Сообщение от владельца события "
)

// MainKeyboard is the default client keyboard outside a conversation.
func MainKeyboard() *transport.Keyboard {
	return transport.ReplyKeyboard([]string{LabelCatalog})
}

func clientChatKeyboard() *transport.Keyboard {
	return transport.ReplyKeyboard([]string{LabelViewItem}, []string{LabelExitChat})
}

func serviceChatKeyboard() *transport.Keyboard {
	return transport.ReplyKeyboard([]string{LabelExitChat})
}
