// Package telegram adapts the Telegram Bot API to transport.Endpoint.
//
// Each Bot wraps one bot token. Attachment handles are Telegram file ids,
// which are only valid for the bot that received or uploaded them, so
// Upload parks the file in the bot's configured upload chat and returns
// the file id Telegram assigns there.
//
// Updates arrive either by long polling (Poll) or through the webhook
// handler (ServeHTTP); both convert them with Convert and pass the
// resulting transport.Event to a Handler.
package telegram
