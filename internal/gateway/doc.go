// Package gateway wires the two bots to the relay and runs them.
//
// # Event flow
//
// Each bot's update source (long polling, or the webhook route of the HTTP
// server) converts updates into transport.Event values and hands them to
// Dispatcher.Submit. Submit drops update keys seen within the dedupe TTL,
// tags the event with a trace id and queues it on the lane of its sender.
// A lane is a FIFO per (endpoint, identity): one person's events are
// handled in arrival order while different people proceed in parallel.
//
// # Routing
//
// Client bot:
//
//   - /start looktoid_<id> shows the item card; bare /start greets
//   - "Каталог" sends the first catalog page
//   - catalog controls edit the page in place
//   - connect_owner enters a conversation with the item owner
//   - view_item and the "Посмотреть событие" button show the anchor item
//   - /cancel or the exit button leaves the conversation
//   - anything else is relayed to the owner while a conversation is active
//
// Service bot:
//
//   - answeruser enters a conversation with the user who wrote
//   - /cancel or the exit button leaves it
//   - anything else is relayed to the user while a conversation is active
//
// Controls pressed on the wrong bot, and inert controls, are only
// acknowledged.
//
// # HTTP
//
// GET /healthz reports whether the item database answers.
// POST /webhook/{endpoint} accepts Telegram updates in webhook mode.
package gateway
