// ABOUTME: Keyboard and control types attached to outbound messages
// ABOUTME: Inline controls carry callback data or a URL; reply keyboards carry plain button labels

package transport

import "github.com/2389/event-relay/internal/callback"

// Control is one inline button. Either URL or Data is used.
type Control struct {
	Text string
	URL  string
	Data callback.Data
}

// DataControl builds a control carrying callback data.
func DataControl(text string, d callback.Data) Control {
	return Control{Text: text, Data: d}
}

// URLControl builds a control opening a link.
func URLControl(text, url string) Control {
	return Control{Text: text, URL: url}
}

// InertControl builds a rendered control with no bound handler.
func InertControl(text string) Control {
	return Control{Text: text, Data: callback.Inert()}
}

// Inert reports whether pressing c does nothing.
func (c Control) Inert() bool {
	return c.URL == "" && c.Data.Action == callback.ActionInert
}

// Keyboard is the reply markup of a message. At most one of Inline, Reply
// or Remove applies.
type Keyboard struct {
	Inline [][]Control
	Reply  [][]string
	Remove bool
}

// InlineKeyboard builds an inline keyboard from rows, dropping empty rows.
func InlineKeyboard(rows ...[]Control) *Keyboard {
	kb := &Keyboard{}
	for _, row := range rows {
		if len(row) > 0 {
			kb.Inline = append(kb.Inline, row)
		}
	}
	return kb
}

// ReplyKeyboard builds a persistent reply keyboard.
func ReplyKeyboard(rows ...[]string) *Keyboard {
	return &Keyboard{Reply: rows}
}

// RemoveKeyboard hides any reply keyboard.
func RemoveKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

// Message is an outbound message.
type Message struct {
	ChatID   int64
	Payload  Payload
	Caption  string
	Keyboard *Keyboard
}

// Labels flattens the inline keyboard into its button texts, row by row.
func (k *Keyboard) Labels() []string {
	if k == nil {
		return nil
	}
	var out []string
	for _, row := range k.Inline {
		for _, c := range row {
			out = append(out, c.Text)
		}
	}
	return out
}
