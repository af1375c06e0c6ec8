// ABOUTME: Stateless catalog pager: one item per page, cursor carried in the navigation controls
// ABOUTME: Renders item cards and edits the displayed message in place on navigation

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/event-relay/internal/callback"
	"github.com/2389/event-relay/internal/relay"
	"github.com/2389/event-relay/internal/store"
	"github.com/2389/event-relay/internal/transport"
)

// ErrPageOutOfRange is returned when the requested page is past the end,
// which happens when items were removed between renders.
var ErrPageOutOfRange = errors.New("page out of range")

// Control labels.
const (
	LabelBack    = "< Назад"
	LabelForward = "Вперёд >"
	LabelContact = "Связаться"
	LabelDelete  = "❌ Удалить событие"
)

const (
	textEmpty       = "Каталог пока пуст."
	textUnavailable = "Событие недоступно."
	dateLayout      = "02.01.2006"
)

// Page is one rendered catalog page.
type Page struct {
	Item     *store.Item
	Number   int // 0-based
	Total    int
	Caption  string
	Keyboard *transport.Keyboard
}

// Pager browses the item directory on the client endpoint.
type Pager struct {
	items    store.Directory
	endpoint transport.Endpoint
	logger   *slog.Logger
}

// New creates a Pager that sends through endpoint.
func New(items store.Directory, endpoint transport.Endpoint, logger *slog.Logger) *Pager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pager{
		items:    items,
		endpoint: endpoint,
		logger:   logger.With("component", "catalog"),
	}
}

// RenderPage renders the item at offset page for viewer. Callers must not
// call it on an empty catalog; Index handles that case.
func (p *Pager) RenderPage(ctx context.Context, page int, viewer int64) (*Page, error) {
	total, err := p.items.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	if page < 0 || page >= total {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, total)
	}

	item, err := p.items.FetchByOffset(ctx, 1, page)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: page %d vanished", ErrPageOutOfRange, page)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching page %d: %w", page, err)
	}

	return &Page{
		Item:     item,
		Number:   page,
		Total:    total,
		Caption:  Caption(item),
		Keyboard: Keyboard(page, total, item.OwnerID == viewer),
	}, nil
}

// OnNavigate re-renders page and replaces the message at ref in place.
func (p *Pager) OnNavigate(ctx context.Context, ref transport.MessageRef, page int, viewer int64) error {
	pg, err := p.RenderPage(ctx, page, viewer)
	if err != nil {
		return err
	}
	media := transport.MediaPayload(transport.KindPhoto, pg.Item.Media)
	if err := p.endpoint.EditMedia(ctx, ref, media, pg.Caption, pg.Keyboard); err != nil {
		return fmt.Errorf("editing catalog message: %w", err)
	}
	return nil
}

// Index opens the catalog at the first page, or tells the user it is empty.
func (p *Pager) Index(ctx context.Context, chatID, viewer int64) error {
	total, err := p.items.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting items: %w", err)
	}
	if total == 0 {
		_, err := p.endpoint.Send(ctx, &transport.Message{
			ChatID:  chatID,
			Payload: transport.TextPayload(textEmpty),
		})
		return err
	}

	pg, err := p.RenderPage(ctx, 0, viewer)
	if err != nil {
		return err
	}
	_, err = p.endpoint.Send(ctx, &transport.Message{
		ChatID:   chatID,
		Payload:  transport.MediaPayload(transport.KindPhoto, pg.Item.Media),
		Caption:  pg.Caption,
		Keyboard: pg.Keyboard,
	})
	return err
}

// ShowItem sends a standalone card for one item with a control that opens
// a conversation with its owner.
func (p *Pager) ShowItem(ctx context.Context, chatID int64, itemID int64) error {
	item, err := p.items.FetchByID(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		_, sendErr := p.endpoint.Send(ctx, &transport.Message{
			ChatID:  chatID,
			Payload: transport.TextPayload(textUnavailable),
		})
		if sendErr != nil {
			p.logger.Warn("failed to send unavailable notice", "chat_id", chatID, "error", sendErr)
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("fetching item %d: %w", itemID, err)
	}

	_, err = p.endpoint.Send(ctx, &transport.Message{
		ChatID:  chatID,
		Payload: transport.MediaPayload(transport.KindPhoto, item.Media),
		Caption: Caption(item),
		Keyboard: transport.InlineKeyboard([]transport.Control{
			transport.DataControl(LabelContact, callback.ConnectOwner()),
		}),
	})
	return err
}

// Unavailable is the toast shown when navigation hits a vanished page.
func Unavailable() string {
	return textUnavailable
}

// Caption renders an item card. The first line is the anchor line.
func Caption(item *store.Item) string {
	lines := []string{
		relay.AnchorLine(item.ID),
		"Имя:" + item.Name,
		"Заголовок: " + item.Header,
		"Описание: " + item.Description,
		"Дата конца показа:" + item.ValidUntil.Format(dateLayout),
	}
	return strings.Join(lines, "\n")
}

// Keyboard builds the navigation row and the action row for a page.
// The page indicator, Contact and Delete are inert placeholders.
func Keyboard(page, total int, isOwner bool) *transport.Keyboard {
	nav := make([]transport.Control, 0, 3)
	if page > 0 {
		nav = append(nav, transport.DataControl(LabelBack, callback.Page(page-1)))
	}
	nav = append(nav, transport.InertControl(fmt.Sprintf("• %d / %d", page+1, total)))
	if page+1 < total {
		nav = append(nav, transport.DataControl(LabelForward, callback.Page(page+1)))
	}

	actions := []transport.Control{transport.InertControl(LabelContact)}
	if isOwner {
		actions = append(actions, transport.InertControl(LabelDelete))
	}

	return transport.InlineKeyboard(nav, actions)
}
