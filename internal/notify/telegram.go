// Package notify delivers menu notifications to users over Telegram.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"recipeshare/internal/menu"
	"recipeshare/internal/recipe"
	"recipeshare/internal/user"
)

// sender is the part of the Telegram bot API the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// userDirectory resolves users to their linked Telegram chats.
type userDirectory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// titleSource resolves recipe ids to display titles.
type titleSource interface {
	TitlesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
}

// TelegramNotifier implements menu.Notifier by messaging users who linked a
// Telegram chat. Users without a linked chat are silently skipped, and send
// failures are logged, never propagated.
type TelegramNotifier struct {
	bot     sender
	users   userDirectory
	recipes titleSource
	log     zerolog.Logger
}

// NewTelegramNotifier creates a notifier using the given bot token.
func NewTelegramNotifier(token string, users userDirectory, recipes titleSource, log zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:     bot,
		users:   users,
		recipes: recipes,
		log:     log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var mealLabels = map[recipe.Category]string{
	recipe.CategoryBreakfast: "Breakfast",
	recipe.CategoryLunch:     "Lunch",
	recipe.CategoryDinner:    "Dinner",
}

// WeekGenerated sends the user their freshly generated week.
func (n *TelegramNotifier) WeekGenerated(ctx context.Context, userID int64, slots []menu.Slot) {
	u, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load user for notification")
		return
	}
	if u == nil || u.TelegramChatID == nil {
		return
	}

	text, err := n.formatWeek(ctx, slots)
	if err != nil {
		n.log.Error().Err(err).Int64("user_id", userID).Msg("failed to format week notification")
		return
	}

	if _, err := n.bot.Send(tgbotapi.NewMessage(*u.TelegramChatID, text)); err != nil {
		n.log.Error().Err(err).Int64("user_id", userID).Msg("failed to send telegram message")
	}
}

func (n *TelegramNotifier) formatWeek(ctx context.Context, slots []menu.Slot) (string, error) {
	var ids []int64
	for _, s := range slots {
		if s.RecipeID != nil {
			ids = append(ids, *s.RecipeID)
		}
	}
	titles, err := n.recipes.TitlesByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("failed to resolve recipe titles: %w", err)
	}

	byDay := make(map[int][]menu.Slot)
	var desserts []menu.Slot
	for _, s := range slots {
		if s.Day == nil {
			desserts = append(desserts, s)
			continue
		}
		byDay[*s.Day] = append(byDay[*s.Day], s)
	}

	var sb strings.Builder
	sb.WriteString("Your menu for next week is ready!\n")
	for day := 0; day < len(dayNames); day++ {
		daySlots, ok := byDay[day]
		if !ok {
			continue
		}
		sb.WriteString("\n" + dayNames[day] + "\n")
		for _, s := range daySlots {
			title := "(nothing found)"
			if s.RecipeID != nil {
				title = titles[*s.RecipeID]
			}
			sb.WriteString(fmt.Sprintf("  %s: %s\n", mealLabels[s.Meal], title))
		}
	}

	var dessertTitles []string
	for _, s := range desserts {
		if s.RecipeID != nil {
			dessertTitles = append(dessertTitles, titles[*s.RecipeID])
		}
	}
	if len(dessertTitles) > 0 {
		sb.WriteString("\nDesserts: " + strings.Join(dessertTitles, ", ") + "\n")
	}

	return sb.String(), nil
}
