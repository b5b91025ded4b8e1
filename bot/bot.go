package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"attendance-pulse/internal/models"
	"attendance-pulse/internal/repository"
	"attendance-pulse/internal/services"
)

var (
	bot         *tgbotapi.BotAPI
	adminChatID int64

	users      repository.UserRepository
	attendance *services.AttendanceService
)

// Init initializes the Telegram Bot
func Init(token, authorizedChatIDStr string, userRepo repository.UserRepository, attendanceSvc *services.AttendanceService) error {
	var err error
	bot, err = tgbotapi.NewBotAPI(token)
	if err != nil {
		return err
	}

	bot.Debug = false
	log.Printf("Authorized on account %s", bot.Self.UserName)

	if authorizedChatIDStr != "" {
		if id, err := strconv.ParseInt(authorizedChatIDStr, 10, 64); err == nil {
			adminChatID = id
		}
	}

	users = userRepo
	attendance = attendanceSvc
	return nil
}

// StartPolling starts the update loop
func StartPolling() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	go func() {
		for update := range updates {
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
			msg.ParseMode = "Markdown"

			switch update.Message.Command() {
			case "start":
				msg.Text = "📋 *Attendance Pulse*\n\n" +
					"*Commands:*\n" +
					"/link <employee id> - link this chat to your account\n" +
					"/checkin - mark today's attendance\n" +
					"/today - today's status\n" +
					"/history - last 7 records"

			case "getid":
				msg.Text = fmt.Sprintf("Chat ID: `%d`", update.Message.Chat.ID)

			case "link":
				handleLink(update.Message, &msg)

			case "checkin":
				handleCheckin(update.Message.Chat.ID, &msg)

			case "today":
				handleToday(update.Message.Chat.ID, &msg)

			case "history":
				handleHistory(update.Message.Chat.ID, &msg)

			default:
				msg.Text = "Unknown command, use /start"
			}

			if _, err := bot.Send(msg); err != nil {
				log.Printf("Bot send error: %v", err)
			}
		}
	}()
}

func handleLink(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	employeeID := strings.TrimSpace(message.CommandArguments())
	if employeeID == "" {
		msg.Text = "Usage: `/link <employee id>`"
		return
	}

	ctx := context.Background()
	usr, err := users.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		msg.Text = "❌ No account found for that employee id"
		return
	}
	if err := users.SetTelegramChat(ctx, usr.ID, message.Chat.ID); err != nil {
		msg.Text = fmt.Sprintf("❌ Error: %v", err)
		return
	}
	msg.Text = fmt.Sprintf("✅ Linked to *%s*", usr.FullName)
}

func linkedUser(chatID int64) (*models.User, error) {
	return users.GetByTelegramChat(context.Background(), chatID)
}

func handleCheckin(chatID int64, msg *tgbotapi.MessageConfig) {
	usr, err := linkedUser(chatID)
	if err != nil {
		msg.Text = "❌ Not linked. Use /link <employee id>"
		return
	}

	rec, err := attendance.Mark(context.Background(), services.MarkInput{
		UserID:   usr.ID,
		UserName: usr.FullName,
	})
	if errors.Is(err, services.ErrAlreadyMarked) {
		msg.Text = "⚠️ Attendance already marked for today"
		return
	}
	if err != nil {
		msg.Text = fmt.Sprintf("❌ Error: %v", err)
		return
	}
	msg.Text = fmt.Sprintf("✅ Checked in at `%s`", rec.CheckInTime)
}

func handleToday(chatID int64, msg *tgbotapi.MessageConfig) {
	usr, err := linkedUser(chatID)
	if err != nil {
		msg.Text = "❌ Not linked. Use /link <employee id>"
		return
	}

	rec, marked, err := attendance.Today(context.Background(), usr.ID)
	if err != nil || !marked {
		msg.Text = "No attendance marked today"
		return
	}
	msg.Text = fmt.Sprintf("📊 *Today*\nIn: %s\nStatus: %s", rec.CheckInTime, rec.Status)
}

func handleHistory(chatID int64, msg *tgbotapi.MessageConfig) {
	usr, err := linkedUser(chatID)
	if err != nil {
		msg.Text = "❌ Not linked. Use /link <employee id>"
		return
	}

	history, err := attendance.History(context.Background(), usr.ID)
	if err != nil || len(history) == 0 {
		msg.Text = "No history found"
		return
	}
	if len(history) > 7 {
		history = history[:7]
	}
	text := "📅 *History*\n\n"
	for _, rec := range history {
		text += fmt.Sprintf("%s: %s\n", rec.Date, rec.Status)
	}
	msg.Text = text
}

// SendNotification sends a message to the admin chat
func SendNotification(message string) {
	if bot == nil || adminChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(adminChatID, message)
	msg.ParseMode = "Markdown"
	if _, err := bot.Send(msg); err != nil {
		log.Printf("Bot send error: %v", err)
	}
}

// SendPersonalNotification sends a message to a specific chat
func SendPersonalNotification(chatID int64, message string) {
	if bot == nil || chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(chatID, message)
	msg.ParseMode = "Markdown"
	if _, err := bot.Send(msg); err != nil {
		log.Printf("Bot send error: %v", err)
	}
}
