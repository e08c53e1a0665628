package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Message is an incoming chat message.
type Message struct {
	ChatID    string
	UserID    string
	Username  string
	FirstName string
	LastName  string
	Text      string
}

// CommandHandler is called when a user command is received. A non-empty
// reply is sent back to the originating chat.
type CommandHandler func(ctx context.Context, msg Message) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From *struct {
			ID        int64  `json:"id"`
			Username  string `json:"username"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"from"`
	} `json:"message"`
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		updates, err := t.poll(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("[INFO] Telegram polling stopped")
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			msg, ok := update.message()
			if !ok {
				continue
			}
			log.Printf("[INFO] received command from %s: %s", msg.UserID, msg.Text)
			reply := handler(ctx, msg)
			if reply != "" {
				if err := t.SendTo(ctx, msg.ChatID, reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
}

func (t *TelegramNotifier) poll(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.method("getUpdates"), offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create polling request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read polling response: %w", err)
	}

	var result struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode polling response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram getUpdates not ok: status %d", resp.StatusCode)
	}
	return result.Result, nil
}

func (u telegramUpdate) message() (Message, bool) {
	if u.Message == nil {
		return Message{}, false
	}
	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return Message{}, false
	}
	msg := Message{
		ChatID: strconv.FormatInt(u.Message.Chat.ID, 10),
		Text:   text,
	}
	msg.UserID = msg.ChatID
	if u.Message.From != nil {
		msg.UserID = strconv.FormatInt(u.Message.From.ID, 10)
		msg.Username = u.Message.From.Username
		msg.FirstName = u.Message.From.FirstName
		msg.LastName = u.Message.From.LastName
	}
	return msg, true
}
