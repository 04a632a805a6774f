package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123:abc"

type sentMessage struct {
	ChatID string
	Text   string
}

type fakeTelegramServer struct {
	server     *httptest.Server
	getMeDelay time.Duration
	updates    string
	served     atomic.Bool
	getMeCalls atomic.Int32
	mu         sync.Mutex
	sent       []sentMessage
}

func newFakeTelegramServer(t *testing.T, updates string, getMeDelay time.Duration) *fakeTelegramServer {
	t.Helper()
	f := &fakeTelegramServer{updates: updates, getMeDelay: getMeDelay}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTelegramServer) endpoint() string {
	return f.server.URL + "/bot%s/%s"
}

func (f *fakeTelegramServer) handle(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		f.getMeCalls.Add(1)
		if f.getMeDelay > 0 {
			select {
			case <-time.After(f.getMeDelay):
			case <-r.Context().Done():
				return
			}
		}
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Studocu","username":"studocu_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		if !f.served.Swap(true) {
			w.Write([]byte(`{"ok":true,"result":` + f.updates + `}`))
			return
		}
		select {
		case <-time.After(100 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.Write([]byte(`{"ok":true,"result":[]}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		f.mu.Lock()
		f.sent = append(f.sent, sentMessage{ChatID: r.PostForm.Get("chat_id"), Text: r.PostForm.Get("text")})
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":` + r.PostForm.Get("chat_id") + `,"type":"private"}}}`))
	default:
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func (f *fakeTelegramServer) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeTelegramServer) sentTo(chatID string) []sentMessage {
	var result []sentMessage
	for _, message := range f.messages() {
		if message.ChatID == chatID {
			result = append(result, message)
		}
	}
	return result
}

func newTestTelegramBot(t *testing.T, endpoint string, adminChatIDs []int64) *TelegramBot {
	t.Helper()
	db := setupTestDB(t)
	logger, _ := logtest.NewNullLogger()
	config := &Config{
		TelegramBotToken:          testBotToken,
		TelegramAdminChatIDs:      adminChatIDs,
		LoginAttemptRetentionDays: 30,
	}
	bot := NewTelegramBot(config, db, NewCleanupScheduler(db, config, logger), logger)
	bot.apiEndpoint = endpoint
	return bot
}

const commandUpdates = `[
	{"update_id":1,"message":{"message_id":10,"date":0,"chat":{"id":555,"type":"private"},"from":{"id":7,"is_bot":false,"first_name":"Alice","username":"alice"},"text":"/start","entities":[{"type":"bot_command","offset":0,"length":6}]}},
	{"update_id":2,"message":{"message_id":11,"date":0,"chat":{"id":556,"type":"private"},"from":{"id":8,"is_bot":false,"first_name":"Bob","username":"bob"},"text":"hello there"}}
]`

func TestTelegramBot_Run(t *testing.T) {
	fake := newFakeTelegramServer(t, commandUpdates, 0)
	bot := newTestTelegramBot(t, fake.endpoint(), []int64{99})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- bot.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(fake.sentTo("99")) == 1 && len(fake.sentTo("555")) == 1
	}, 5*time.Second, 20*time.Millisecond)

	assert.Contains(t, fake.sentTo("99")[0].Text, "@studocu_bot started")
	assert.Contains(t, fake.sentTo("555")[0].Text, "Welcome")
	assert.True(t, bot.dbService.ChatExists(555))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.Empty(t, fake.sentTo("556"))
}

func TestTelegramBot_Run_CancelledWhileConnecting(t *testing.T) {
	fake := newFakeTelegramServer(t, `[]`, 3*time.Second)
	bot := newTestTelegramBot(t, fake.endpoint(), []int64{99})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for fake.getMeCalls.Load() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	started := time.Now()
	err := bot.Run(ctx)

	assert.NoError(t, err)
	assert.Less(t, time.Since(started), time.Second)
	assert.Empty(t, fake.messages())
	assert.Nil(t, bot.bot)
}

func TestTelegramBot_Run_AlreadyCancelled(t *testing.T) {
	fake := newFakeTelegramServer(t, `[]`, 0)
	bot := newTestTelegramBot(t, fake.endpoint(), []int64{99})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, bot.Run(ctx))
	assert.Equal(t, int32(0), fake.getMeCalls.Load())
	assert.Empty(t, fake.messages())
}

func TestTelegramBot_Run_ConnectFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer server.Close()
	bot := newTestTelegramBot(t, server.URL+"/bot%s/%s", nil)

	err := bot.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create telegram bot")
}

func TestTelegramBot_Listen(t *testing.T) {
	bot := newTestTelegramBot(t, tgbotapi.APIEndpoint, nil)

	t.Run("ClosedChannel", func(t *testing.T) {
		updates := make(chan tgbotapi.Update)
		close(updates)

		err := bot.listen(context.Background(), updates)
		assert.EqualError(t, err, "telegram update channel closed")
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.NoError(t, bot.listen(ctx, make(chan tgbotapi.Update)))
	})

	t.Run("IgnoresNonCommands", func(t *testing.T) {
		updates := make(chan tgbotapi.Update, 2)
		updates <- tgbotapi.Update{UpdateID: 1}
		updates <- tgbotapi.Update{UpdateID: 2, Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}}}
		close(updates)

		// no api client is set, so any reply attempt would panic
		assert.NotPanics(t, func() {
			bot.listen(context.Background(), updates)
		})
	})
}
