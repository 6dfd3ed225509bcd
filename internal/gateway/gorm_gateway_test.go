package gateway

import (
	"context"
	"fmt"
	"testing"

	"chatrelay-be/internal/entity"
	"chatrelay-be/internal/model"
	"chatrelay-be/internal/pkg/logger"
	"chatrelay-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestGateway(t *testing.T) (*GormGateway, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewSQLiteDB(dsn, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return NewGormGateway(db, logger.NewNopLogger()), db
}

func TestUserProfiles(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.GetUserProfile(ctx, "user-1")
	assert.True(t, IsKind(err, KindNotFound))

	profile, err := gw.EnsureUserProfile(ctx, "user-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	// Second ensure must not overwrite the stored username.
	profile, err = gw.EnsureUserProfile(ctx, "user-1", "someone-else")
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	require.NoError(t, gw.UpdateUserProfile(ctx, &entity.UserProfile{Id: "user-1", Username: "alice2"}))
	profile, err = gw.GetUserProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", profile.Username)

	err = gw.UpdateUserProfile(ctx, &entity.UserProfile{Id: "missing", Username: "x"})
	assert.True(t, IsKind(err, KindNotFound))

	_, err = gw.CreateUserProfile(ctx, "", "bob")
	assert.True(t, IsKind(err, KindNotAuthenticated))
}

func TestChatbotUpsertAndList(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	settings := &entity.ChatbotSettings{WebhookUrl: "https://hooks.example.com/a", MessageKey: "m"}
	id, err := gw.CreateChatbot(ctx, "user-1", &entity.Chatbot{Id: "user-1_assistant", Name: "Assistant", Settings: settings})
	require.NoError(t, err)
	assert.Equal(t, "user-1_assistant", id)

	_, err = gw.CreateChatbot(ctx, "user-1", &entity.Chatbot{Id: "user-1_coder", Name: "Coder"})
	require.NoError(t, err)

	// Writing an existing id updates in place.
	_, err = gw.CreateChatbot(ctx, "user-1", &entity.Chatbot{Id: "user-1_assistant", Name: "Helper", Settings: settings})
	require.NoError(t, err)

	_, err = gw.CreateChatbot(ctx, "user-2", &entity.Chatbot{Id: "user-2_assistant", Name: "Assistant"})
	require.NoError(t, err)

	bots, err := gw.ListChatbots(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, bots, 2)
	assert.Equal(t, "Helper", bots[0].Name)
	require.NotNil(t, bots[0].Settings)
	assert.Equal(t, "https://hooks.example.com/a", bots[0].Settings.WebhookUrl)
	assert.Equal(t, "m", bots[0].Settings.MessageKey)
	assert.Nil(t, bots[1].Settings)
	assert.Empty(t, bots[1].Sessions)
}

func TestDeleteChatbotCascades(t *testing.T) {
	gw, db := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.CreateChatbot(ctx, "user-1", &entity.Chatbot{Id: "bot-a", Name: "A"})
	require.NoError(t, err)
	_, err = gw.CreateChatbot(ctx, "user-1", &entity.Chatbot{Id: "bot-b", Name: "B"})
	require.NoError(t, err)

	for _, bot := range []string{"bot-a", "bot-b"} {
		sessionId := bot + "-s1"
		_, err = gw.CreateSession(ctx, bot, &entity.ChatSession{Id: sessionId, Name: "Chat 1", ThreadId: "t"})
		require.NoError(t, err)
		_, err = gw.CreateMessage(ctx, sessionId, &entity.ChatMessage{Id: bot + "-m1", Role: entity.RoleUser, Content: "hi", Timestamp: entity.NowTimestamp()})
		require.NoError(t, err)
	}

	require.NoError(t, gw.DeleteChatbot(ctx, "bot-a"))

	var sessions, messages, bots int64
	db.Model(&model.Chatbot{}).Count(&bots)
	db.Model(&model.ChatSession{}).Count(&sessions)
	db.Model(&model.ChatMessage{}).Count(&messages)
	assert.Equal(t, int64(1), bots)
	assert.Equal(t, int64(1), sessions)
	assert.Equal(t, int64(1), messages)

	remaining, err := gw.ListChatbots(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "bot-b", remaining[0].Id)
	require.Len(t, remaining[0].Sessions, 1)
	assert.Len(t, remaining[0].Sessions[0].Messages, 1)
}

func TestSessionThreadIdNeverChanges(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.CreateSession(ctx, "bot-a", &entity.ChatSession{Id: "s1", Name: "Chat 1", ThreadId: "alice_s1"})
	require.NoError(t, err)

	require.NoError(t, gw.UpdateSession(ctx, "bot-a", &entity.ChatSession{Id: "s1", Name: "Renamed", ThreadId: "other"}))

	sessions, err := gw.ListSessions(ctx, "bot-a")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Renamed", sessions[0].Name)
	assert.Equal(t, "alice_s1", sessions[0].ThreadId)
}

func TestCreateSessionDefaultsAndNestedMessages(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.CreateSession(ctx, "bot-a", &entity.ChatSession{
		Id: "s1",
		Messages: []*entity.ChatMessage{
			{Id: "m1", Role: entity.RoleUser, Content: "hello", Timestamp: "2024-01-01T00:00:00.000Z"},
			{Id: "m2", Role: entity.RoleAssistant, Content: "hi there", Timestamp: "2024-01-01T00:00:01.000Z"},
		},
	})
	require.NoError(t, err)

	sessions, err := gw.ListSessions(ctx, "bot-a")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Regexp(t, `^Chat \d+$`, sessions[0].Name)
	assert.Regexp(t, `^thread_\d+$`, sessions[0].ThreadId)
	require.Len(t, sessions[0].Messages, 2)
	assert.Equal(t, "m1", sessions[0].Messages[0].Id)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", sessions[0].Messages[0].Timestamp)
}

func TestCreateMessageIsIdempotent(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	msg := &entity.ChatMessage{Id: "m1", Role: entity.RoleUser, Content: "hi", Timestamp: entity.NowTimestamp()}
	for i := 0; i < 2; i++ {
		id, err := gw.CreateMessage(ctx, "s1", msg)
		require.NoError(t, err)
		assert.Equal(t, "m1", id)
	}

	messages, err := gw.ListMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestMessagesComeBackInSendOrder(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	stamps := map[string]string{
		"m3": "2024-01-01T00:00:03.000Z",
		"m1": "2024-01-01T00:00:01.000Z",
		"m2": "2024-01-01T00:00:02.000Z",
	}
	for _, id := range []string{"m3", "m1", "m2"} {
		_, err := gw.CreateMessage(ctx, "s1", &entity.ChatMessage{Id: id, Role: entity.RoleUser, Content: id, Timestamp: stamps[id]})
		require.NoError(t, err)
	}

	messages, err := gw.ListMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{messages[0].Id, messages[1].Id, messages[2].Id})
}

func TestLocalValidation(t *testing.T) {
	gw, _ := newTestGateway(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		call   func() error
		kind   Kind
		reason string
	}{
		{
			name: "chatbot without user",
			call: func() error {
				_, err := gw.CreateChatbot(ctx, "", &entity.Chatbot{Id: "b", Name: "B"})
				return err
			},
			kind:   KindNotAuthenticated,
			reason: "User not authenticated",
		},
		{
			name: "session without chatbot",
			call: func() error {
				_, err := gw.CreateSession(ctx, "", &entity.ChatSession{Id: "s"})
				return err
			},
			kind:   KindValidation,
			reason: "Missing chatbot ID",
		},
		{
			name: "session without id",
			call: func() error {
				_, err := gw.CreateSession(ctx, "b", &entity.ChatSession{})
				return err
			},
			kind:   KindValidation,
			reason: "Missing session ID",
		},
		{
			name: "message without id",
			call: func() error {
				_, err := gw.CreateMessage(ctx, "s", &entity.ChatMessage{Role: "user", Content: "x"})
				return err
			},
			kind:   KindValidation,
			reason: "Missing message ID",
		},
		{
			name: "message without role",
			call: func() error {
				_, err := gw.CreateMessage(ctx, "s", &entity.ChatMessage{Id: "m", Content: "x"})
				return err
			},
			kind:   KindValidation,
			reason: "Missing message role",
		},
		{
			name: "message without content",
			call: func() error {
				_, err := gw.CreateMessage(ctx, "s", &entity.ChatMessage{Id: "m", Role: "user"})
				return err
			},
			kind:   KindValidation,
			reason: "Missing message content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.reason, err.Error())
			assert.Equal(t, Result{Success: false, Error: tt.reason}, ResultOf(err))
		})
	}
}

func TestCheckHealth(t *testing.T) {
	gw, db := newTestGateway(t)
	ctx := context.Background()

	report := gw.CheckHealth(ctx)
	assert.True(t, report.Success)
	assert.Len(t, report.Tables, len(Tables))
	for name, table := range report.Tables {
		assert.True(t, table.Exists, name)
		assert.True(t, table.CanRead, name)
		assert.True(t, table.CanWrite, name)
	}

	require.NoError(t, db.Migrator().DropTable("chat_messages"))

	report = gw.CheckHealth(ctx)
	assert.False(t, report.Success)
	assert.False(t, report.Summary.AllTablesExist)
	assert.False(t, report.Tables["chat_messages"].Exists)
	assert.True(t, report.Tables["chatbots"].CanWrite)
}

func TestStoreErrorsBecomeFailures(t *testing.T) {
	gw, db := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, db.Migrator().DropTable("chatbots"))

	_, err := gw.ListChatbots(ctx, "user-1")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "ListChatbots", f.Op)
}
