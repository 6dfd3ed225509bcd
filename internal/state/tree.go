// Package state holds a user's chatbot tree as an immutable value.
//
// Every mutation returns a new *Tree. Only the nodes on the path from the
// root to the changed node are copied; all other chatbots, sessions and
// messages are shared with the previous tree. Entities reachable from a
// published Tree must never be modified in place.
package state

import (
	"chatrelay-be/internal/entity"
)

type Tree struct {
	Chatbots        []*entity.Chatbot
	ActiveChatbotId string
	ActiveSessionId string
	Initialized     bool
}

// Empty is the signed-out tree.
func Empty() *Tree {
	return &Tree{Chatbots: []*entity.Chatbot{}}
}

func (t *Tree) clone() *Tree {
	c := *t
	return &c
}

func (t *Tree) indexOf(chatbotId string) int {
	for i, b := range t.Chatbots {
		if b.Id == chatbotId {
			return i
		}
	}
	return -1
}

// withChatbotAt swaps in a replacement chatbot at index i.
func (t *Tree) withChatbotAt(i int, bot *entity.Chatbot) *Tree {
	next := t.clone()
	next.Chatbots = make([]*entity.Chatbot, len(t.Chatbots))
	copy(next.Chatbots, t.Chatbots)
	next.Chatbots[i] = bot
	return next
}

func cloneChatbot(b *entity.Chatbot) *entity.Chatbot {
	c := *b
	return &c
}

func cloneSession(s *entity.ChatSession) *entity.ChatSession {
	c := *s
	return &c
}

// Queries

func (t *Tree) FindChatbot(chatbotId string) *entity.Chatbot {
	if i := t.indexOf(chatbotId); i >= 0 {
		return t.Chatbots[i]
	}
	return nil
}

// FindSession looks a session up across every chatbot.
func (t *Tree) FindSession(sessionId string) (*entity.Chatbot, *entity.ChatSession) {
	for _, b := range t.Chatbots {
		if s := b.FindSession(sessionId); s != nil {
			return b, s
		}
	}
	return nil, nil
}

// ActiveChatbot is the chatbot matching ActiveChatbotId, or the first one
// when the id is unset or stale. It is nil only for an empty tree.
func (t *Tree) ActiveChatbot() *entity.Chatbot {
	if b := t.FindChatbot(t.ActiveChatbotId); b != nil {
		return b
	}
	if len(t.Chatbots) > 0 {
		return t.Chatbots[0]
	}
	return nil
}

func (t *Tree) ActiveSession() *entity.ChatSession {
	bot := t.ActiveChatbot()
	if bot == nil || t.ActiveSessionId == "" {
		return nil
	}
	return bot.FindSession(t.ActiveSessionId)
}

// Mutations

// WithChatbots installs a freshly loaded list and marks the tree initialized.
func (t *Tree) WithChatbots(chatbots []*entity.Chatbot) *Tree {
	next := t.clone()
	next.Chatbots = chatbots
	if next.Chatbots == nil {
		next.Chatbots = []*entity.Chatbot{}
	}
	next.Initialized = true
	return next
}

func (t *Tree) AppendChatbot(bot *entity.Chatbot) *Tree {
	next := t.clone()
	next.Chatbots = make([]*entity.Chatbot, len(t.Chatbots), len(t.Chatbots)+1)
	copy(next.Chatbots, t.Chatbots)
	next.Chatbots = append(next.Chatbots, bot)
	return next
}

// ReplaceChatbot swaps the chatbot with the same id. Unknown ids leave the
// tree unchanged.
func (t *Tree) ReplaceChatbot(bot *entity.Chatbot) *Tree {
	i := t.indexOf(bot.Id)
	if i < 0 {
		return t
	}
	return t.withChatbotAt(i, bot)
}

// RemoveChatbot drops a chatbot. Removing the active chatbot moves the
// selection to the first remaining one and clears the active session.
func (t *Tree) RemoveChatbot(chatbotId string) *Tree {
	i := t.indexOf(chatbotId)
	if i < 0 {
		return t
	}

	wasActive := t.ActiveChatbot() != nil && t.ActiveChatbot().Id == chatbotId

	next := t.clone()
	next.Chatbots = make([]*entity.Chatbot, 0, len(t.Chatbots)-1)
	next.Chatbots = append(next.Chatbots, t.Chatbots[:i]...)
	next.Chatbots = append(next.Chatbots, t.Chatbots[i+1:]...)

	if wasActive {
		next.ActiveChatbotId = ""
		if len(next.Chatbots) > 0 {
			next.ActiveChatbotId = next.Chatbots[0].Id
		}
		next.ActiveSessionId = ""
	}
	return next
}

func (t *Tree) RenameChatbot(chatbotId, name string) *Tree {
	i := t.indexOf(chatbotId)
	if i < 0 {
		return t
	}
	bot := cloneChatbot(t.Chatbots[i])
	bot.Name = name
	return t.withChatbotAt(i, bot)
}

func (t *Tree) SetChatbotSettings(chatbotId string, settings *entity.ChatbotSettings) *Tree {
	i := t.indexOf(chatbotId)
	if i < 0 {
		return t
	}
	bot := cloneChatbot(t.Chatbots[i])
	bot.Settings = settings
	return t.withChatbotAt(i, bot)
}

// ReplaceChatbotId swaps a placeholder id for the stored one, carrying the
// active selection along.
func (t *Tree) ReplaceChatbotId(oldId, newId string) *Tree {
	i := t.indexOf(oldId)
	if i < 0 || oldId == newId {
		return t
	}
	bot := cloneChatbot(t.Chatbots[i])
	bot.Id = newId
	sessions := make([]*entity.ChatSession, len(bot.Sessions))
	for j, s := range bot.Sessions {
		c := cloneSession(s)
		c.ChatbotId = newId
		sessions[j] = c
	}
	bot.Sessions = sessions

	next := t.withChatbotAt(i, bot)
	if next.ActiveChatbotId == oldId {
		next.ActiveChatbotId = newId
	}
	return next
}

func (t *Tree) AppendSession(chatbotId string, session *entity.ChatSession) *Tree {
	i := t.indexOf(chatbotId)
	if i < 0 {
		return t
	}
	bot := cloneChatbot(t.Chatbots[i])
	bot.Sessions = make([]*entity.ChatSession, len(t.Chatbots[i].Sessions), len(t.Chatbots[i].Sessions)+1)
	copy(bot.Sessions, t.Chatbots[i].Sessions)
	bot.Sessions = append(bot.Sessions, session)
	return t.withChatbotAt(i, bot)
}

// updateSession rewrites one session of one chatbot through fn.
func (t *Tree) updateSession(chatbotId, sessionId string, fn func(*entity.ChatSession) *entity.ChatSession) *Tree {
	i := t.indexOf(chatbotId)
	if i < 0 {
		return t
	}
	old := t.Chatbots[i]
	for j, s := range old.Sessions {
		if s.Id != sessionId {
			continue
		}
		bot := cloneChatbot(old)
		bot.Sessions = make([]*entity.ChatSession, len(old.Sessions))
		copy(bot.Sessions, old.Sessions)
		bot.Sessions[j] = fn(s)
		return t.withChatbotAt(i, bot)
	}
	return t
}

func (t *Tree) RenameSession(chatbotId, sessionId, name string) *Tree {
	return t.updateSession(chatbotId, sessionId, func(s *entity.ChatSession) *entity.ChatSession {
		c := cloneSession(s)
		c.Name = name
		return c
	})
}

func (t *Tree) ReplaceSessionId(chatbotId, oldId, newId string) *Tree {
	if oldId == newId {
		return t
	}
	next := t.updateSession(chatbotId, oldId, func(s *entity.ChatSession) *entity.ChatSession {
		c := cloneSession(s)
		c.Id = newId
		return c
	})
	if next != t && next.ActiveSessionId == oldId {
		next.ActiveSessionId = newId
	}
	return next
}

// RemoveSession drops a session, clearing the active session if it was the
// one removed.
func (t *Tree) RemoveSession(chatbotId, sessionId string) *Tree {
	i := t.indexOf(chatbotId)
	if i < 0 {
		return t
	}
	old := t.Chatbots[i]
	for j, s := range old.Sessions {
		if s.Id != sessionId {
			continue
		}
		bot := cloneChatbot(old)
		bot.Sessions = make([]*entity.ChatSession, 0, len(old.Sessions)-1)
		bot.Sessions = append(bot.Sessions, old.Sessions[:j]...)
		bot.Sessions = append(bot.Sessions, old.Sessions[j+1:]...)
		next := t.withChatbotAt(i, bot)
		if next.ActiveSessionId == sessionId {
			next.ActiveSessionId = ""
		}
		return next
	}
	return t
}

// AppendMessage adds a message to the session wherever it currently lives.
// The second result is false when no chatbot holds the session.
func (t *Tree) AppendMessage(sessionId string, msg *entity.ChatMessage) (*Tree, bool) {
	bot, _ := t.FindSession(sessionId)
	if bot == nil {
		return t, false
	}
	next := t.updateSession(bot.Id, sessionId, func(s *entity.ChatSession) *entity.ChatSession {
		c := cloneSession(s)
		c.Messages = make([]*entity.ChatMessage, len(s.Messages), len(s.Messages)+1)
		copy(c.Messages, s.Messages)
		c.Messages = append(c.Messages, msg)
		return c
	})
	return next, true
}

func (t *Tree) WithActive(chatbotId, sessionId string) *Tree {
	next := t.clone()
	next.ActiveChatbotId = chatbotId
	next.ActiveSessionId = sessionId
	return next
}

// Reset returns the signed-out tree: no chatbots, no selection, not
// initialized.
func (t *Tree) Reset() *Tree {
	return Empty()
}
