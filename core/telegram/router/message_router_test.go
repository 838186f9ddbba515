package router

import (
	"context"
	"sync/atomic"
	"testing"

	tg "gatebot/core/telegram"
	"gatebot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

var nextUpdateID atomic.Int32

// textContext is a minimal tele.Context for driving the text route in
// tests. Unimplemented methods panic via the embedded nil interface.
type textContext struct {
	tele.Context

	updateID int
	sender   *tele.User
	text     string
	kv       map[string]interface{}
	sent     []interface{}
}

func newTextContext(userID int64, text string) *textContext {
	return &textContext{
		updateID: int(nextUpdateID.Add(1)),
		sender:   &tele.User{ID: userID},
		text:     text,
		kv:       make(map[string]interface{}),
	}
}

func (c *textContext) Update() tele.Update {
	return tele.Update{ID: c.updateID, Message: &tele.Message{Text: c.text}}
}

func (c *textContext) Sender() *tele.User       { return c.sender }
func (c *textContext) Chat() *tele.Chat         { return &tele.Chat{ID: c.sender.ID, Type: tele.ChatPrivate} }
func (c *textContext) Callback() *tele.Callback { return nil }
func (c *textContext) Message() *tele.Message   { return &tele.Message{Text: c.text} }
func (c *textContext) Text() string             { return c.text }

func (c *textContext) Get(key string) interface{}      { return c.kv[key] }
func (c *textContext) Set(key string, val interface{}) { c.kv[key] = val }

func (c *textContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *textContext) Respond(resp ...*tele.CallbackResponse) error { return nil }

func textHandler(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no OnText route")
	return nil
}

func TestBareTextDispatchesCommand(t *testing.T) {
	reg := tg.NewRegistry()
	var invoked int
	reg.RegisterCommand("/start", commands.Command{
		Handler:     func(c tele.Context) error { invoked++; return nil },
		Description: "start",
	})

	h := textHandler(t, TextRoutes(nil, reg, TextOptions{}))
	if err := h(newTextContext(100, "start")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if invoked != 1 {
		t.Fatalf("handler invoked %d times, want 1", invoked)
	}
}

func TestBareTextAdminCommandGated(t *testing.T) {
	reg := tg.NewRegistry()
	var invoked int
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     func(c tele.Context) error { invoked++; return nil },
		Description: "admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})

	var rejected int
	h := textHandler(t, TextRoutes(nil, reg, TextOptions{
		IsAdmin:       func(_ context.Context, id int64) bool { return id == 42 },
		OnAdminReject: func(c tele.Context) error { rejected++; return nil },
	}))

	if err := h(newTextContext(555, "admin")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if invoked != 0 {
		t.Fatal("admin-only handler ran for non-admin bare text")
	}
	if rejected != 1 {
		t.Fatalf("rejected %d times, want 1", rejected)
	}

	if err := h(newTextContext(42, "admin")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if invoked != 1 {
		t.Fatal("admin-only handler did not run for the admin")
	}
	if rejected != 1 {
		t.Fatal("admin invocation was rejected")
	}
}

func TestBareTextAdminCommandDeniedWithoutChecker(t *testing.T) {
	reg := tg.NewRegistry()
	var invoked int
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     func(c tele.Context) error { invoked++; return nil },
		Description: "admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})

	h := textHandler(t, TextRoutes(nil, reg, TextOptions{}))
	if err := h(newTextContext(555, "admin")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if invoked != 0 {
		t.Fatal("admin-only handler ran with no admin check configured")
	}
}
