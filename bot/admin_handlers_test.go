package bot

import (
	"strings"
	"testing"

	"gatebot/access"
	"gatebot/bot/dialog"
	"gatebot/engine"
	"gatebot/progress"
	"gatebot/steps"

	tele "gopkg.in/telebot.v4"
)

const testAdminID = 7

func newTestApp() *App {
	tracker := progress.NewTracker(nil, nil)
	registry := steps.NewRegistry(nil)
	checker := access.NewChecker(testAdminID, nil)
	return &App{
		steps:   registry,
		engine:  engine.New(tracker, registry, checker),
		dialogs: dialog.NewManager(),
	}
}

// adminContext is a minimal tele.Context for exercising admin handlers.
type adminContext struct {
	tele.Context

	sender   *tele.User
	callback *tele.Callback
	text     string
	kv       map[string]interface{}

	sent      []interface{}
	responses []*tele.CallbackResponse
}

func newAdminContext(userID int64, text string) *adminContext {
	return &adminContext{
		sender: &tele.User{ID: userID},
		text:   text,
		kv:     make(map[string]interface{}),
	}
}

func (c *adminContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: &tele.Message{Text: c.text}}
}

func (c *adminContext) Sender() *tele.User       { return c.sender }
func (c *adminContext) Chat() *tele.Chat         { return &tele.Chat{ID: c.sender.ID} }
func (c *adminContext) Callback() *tele.Callback { return c.callback }
func (c *adminContext) Message() *tele.Message   { return &tele.Message{Text: c.text} }
func (c *adminContext) Text() string             { return c.text }

func (c *adminContext) Get(key string) interface{}      { return c.kv[key] }
func (c *adminContext) Set(key string, val interface{}) { c.kv[key] = val }

func (c *adminContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *adminContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	c.responses = append(c.responses, resp...)
	return nil
}

func sentText(t *testing.T, c *adminContext, i int) string {
	t.Helper()
	if len(c.sent) <= i {
		t.Fatalf("sent %d messages, want at least %d", len(c.sent), i+1)
	}
	s, ok := c.sent[i].(string)
	if !ok {
		t.Fatalf("sent[%d] = %T, want string", i, c.sent[i])
	}
	return s
}

func TestAdminPanelRefusesNonAdminMessage(t *testing.T) {
	a := newTestApp()
	c := newAdminContext(555, "admin")

	if err := a.handleAdminPanel(c); err != nil {
		t.Fatalf("handleAdminPanel: %v", err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(c.sent))
	}
	if got := sentText(t, c, 0); got != "Not allowed" {
		t.Fatalf("got %q, want denial", got)
	}
}

func TestAdminPanelRefusesNonAdminCallback(t *testing.T) {
	a := newTestApp()
	c := newAdminContext(555, "")
	c.callback = &tele.Callback{Unique: engine.CbAdminPanel}

	if err := a.handleAdminPanel(c); err != nil {
		t.Fatalf("handleAdminPanel: %v", err)
	}
	if len(c.sent) != 0 {
		t.Fatalf("sent %d messages, want 0", len(c.sent))
	}
	if len(c.responses) != 1 || c.responses[0].Text != "Not allowed" {
		t.Fatalf("responses = %+v, want one denial toast", c.responses)
	}
}

func TestAdminPanelShownToAdmin(t *testing.T) {
	a := newTestApp()
	c := newAdminContext(testAdminID, "admin")

	if err := a.handleAdminPanel(c); err != nil {
		t.Fatalf("handleAdminPanel: %v", err)
	}
	if got := sentText(t, c, 0); !strings.Contains(got, "Admin Panel") {
		t.Fatalf("got %q, want the panel menu", got)
	}
}

func TestAdminCallbacksRefuseNonAdmin(t *testing.T) {
	a := newTestApp()
	handlers := map[string]tele.HandlerFunc{
		cbAdminSetup:    a.handleAdminSetup,
		cbAdminSteps:    a.handleAdminSteps,
		cbAdminUsers:    a.handleAdminUsers,
		cbAdminStats:    a.handleAdminStats,
		cbAdminReset:    a.handleAdminReset,
		cbAdminAddVideo: a.handleAdminAddVideo,
		cbAdminCancel:   a.handleAdminCancel,
	}

	for key, h := range handlers {
		c := newAdminContext(555, "")
		c.callback = &tele.Callback{Unique: key}
		if err := h(c); err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if len(c.sent) != 0 {
			t.Fatalf("%s: sent %d messages, want 0", key, len(c.sent))
		}
		if len(c.responses) != 1 || c.responses[0].Text != "Not allowed" {
			t.Fatalf("%s: responses = %+v, want one denial toast", key, c.responses)
		}
		if a.dialogs.InProgress(555) {
			t.Fatalf("%s: dialogue started for non-admin", key)
		}
	}
}

func TestAddVideoCommandRefusesNonAdmin(t *testing.T) {
	a := newTestApp()
	c := newAdminContext(555, "/addvideo 1")

	if err := a.handleAddVideoCommand(c); err != nil {
		t.Fatalf("handleAddVideoCommand: %v", err)
	}
	if len(c.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(c.sent))
	}
	if got := sentText(t, c, 0); got != "Not allowed" {
		t.Fatalf("got %q, want denial", got)
	}
}
