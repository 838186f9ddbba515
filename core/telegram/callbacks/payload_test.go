package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		unique  string
		payload string
	}{
		{"key_and_payload", "\\fclaim_reward|3", "claim_reward", "3"},
		{"key_only", "\\fadmin_panel", "admin_panel", ""},
		{"no_prefix", "mark_join|1", "mark_join", "1"},
		{"empty", "", "", ""},
		{"payload_with_separator", "\\fstep_setup|2|https://t.me/x", "step_setup", "2|https://t.me/x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unique, payload := ParseCallbackData(&tele.Callback{Data: tc.data})
			if unique != tc.unique || payload != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", unique, payload, tc.unique, tc.payload)
			}
		})
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	unique, payload := ParseCallbackData(nil)
	if unique != "" || payload != "" {
		t.Fatal("nil callback must parse to empty strings")
	}
}
