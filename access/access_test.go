package access

import (
	"context"
	"errors"
	"testing"
)

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f *fakeSettings) Get(_ context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func TestStaticAdminID(t *testing.T) {
	c := NewChecker(42, &fakeSettings{})
	if !c.IsAdmin(context.Background(), 42) {
		t.Fatal("static id must grant admin")
	}
	if c.IsAdmin(context.Background(), 43) {
		t.Fatal("other ids must be denied")
	}
}

func TestPersistedOverride(t *testing.T) {
	c := NewChecker(0, &fakeSettings{values: map[string]string{SettingAdminID: "77"}})
	if !c.IsAdmin(context.Background(), 77) {
		t.Fatal("persisted admin_id must grant admin")
	}
	if c.IsAdmin(context.Background(), 78) {
		t.Fatal("other ids must be denied")
	}
}

func TestMalformedSettingDeniesQuietly(t *testing.T) {
	c := NewChecker(0, &fakeSettings{values: map[string]string{SettingAdminID: "not-a-number"}})
	if c.IsAdmin(context.Background(), 1) {
		t.Fatal("malformed value must mean not admin")
	}
}

func TestSettingsErrorDenies(t *testing.T) {
	c := NewChecker(0, &fakeSettings{err: errors.New("db down")})
	if c.IsAdmin(context.Background(), 1) {
		t.Fatal("settings failure must mean not admin")
	}
}

func TestMissingSettingDenies(t *testing.T) {
	c := NewChecker(0, &fakeSettings{values: map[string]string{}})
	if c.IsAdmin(context.Background(), 1) {
		t.Fatal("missing setting must mean not admin")
	}
}
