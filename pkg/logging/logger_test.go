package logging

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestNewLoggerWithServiceStampsField(t *testing.T) {
	l := NewLoggerWithService("apology")
	hook := test.NewLocal(l)

	l.WithField("k", "v").Info("hello")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("expected an entry")
	}
	if entry.Data["service"] != "apology" {
		t.Fatalf("expected service field, got %v", entry.Data["service"])
	}
	if entry.Data["k"] != "v" {
		t.Fatalf("expected k=v, got %v", entry.Data["k"])
	}
}
