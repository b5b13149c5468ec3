package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BrandonDHaskell/huella/internal/biometric/service"
	"github.com/BrandonDHaskell/huella/internal/biometric/store"
	"github.com/BrandonDHaskell/huella/internal/biometric/store/memory"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
)

// newTestAccessService builds an AccessService backed by in-memory stores,
// returning the service, the log store and the captured warn logs.
func newTestAccessService(identities ...store.Identity) (*service.AccessService, *memory.AccessLogStore, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	logStore := memory.NewAccessLogStore()
	svc := service.NewAccessService(service.AccessDeps{
		Directory: service.NewIdentityDirectory(memory.NewIdentityLookup(identities...)),
		Logs:      logStore,
		Clock:     clockwork.NewFakeClockAt(t0),
		Logger:    zap.New(core).Sugar(),
	})
	return svc, logStore, logs
}

var ana = store.Identity{ID: 7, ExternalID: "EMP001", DisplayName: "Ana"}

// ── Identity resolution ─────────────────────────────────────────────────────

func TestRecord_ByInternalID(t *testing.T) {
	svc, ls, _ := newTestAccessService(ana)

	if !svc.Record(context.Background(), types.AccessLogRequest{
		UserID: types.IdentityRef{InternalID: 7},
		Status: "granted",
	}) {
		t.Fatal("expected recorded=true")
	}

	entries := ls.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.IdentityID == nil || *e.IdentityID != 7 {
		t.Errorf("identity = %v, want 7", e.IdentityID)
	}
	if e.Status != "granted" || e.Method != "fingerprint" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if !e.At.Equal(t0) {
		t.Errorf("at = %v, want %v", e.At, t0)
	}
}

func TestRecord_ByExternalID(t *testing.T) {
	svc, ls, _ := newTestAccessService(ana)

	svc.Record(context.Background(), types.AccessLogRequest{
		UserID: types.IdentityRef{ExternalID: " EMP001 "},
		Status: "granted",
		Method: "pin",
	})

	e := ls.Entries()[0]
	if e.IdentityID == nil || *e.IdentityID != 7 {
		t.Errorf("identity = %v, want 7", e.IdentityID)
	}
	if e.Method != "pin" {
		t.Errorf("method = %q, want pin", e.Method)
	}
}

func TestRecord_UnknownIdentityIsNull(t *testing.T) {
	svc, ls, _ := newTestAccessService(ana)

	for _, ref := range []types.IdentityRef{{}, {InternalID: 99}, {ExternalID: "EMP404"}} {
		if !svc.Record(context.Background(), types.AccessLogRequest{UserID: ref, Status: "denied"}) {
			t.Errorf("ref %v: expected recorded=true", ref)
		}
	}

	for i, e := range ls.Entries() {
		if e.IdentityID != nil {
			t.Errorf("entry %d: expected null identity, got %d", i, *e.IdentityID)
		}
	}
}

// ── Defaults ────────────────────────────────────────────────────────────────

func TestRecord_Defaults(t *testing.T) {
	svc, ls, _ := newTestAccessService()

	svc.Record(context.Background(), types.AccessLogRequest{})

	e := ls.Entries()[0]
	if e.Status != "failed" {
		t.Errorf("status = %q, want failed", e.Status)
	}
	if e.Method != "fingerprint" {
		t.Errorf("method = %q, want fingerprint", e.Method)
	}
}

func TestRecord_TruncatesLongTags(t *testing.T) {
	svc, ls, _ := newTestAccessService()

	svc.Record(context.Background(), types.AccessLogRequest{Status: strings.Repeat("x", 64)})

	if got := ls.Entries()[0].Status; len(got) != 20 {
		t.Errorf("status length = %d, want 20", len(got))
	}
}

// ── Failure is swallowed ────────────────────────────────────────────────────

func TestRecord_StoreFailureIsLoggedNotRaised(t *testing.T) {
	svc, ls, logs := newTestAccessService(ana)
	ls.FailWith(errors.New("database unavailable"))

	if svc.Record(context.Background(), types.AccessLogRequest{Status: "granted"}) {
		t.Error("expected recorded=false when the store fails")
	}
	if logs.FilterMessage("access log write failed").Len() != 1 {
		t.Errorf("expected a warn log, got %v", logs.All())
	}
}

// ── Limit ───────────────────────────────────────────────────────────────────

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-1: 50, 0: 50, 1: 1, 50: 50, 500: 500, 501: 500, 10000: 500}
	for in, want := range cases {
		if got := service.ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
