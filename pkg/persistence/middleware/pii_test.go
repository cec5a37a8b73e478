package middleware_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/palaver/pkg/adapters/memory"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	// Setup
	underlyingStore := memory.NewStore()
	// Mask card numbers and email addresses
	mw := middleware.NewPIIMiddleware([]string{`\b(?:\d[ -]?){13,16}\b`, `[\w.+-]+@[\w-]+\.[\w.]+`})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	session := newSession("pii-session")
	session.State = session.State.Append(domain.UserMessage("mail me at jdoe@example.com"))

	// 1. Save
	if err := secureStore.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Verify In-Memory State is NOT MODIFIED (Immutability check)
	if !strings.Contains(session.State.History[0].Content, "4111") {
		t.Error("Middleware modified original state in memory!")
	}

	// 2. Load from Underlying Store (Should be masked)
	stored, err := underlyingStore.Load(ctx, session.ID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	if got := stored.State.History[0].Content; got != "my card is ***" {
		t.Errorf("Card number should be masked, got: %q", got)
	}
	if got := stored.State.History[1].Content; got != "Noted." {
		t.Errorf("Plain reply shouldn't be masked, got: %q", got)
	}
	if got := stored.State.History[2].Content; got != "mail me at ***" {
		t.Errorf("Email should be masked, got: %q", got)
	}
	if stored.State.ThreadID != "t1" || stored.State.Pending.Peek() != "follow up" {
		t.Errorf("Thread and pending input should pass through, got %+v", stored.State)
	}
}

func TestChain_Order(t *testing.T) {
	underlyingStore := memory.NewStore()
	key := make([]byte, 32)
	store := middleware.Chain(underlyingStore,
		middleware.NewPIIMiddleware([]string{`secret`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	session := newSession("chain")
	session.State = session.State.Append(domain.UserMessage("the secret word"))
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}

	// Masking runs before sealing, so decrypting yields masked text.
	loaded, err := store.Load(ctx, "chain")
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.State.History[2].Content; got != "the *** word" {
		t.Errorf("Expected masked text behind encryption, got %q", got)
	}
}
