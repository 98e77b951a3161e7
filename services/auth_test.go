package services

import (
	"errors"
	"testing"
)

func TestAuthEvents_SubscribeUnsubscribe(t *testing.T) {
	e := NewAuthEvents()
	var got []string
	unsubA := e.Subscribe(func(ev AuthEvent) { got = append(got, "a:"+string(ev.Kind)) })
	unsubB := e.Subscribe(func(ev AuthEvent) { got = append(got, "b:"+string(ev.Kind)) })

	e.Publish(AuthEvent{Kind: AuthSignedIn, Email: "chef@example.com"})
	if len(got) != 2 || got[0] != "a:signed_in" || got[1] != "b:signed_in" {
		t.Fatalf("got %v", got)
	}

	unsubA()
	unsubA()
	if e.Len() != 1 {
		t.Errorf("Len = %d, want 1", e.Len())
	}
	got = nil
	e.Publish(AuthEvent{Kind: AuthSignedOut})
	if len(got) != 1 || got[0] != "b:signed_out" {
		t.Errorf("after unsubscribe got %v", got)
	}

	unsubB()
	got = nil
	e.Publish(AuthEvent{Kind: AuthSignedIn})
	if len(got) != 0 || e.Len() != 0 {
		t.Errorf("handlers still called: %v", got)
	}
}

func TestAuthEvents_UnsubscribeDuringPublish(t *testing.T) {
	e := NewAuthEvents()
	calls := 0
	var unsub func()
	unsub = e.Subscribe(func(AuthEvent) {
		calls++
		unsub()
	})
	e.Publish(AuthEvent{Kind: AuthSignedIn})
	e.Publish(AuthEvent{Kind: AuthSignedIn})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		email, password string
		ok              bool
	}{
		{"chef@example.com", "longenough", true},
		{"  Chef@Example.com ", "longenough", true},
		{"chef", "longenough", false},
		{"@example.com", "longenough", false},
		{"chef@", "longenough", false},
		{"chef@example.com", "short", false},
	}
	for _, tt := range tests {
		err := ValidateCredentials(tt.email, tt.password)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateCredentials(%q, %q) = %v, want ok=%v", tt.email, tt.password, err, tt.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidInput) {
			t.Errorf("error %v should wrap ErrInvalidInput", err)
		}
	}
}

func TestGeneratePassword(t *testing.T) {
	for _, n := range []int{0, 8, AdminPasswordLen, 32} {
		p, err := GeneratePassword(n)
		if err != nil {
			t.Fatal(err)
		}
		want := n
		if want < minPasswordLen {
			want = minPasswordLen
		}
		if len(p) != want {
			t.Errorf("len = %d, want %d", len(p), want)
		}
		var upper, lower, digit, symbol bool
		for _, r := range p {
			switch {
			case r >= 'A' && r <= 'Z':
				upper = true
			case r >= 'a' && r <= 'z':
				lower = true
			case r >= '0' && r <= '9':
				digit = true
			default:
				symbol = true
			}
		}
		if !upper || !lower || !digit || !symbol {
			t.Errorf("password %q misses a character class", p)
		}
		if err := ValidateCredentials("a@b.c", p); err != nil {
			t.Errorf("generated password rejected: %v", err)
		}
	}
}
