package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		accounts  []Account
		expectErr bool
	}{
		{
			name: "valid single account",
			accounts: []Account{
				{PlexUser: "alice", Username: "alice@example.com", Password: "secret"},
			},
		},
		{
			name: "valid multiple accounts",
			accounts: []Account{
				{PlexUser: "alice", Username: "alice@example.com", Password: "secret"},
				{PlexUser: "bob", Username: "bob@example.com", Password: "secret"},
			},
		},
		{
			name:      "no accounts",
			accounts:  nil,
			expectErr: true,
		},
		{
			name: "missing plex user",
			accounts: []Account{
				{Username: "alice@example.com", Password: "secret"},
			},
			expectErr: true,
		},
		{
			name: "missing credentials",
			accounts: []Account{
				{PlexUser: "alice", Username: "alice@example.com"},
			},
			expectErr: true,
		},
		{
			name: "duplicate plex user",
			accounts: []Account{
				{PlexUser: "alice", Username: "alice@example.com", Password: "secret"},
				{PlexUser: "alice", Username: "other@example.com", Password: "secret"},
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Accounts: tt.accounts}
			err := cfg.Validate()
			if tt.expectErr && err == nil {
				t.Fatal("expected error but got nil")
			}
			if !tt.expectErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
