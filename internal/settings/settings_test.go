package settings

import (
	"encoding/json"
	"sync"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestStoreApply(t *testing.T) {
	initial := Settings{Provider: "openai", APIKey: "sk-initial", Model: "gpt-4o"}

	tests := []struct {
		name    string
		updates []Partial
		want    Settings
	}{
		{
			name:    "no updates returns initial",
			updates: nil,
			want:    initial,
		},
		{
			name: "model-only update preserves provider and key",
			updates: []Partial{
				{Model: strPtr("gpt-4.1")},
			},
			want: Settings{Provider: "openai", APIKey: "sk-initial", Model: "gpt-4.1"},
		},
		{
			name: "two consecutive partial updates merge",
			updates: []Partial{
				{Model: strPtr("gpt-4.1")},
				{Model: strPtr("o3-mini")},
			},
			want: Settings{Provider: "openai", APIKey: "sk-initial", Model: "o3-mini"},
		},
		{
			name: "provider switch keeps previous key until replaced",
			updates: []Partial{
				{Provider: strPtr("claude")},
			},
			want: Settings{Provider: "claude", APIKey: "sk-initial", Model: "gpt-4o"},
		},
		{
			name: "full update replaces everything",
			updates: []Partial{
				{Provider: strPtr("gemini"), APIKey: strPtr("g-key"), Model: strPtr("gemini-2.0-flash")},
			},
			want: Settings{Provider: "gemini", APIKey: "g-key", Model: "gemini-2.0-flash"},
		},
		{
			name: "explicit empty string clears a field",
			updates: []Partial{
				{APIKey: strPtr("")},
			},
			want: Settings{Provider: "openai", APIKey: "", Model: "gpt-4o"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(initial)
			for _, p := range tt.updates {
				store.Apply(p)
			}
			if got := store.Snapshot(); got != tt.want {
				t.Errorf("Snapshot() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(Settings{Provider: "openai", Model: "gpt-4o"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Apply(Partial{Model: strPtr("gpt-4.1")})
		}()
		go func() {
			defer wg.Done()
			_ = store.Snapshot()
		}()
	}
	wg.Wait()

	got := store.Snapshot()
	if got.Provider != "openai" || got.Model != "gpt-4.1" {
		t.Errorf("Snapshot() = %+v after concurrent updates", got)
	}
}

func TestPartialJSONDistinguishesMissingFromEmpty(t *testing.T) {
	var p Partial
	if err := json.Unmarshal([]byte(`{"model": "gpt-4o-mini"}`), &p); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if p.Provider != nil || p.APIKey != nil {
		t.Error("absent fields should decode to nil pointers")
	}
	if p.Model == nil || *p.Model != "gpt-4o-mini" {
		t.Errorf("Model = %v, want gpt-4o-mini", p.Model)
	}
}
