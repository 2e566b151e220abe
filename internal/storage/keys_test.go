package storage

import "testing"

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "candidates", got: Keys{}.Candidates(), want: "eday_candidates"},
		{name: "users", got: Keys{}.Users(), want: "eday_users"},
		{name: "default session", got: Keys{}.Session(""), want: "eday_current_user"},
		{name: "client session", got: Keys{}.Session("tab-1"), want: "eday_current_user:tab-1"},
		{name: "namespaced users", got: Keys{Namespace: "demo"}.Users(), want: "demo:eday_users"},
		{name: "namespaced session", got: Keys{Namespace: "demo"}.Session("c"), want: "demo:eday_current_user:c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}
