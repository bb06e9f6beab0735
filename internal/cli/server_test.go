package cli

import "testing"

func TestListenPort(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		configured string
		want       string
	}{
		{"flag wins", "9000", "9090", "9000"},
		{"config when flag empty", "", "9090", "9090"},
		{"default", "", "", "8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listenPort(tt.flag, tt.configured); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPortFlagDefaultsToEnv(t *testing.T) {
	t.Setenv("PORT", "")
	flag := newRootCmd().PersistentFlags().Lookup("port")
	if flag == nil || flag.DefValue != "" {
		t.Fatalf("port flag must default to empty so config can apply, got %+v", flag)
	}

	t.Setenv("PORT", "7070")
	if got := newRootCmd().PersistentFlags().Lookup("port").DefValue; got != "7070" {
		t.Fatalf("expected PORT to seed the flag, got %q", got)
	}
}
