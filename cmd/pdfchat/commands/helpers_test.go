package commands

import (
	"os"
	"reflect"
	"testing"
)

func TestResolveBind(t *testing.T) {
	tests := []struct {
		name             string
		envHost, envPort string
		host             string
		port             int
		hostSet, portSet bool
		wantHost         string
		wantPort         int
	}{
		{
			name: "no env, no flags — defaults pass through",
			host: "127.0.0.1", port: 8000,
			wantHost: "127.0.0.1", wantPort: 8000,
		},
		{
			name:    "env overrides unset flags",
			envHost: "0.0.0.0", envPort: "9000",
			host: "127.0.0.1", port: 8000,
			wantHost: "0.0.0.0", wantPort: 9000,
		},
		{
			name:    "explicit flags win over env",
			envHost: "0.0.0.0", envPort: "9000",
			host: "10.0.0.5", port: 8443, hostSet: true, portSet: true,
			wantHost: "10.0.0.5", wantPort: 8443,
		},
		{
			name:    "unparseable SERVER_PORT keeps the flag default",
			envPort: "not-a-port",
			host:    "127.0.0.1", port: 8000,
			wantHost: "127.0.0.1", wantPort: 8000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"SERVER_HOST", "SERVER_PORT"} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			if tt.envHost != "" {
				t.Setenv("SERVER_HOST", tt.envHost)
			}
			if tt.envPort != "" {
				t.Setenv("SERVER_PORT", tt.envPort)
			}

			host, port := resolveBind(tt.host, tt.port, tt.hostSet, tt.portSet)
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("resolveBind() = (%q, %d), want (%q, %d)", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"http://localhost:3000", []string{"http://localhost:3000"}},
		{"http://a.test, http://b.test ,", []string{"http://a.test", "http://b.test"}},
	}
	for _, tt := range tests {
		if got := splitOrigins(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitOrigins(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
