package config

import (
	"testing"
	"time"
)

func TestBuildEndpoints_NormalizeAPIBaseURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "root host", base: "http://127.0.0.1:8080", want: "http://127.0.0.1:8080/api"},
		{name: "already api", base: "http://127.0.0.1:8080/api", want: "http://127.0.0.1:8080/api"},
		{name: "api with trailing", base: "http://127.0.0.1:8080/api/", want: "http://127.0.0.1:8080/api"},
		{name: "pasted login endpoint", base: "http://127.0.0.1:8080/api/auth/login", want: "http://127.0.0.1:8080/api"},
		{name: "pasted rooms endpoint", base: "https://chat.example.com/api/chat/rooms", want: "https://chat.example.com/api"},
		{name: "query fragment dropped", base: "https://chat.example.com/anything?x=1#y", want: "https://chat.example.com/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoints, err := BuildEndpoints(tt.base, "")
			if err != nil {
				t.Fatalf("BuildEndpoints failed: %v", err)
			}
			if endpoints.BaseURL != tt.want {
				t.Fatalf("BaseURL = %q, want %q", endpoints.BaseURL, tt.want)
			}
			if endpoints.LoginURL != tt.want+"/auth/login" {
				t.Fatalf("LoginURL = %q", endpoints.LoginURL)
			}
			if endpoints.RefreshURL != tt.want+"/auth/refresh" {
				t.Fatalf("RefreshURL = %q", endpoints.RefreshURL)
			}
			if endpoints.RoomsURL != tt.want+"/chat/rooms" {
				t.Fatalf("RoomsURL = %q", endpoints.RoomsURL)
			}
		})
	}
}

func TestBuildEndpoints_BrokerURL(t *testing.T) {
	tests := []struct {
		name   string
		api    string
		broker string
		want   string
	}{
		{name: "derived from http", api: "http://127.0.0.1:8080", want: "ws://127.0.0.1:8080/ws"},
		{name: "derived from https", api: "https://chat.example.com/api", want: "wss://chat.example.com/ws"},
		{name: "explicit wss kept", api: "https://chat.example.com", broker: "wss://rt.example.com/stomp", want: "wss://rt.example.com/stomp"},
		{name: "explicit https converted", api: "https://chat.example.com", broker: "https://rt.example.com/stomp", want: "wss://rt.example.com/stomp"},
		{name: "explicit host without path", api: "https://chat.example.com", broker: "ws://rt.example.com", want: "ws://rt.example.com/ws"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoints, err := BuildEndpoints(tt.api, tt.broker)
			if err != nil {
				t.Fatalf("BuildEndpoints failed: %v", err)
			}
			if endpoints.BrokerURL != tt.want {
				t.Fatalf("BrokerURL = %q, want %q", endpoints.BrokerURL, tt.want)
			}
		})
	}
}

func TestBuildEndpoints_InvalidScheme(t *testing.T) {
	tests := []struct {
		api    string
		broker string
	}{
		{api: "ftp://example.com"},
		{api: "ws://example.com"},
		{api: "file:///tmp/chatwire"},
		{api: "https://example.com", broker: "tcp://example.com:61613"},
		{api: "https://example.com", broker: "/ws"},
	}
	for _, tt := range tests {
		t.Run(tt.api+" "+tt.broker, func(t *testing.T) {
			if _, err := BuildEndpoints(tt.api, tt.broker); err == nil {
				t.Fatalf("expected error for %q / %q", tt.api, tt.broker)
			}
		})
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "missing api", opts: Options{TokenFile: "/tmp/token"}, wantErr: true},
		{name: "token file", opts: Options{APIURL: "https://chat.example.com", TokenFile: "/tmp/token"}},
		{name: "login", opts: Options{APIURL: "https://chat.example.com", Username: "alice", Password: "pw"}},
		{name: "username without password", opts: Options{APIURL: "https://chat.example.com", Username: "alice"}, wantErr: true},
		{name: "no credential source", opts: Options{APIURL: "https://chat.example.com"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseArgs_DefaultsAndRepeatableRooms(t *testing.T) {
	opts, err := parseArgs([]string{
		"--api-url", "https://chat.example.com",
		"--room", "general",
		"--room", "random",
		"--identity-claim", "iss",
		"--heartbeat", "5s",
	})
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	if len(opts.Rooms) != 2 || opts.Rooms[0] != "general" || opts.Rooms[1] != "random" {
		t.Fatalf("Rooms = %v", opts.Rooms)
	}
	if opts.IdentityClaim != "iss" {
		t.Fatalf("IdentityClaim = %q", opts.IdentityClaim)
	}
	if opts.HeartBeat != 5*time.Second {
		t.Fatalf("HeartBeat = %v, want 5s", opts.HeartBeat)
	}
	if opts.HandshakeTimeout != 10*time.Second || opts.TeardownTimeout != 2*time.Second || opts.RefreshLead != time.Minute {
		t.Fatalf("timeouts = %v/%v/%v", opts.HandshakeTimeout, opts.TeardownTimeout, opts.RefreshLead)
	}
}

func TestParseArgs_RejectsUnknownIdentityClaim(t *testing.T) {
	if _, err := parseArgs([]string{"--identity-claim", "aud"}); err == nil {
		t.Fatal("parseArgs() expected error for unsupported identity claim")
	}
}
