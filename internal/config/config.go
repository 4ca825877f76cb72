package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

type Options struct {
	APIURL           string        `long:"api-url" env:"CHATWIRE_API_URL" description:"Chat API base URL (e.g. https://chat.example.com)"`
	BrokerURL        string        `long:"broker-url" env:"CHATWIRE_BROKER_URL" description:"STOMP websocket URL; derived from the API URL when empty"`
	Username         string        `long:"username" env:"CHATWIRE_USERNAME" description:"Account used to log in"`
	Password         string        `long:"password" env:"CHATWIRE_PASSWORD" description:"Password for --username"`
	TokenFile        string        `long:"token-file" env:"CHATWIRE_TOKEN_FILE" description:"File holding the access token; watched for changes"`
	Rooms            []string      `long:"room" env:"CHATWIRE_ROOMS" env-delim:"," description:"Chat room to join on connect (repeatable)"`
	IdentityClaim    string        `long:"identity-claim" env:"CHATWIRE_IDENTITY_CLAIM" choice:"sub" choice:"iss" description:"Token claim that identifies a session"`
	HeartBeat        time.Duration `long:"heartbeat" env:"CHATWIRE_HEARTBEAT" default:"10s" description:"STOMP heart-beat interval offered to the broker"`
	HandshakeTimeout time.Duration `long:"handshake-timeout" env:"CHATWIRE_HANDSHAKE_TIMEOUT" default:"10s" description:"Limit for connecting to the broker"`
	TeardownTimeout  time.Duration `long:"teardown-timeout" env:"CHATWIRE_TEARDOWN_TIMEOUT" default:"2s" description:"Limit for a graceful disconnect"`
	RefreshLead      time.Duration `long:"refresh-lead" env:"CHATWIRE_REFRESH_LEAD" default:"1m" description:"Refresh the access token this long before it expires"`
	Plain            bool          `long:"plain" env:"CHATWIRE_PLAIN" description:"Print events line by line instead of the terminal UI"`
	Debug            bool          `long:"debug" env:"CHATWIRE_DEBUG" description:"Enable verbose debug output"`
	Save             bool          `long:"save" description:"Remember these options (except the password) for later runs"`
}

type APIEndpoints struct {
	BaseURL    string
	LoginURL   string
	RefreshURL string
	RoomsURL   string
	BrokerURL  string
}

const brokerPath = "/ws"

func ParseOptions() (Options, error) {
	_ = godotenv.Load()
	opts := Options{}
	if _, err := flags.Parse(&opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func parseArgs(args []string) (Options, error) {
	opts := Options{}
	if _, err := flags.ParseArgs(&opts, args); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func ValidateRequired(opts Options) error {
	if strings.TrimSpace(opts.APIURL) == "" {
		return errors.New("API URL is required")
	}
	hasLogin := strings.TrimSpace(opts.Username) != ""
	if hasLogin && opts.Password == "" {
		return errors.New("password is required with --username")
	}
	if !hasLogin && strings.TrimSpace(opts.TokenFile) == "" {
		return errors.New("set either --token-file or --username and --password")
	}
	return nil
}

func BuildEndpoints(rawAPIURL string, rawBrokerURL string) (APIEndpoints, error) {
	apiBaseURL, err := buildAPIBaseURL(rawAPIURL)
	if err != nil {
		return APIEndpoints{}, err
	}
	brokerURL, err := buildBrokerURL(apiBaseURL, rawBrokerURL)
	if err != nil {
		return APIEndpoints{}, err
	}
	return APIEndpoints{
		BaseURL:    apiBaseURL,
		LoginURL:   apiBaseURL + "/auth/login",
		RefreshURL: apiBaseURL + "/auth/refresh",
		RoomsURL:   apiBaseURL + "/chat/rooms",
		BrokerURL:  brokerURL,
	}, nil
}

func buildAPIBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	parsed, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("expected absolute URL like https://example.com")
	}
	if !strings.EqualFold(parsed.Scheme, "http") && !strings.EqualFold(parsed.Scheme, "https") {
		return "", errors.New("API URL scheme must be http or https")
	}

	// Normalize any pasted endpoint/path to canonical API base.
	parsed.Path = "/api"
	parsed.RawPath = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return strings.TrimRight(parsed.String(), "/"), nil
}

func buildBrokerURL(apiBaseURL string, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = apiBaseURL
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", errors.New("expected absolute broker URL like wss://example.com/ws")
	}
	switch strings.ToLower(parsed.Scheme) {
	case "ws", "wss":
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", errors.New("broker URL scheme must be ws, wss, http or https")
	}
	if strings.TrimSpace(raw) == "" || parsed.Path == "" || parsed.Path == "/" {
		parsed.Path = brokerPath
	}
	parsed.RawPath = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}
