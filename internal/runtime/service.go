package runtime

import (
	"context"
	"net/http"
	"time"

	"chatwire/internal/app"
	"chatwire/internal/client"
	"chatwire/internal/config"
	"chatwire/internal/credential"
	"chatwire/internal/logging"
	"chatwire/internal/realtime"
	"chatwire/internal/stompws"
	"chatwire/internal/topics"
)

const defaultHTTPTimeout = 10 * time.Second

type Service interface {
	RunContext(ctx context.Context) error
	SendChat(room string, content string) error
	JoinRoom(room string) error
	LeaveRoom(room string) error
	JoinedRooms() []string
	SendSignal(signal topics.Signal) error
}

func NewService(opts config.Options, logger *logging.Logger) (Service, error) {
	return NewServiceWithHooks(opts, logger, StartHooks{})
}

// NewServiceWithHooks wires the REST client, the credential gate and the
// STOMP session into a chat app.
func NewServiceWithHooks(opts config.Options, logger *logging.Logger, hooks StartHooks) (Service, error) {
	if logger == nil {
		panic("runtime.NewServiceWithHooks: logger must not be nil")
	}
	if err := config.ValidateRequired(opts); err != nil {
		return nil, err
	}
	claim, err := credential.ParseIdentityClaim(opts.IdentityClaim)
	if err != nil {
		return nil, err
	}

	endpoints, err := config.BuildEndpoints(opts.APIURL, opts.BrokerURL)
	if err != nil {
		return nil, err
	}
	logger.Debug("constructed API endpoints",
		logging.Field("login_url", endpoints.LoginURL),
		logging.Field("refresh_url", endpoints.RefreshURL),
		logging.Field("rooms_url", endpoints.RoomsURL),
		logging.Field("broker_url", endpoints.BrokerURL),
		logging.Field("identity_claim", string(claim)),
	)

	gate := credential.Gate{Claim: claim, Logger: logger.Component("credential")}
	session := realtime.New(realtime.Options{
		Factory: realtime.StompFactory{Dialer: stompws.Dialer{
			URL:              endpoints.BrokerURL,
			HandshakeTimeout: opts.HandshakeTimeout,
			HeartBeat:        opts.HeartBeat,
			Logger:           logger,
		}},
		Gate:            gate,
		TeardownTimeout: opts.TeardownTimeout,
		Logger:          logger,
	})

	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	return app.New(opts, app.Deps{
		Client:  client.New(httpClient, endpoints, logger),
		Session: session,
		Gate:    gate,
	}, logger, appCallbacks(hooks)), nil
}

func appCallbacks(hooks StartHooks) app.Callbacks {
	return app.Callbacks{
		OnStatusChange: hooks.OnStatus,
		OnRoomsUpdate:  hooks.OnRoomsUpdate,
		OnJoinedRooms:  hooks.OnJoinedRooms,
		OnChatMessage:  hooks.OnChatMessage,
		OnInvitation:   hooks.OnInvitation,
		OnNotification: hooks.OnNotification,
		OnSignal:       hooks.OnSignal,
	}
}
