package model

import (
	"context"
	"net"
)

// SecurityLayer opens the listener a server accepts connections on, either
// plain TCP or TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a network front end started by main: the HTTP account API and the
// gRPC health service both implement it.
type Server interface {
	// Start blocks serving on a listener from securityLayer.
	Start(securityLayer SecurityLayer) error
	// Stop drains in-flight requests until ctx is done.
	Stop(ctx context.Context) error
	Address() string
}
