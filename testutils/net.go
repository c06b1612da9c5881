// Package testutils contains helpers for tests that run real listeners.
package testutils

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

var waitDur = 5 * time.Second

// ReserveAddress returns a local address that was free when checked.
func ReserveAddress() (string, error) {
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return "", err
	}
	address := listener.Addr().String()
	return address, listener.Close()
}

// WaitSuccessfulDial waits for a dial attempt to address to succeed.
func WaitSuccessfulDial(ctx context.Context, address string) error {
	ctx, cancel := context.WithTimeout(ctx, waitDur)
	defer cancel()
	for {
		conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", address)
		if err == nil {
			return conn.Close()
		}
		if !utils.SelectContextOrWait(ctx, 10*time.Millisecond) {
			return errors.Wrapf(err, "cannot dial %s", address)
		}
	}
}
