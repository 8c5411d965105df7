package otp

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Sender delivers a code to a mobile number.
type Sender interface {
	Send(ctx context.Context, mobile, code string) error
}

// LogSender writes codes to the log instead of an SMS gateway.
type LogSender struct{}

func (LogSender) Send(_ context.Context, mobile, code string) error {
	log.WithField("mobile", mobile).Infof("sending OTP %s", code)
	return nil
}
