// Package smtp подключается к почтовому серверу для отправки писем покупателям.
package smtp

import (
	"context"
	"errors"
	"io"
)

// ErrNoStartTLS - сервер не поддерживает STARTTLS.
var ErrNoStartTLS = errors.New("STARTTLS not supported")

// Client интерфейс для SMTP клиента.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface интерфейс для SMTP транспорта.
type TransportInterface interface {
	Connect(ctx context.Context) (Client, error)
	GetSMTPUser() string
}
