package ports

import (
	"context"

	"github.com/bnema/wallet-bridge/internal/domain"
)

type URLOpener interface {
	Open(ctx context.Context, url string) error
}

type HostInfoProvider interface {
	GetInfo(ctx context.Context) (domain.HostEndpoint, error)
}

type DeliveryHandler func(domain.Delivery)

// DeliverySource fans inbound browser deliveries out to subscribers. The
// returned func ends the subscription and is safe to call more than once.
type DeliverySource interface {
	Subscribe(ctx context.Context, handler DeliveryHandler) (unsubscribe func(), err error)
}

type CredentialSink interface {
	SetCredential(ctx context.Context, browserID domain.BrowserID, credential domain.Credential) error
}

// CredentialStore is a CredentialSink that can also read back and forget
// what it stored.
type CredentialStore interface {
	CredentialSink
	Credential(ctx context.Context, browserID domain.BrowserID) (domain.Credential, error)
	Forget(ctx context.Context, browserID domain.BrowserID) error
}
