package ports

import (
	"context"

	"github.com/bnema/wallet-bridge/internal/domain"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id domain.BrowserID) (domain.BrowserProfile, error)
	List(ctx context.Context) ([]domain.BrowserProfile, error)
	Save(ctx context.Context, profile domain.BrowserProfile) error
}
