package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrNoIdentity    = errors.New("identity: no current user stored")
	ErrUnknownCouple = errors.New("identity: not the current couple")
)

type Service struct {
	repo   Repository
	remote Remote
	now    func() time.Time
}

func NewService(repo Repository, remote Remote) *Service {
	return &Service{
		repo:   repo,
		remote: remote,
		now:    time.Now,
	}
}

// Current returns the stored couple or ErrNoIdentity.
func (s *Service) Current(ctx context.Context) (*Couple, error) {
	couple, err := s.repo.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current couple: %w", err)
	}
	if couple == nil {
		return nil, ErrNoIdentity
	}
	return couple, nil
}

// MemberIDs returns the user ids of coupleID, which must be the current
// couple's key.
func (s *Service) MemberIDs(ctx context.Context, coupleID string) ([]string, error) {
	couple, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if couple.Key() != coupleID {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCouple, coupleID)
	}
	members := couple.Members()
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.ID)
	}
	return out, nil
}

// Bootstrap stores the signed-in user when the device has no identity yet.
// An existing record is left untouched apart from filling a missing legacy id.
func (s *Service) Bootstrap(ctx context.Context, user User) (*Couple, error) {
	couple, err := s.repo.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load current couple: %w", err)
	}
	if couple != nil && couple.User.ID == user.ID {
		if couple.User.LegacyID == "" && user.LegacyID != "" {
			couple.User.LegacyID = user.LegacyID
			couple.UpdatedAt = s.now()
			if err := s.repo.Save(ctx, couple); err != nil {
				return nil, err
			}
		}
		return couple, nil
	}

	couple = &Couple{User: user, UpdatedAt: s.now()}
	if err := s.repo.Save(ctx, couple); err != nil {
		return nil, fmt.Errorf("failed to save identity: %w", err)
	}
	return couple, nil
}

// Refresh pulls the pairing status from the backend and stores it. On a
// transport failure the cached couple is returned together with the error.
func (s *Service) Refresh(ctx context.Context) (*Couple, error) {
	cached, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := s.remote.PairingStatus(ctx, cached.User.ID)
	if err != nil {
		slog.Warn("Pairing refresh failed, keeping cached identity",
			slog.String("type", "sync"),
			slog.String("user_id", cached.User.ID),
			slog.Any("error", err))
		return cached, err
	}

	merged := merge(cached, remote)
	merged.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, merged); err != nil {
		return cached, fmt.Errorf("failed to save pairing: %w", err)
	}

	if !cached.Paired() && merged.Paired() {
		slog.Info("Pairing established",
			slog.String("type", "sync"),
			slog.String("couple_id", merged.ID),
			slog.String("partner_id", merged.Partner.ID))
	}
	return merged, nil
}

// merge keeps locally known legacy ids when the backend no longer reports them.
func merge(local, remote *Couple) *Couple {
	out := &Couple{
		ID:   remote.ID,
		User: remote.User,
	}
	if out.User.ID == "" {
		out.User = local.User
	}
	if out.User.LegacyID == "" && local.User.Matches(out.User.ID) {
		out.User.LegacyID = local.User.LegacyID
	}
	if out.ID == "" {
		out.ID = local.ID
	}

	if remote.Partner != nil {
		p := *remote.Partner
		if local.Partner != nil && p.LegacyID == "" && local.Partner.Matches(p.ID) {
			p.LegacyID = local.Partner.LegacyID
		}
		out.Partner = &p
	} else if local.Partner != nil {
		// the backend never un-pairs through this endpoint
		p := *local.Partner
		out.Partner = &p
	}
	return out
}
