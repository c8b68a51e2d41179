package cashdesk

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// SessionService manages the drawer session lifecycle. At most one active
// session exists per caisse; that invariant is enforced under a row lock,
// not by an application-level check alone.
type SessionService struct {
	scope     TransactionScope
	identity  acl.IdentityProvider
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	scope TransactionScope,
	identity acl.IdentityProvider,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		scope:     scope,
		identity:  identity,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// OpenSession opens a drawer session at a caisse. Opening on another
// cashier's behalf requires the supervisor role.
func (s *SessionService) OpenSession(ctx context.Context, req OpenSessionRequest) (*cashdesk.DrawerSession, error) {
	if req.OpenedBy != req.UserID {
		if err := s.requireSupervisor(ctx, req.OpenedBy, "Opening a session for another cashier"); err != nil {
			return nil, err
		}
	}

	var session *cashdesk.DrawerSession
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		active, err := repos.Sessions().FindActiveByCaisseForUpdate(ctx, req.CaisseID)
		if err != nil {
			return fmt.Errorf("failed to check active session: %w", err)
		}
		if active != nil {
			return shared.NewIntegrityError("DUPLICATE_OPEN_SESSION",
				fmt.Sprintf("Caisse %s already has an active session", req.CaisseID))
		}

		session, err = cashdesk.OpenDrawerSession(req.CaisseID, req.UserID, req.OpenedBy, req.OpeningAmount, s.clock.Now())
		if err != nil {
			return err
		}
		return repos.Sessions().Save(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, session)
	return session, nil
}

// SuspendSession pauses an open session.
func (s *SessionService) SuspendSession(ctx context.Context, sessionID, actor uuid.UUID) (*cashdesk.DrawerSession, error) {
	return s.mutateSession(ctx, sessionID, actor, func(session *cashdesk.DrawerSession) error {
		return session.Suspend(s.clock.Now())
	})
}

// ResumeSession reactivates a suspended session.
func (s *SessionService) ResumeSession(ctx context.Context, sessionID, actor uuid.UUID) (*cashdesk.DrawerSession, error) {
	return s.mutateSession(ctx, sessionID, actor, func(session *cashdesk.DrawerSession) error {
		return session.Resume(s.clock.Now())
	})
}

// CloseSession closes a session with the counted denomination breakdown and
// returns the derived variance figures.
func (s *SessionService) CloseSession(ctx context.Context, req CloseSessionRequest) (*CloseSessionResult, error) {
	var session *cashdesk.DrawerSession
	var result *cashdesk.CloseResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.Sessions().FindByID(ctx, req.SessionID)
		if err != nil {
			return fmt.Errorf("failed to load drawer session: %w", err)
		}
		if session == nil {
			return shared.NewNotFoundError("UNKNOWN_SESSION", "Drawer session does not exist")
		}
		if err := s.checkActor(ctx, session, req.ClosedBy); err != nil {
			return err
		}

		result, err = session.Close(req.ClosedBy, req.ClosingAmount, req.ExpectedClosingAmount, req.Denominations, s.clock.Now())
		if err != nil {
			return err
		}
		return repos.Sessions().Save(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, session)
	return &CloseSessionResult{Session: session, Result: result}, nil
}

// ReOpenSession reverses a close made earlier the same calendar day. The
// caisse must not have gained another active session in between.
func (s *SessionService) ReOpenSession(ctx context.Context, sessionID, actor uuid.UUID) (*cashdesk.DrawerSession, error) {
	var session *cashdesk.DrawerSession
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.Sessions().FindByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load drawer session: %w", err)
		}
		if session == nil {
			return shared.NewNotFoundError("UNKNOWN_SESSION", "Drawer session does not exist")
		}
		if err := s.checkActor(ctx, session, actor); err != nil {
			return err
		}

		active, err := repos.Sessions().FindActiveByCaisseForUpdate(ctx, session.CaisseID)
		if err != nil {
			return fmt.Errorf("failed to check active session: %w", err)
		}
		if active != nil {
			return shared.NewIntegrityError("DUPLICATE_OPEN_SESSION",
				fmt.Sprintf("Caisse %s already has an active session", session.CaisseID))
		}

		if err := session.ReOpen(s.clock.Now()); err != nil {
			return err
		}
		return repos.Sessions().Save(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession loads a single drawer session.
func (s *SessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*cashdesk.DrawerSession, error) {
	var session *cashdesk.DrawerSession
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.Sessions().FindByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load drawer session: %w", err)
		}
		if session == nil {
			return shared.NewNotFoundError("UNKNOWN_SESSION", "Drawer session does not exist")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns sessions matching the filter.
func (s *SessionService) ListSessions(ctx context.Context, filter cashdesk.SessionFilter) ([]cashdesk.DrawerSession, error) {
	var sessions []cashdesk.DrawerSession
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sessions, err = repos.Sessions().FindAll(ctx, filter)
		return err
	})
	return sessions, err
}

func (s *SessionService) mutateSession(
	ctx context.Context,
	sessionID, actor uuid.UUID,
	mutate func(*cashdesk.DrawerSession) error,
) (*cashdesk.DrawerSession, error) {
	var session *cashdesk.DrawerSession
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.Sessions().FindByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load drawer session: %w", err)
		}
		if session == nil {
			return shared.NewNotFoundError("UNKNOWN_SESSION", "Drawer session does not exist")
		}
		if err := s.checkActor(ctx, session, actor); err != nil {
			return err
		}
		if err := mutate(session); err != nil {
			return err
		}
		return repos.Sessions().Save(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// checkActor allows the session owner or a cash supervisor.
func (s *SessionService) checkActor(ctx context.Context, session *cashdesk.DrawerSession, actor uuid.UUID) error {
	if session.CanBeMutatedBy(actor) {
		return nil
	}
	ok, err := s.identity.HasRole(ctx, actor, acl.RoleCashSupervisor)
	if err != nil {
		return fmt.Errorf("failed to resolve roles: %w", err)
	}
	if !ok {
		return shared.NewAuthorizationError("NOT_SESSION_OWNER",
			fmt.Sprintf("User %s cannot act on drawer session %s", actor, session.ID))
	}
	return nil
}

func (s *SessionService) requireSupervisor(ctx context.Context, userID uuid.UUID, action string) error {
	ok, err := s.identity.HasRole(ctx, userID, acl.RoleCashSupervisor)
	if err != nil {
		return fmt.Errorf("failed to resolve roles: %w", err)
	}
	if !ok {
		return shared.NewAuthorizationError("NOT_SUPERVISOR",
			action+" requires the cash supervisor role")
	}
	return nil
}

func (s *SessionService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.String("aggregate_id", aggregate.GetID().String()), zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}
