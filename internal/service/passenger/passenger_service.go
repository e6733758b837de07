package passenger

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type PassengerUseCase interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Get(ctx context.Context, id string) (*domain.Passenger, error)
	Onboard(ctx context.Context, id string, category domain.Category, hasLuggage bool) (*domain.Passenger, error)
	UpdateProfile(ctx context.Context, id string, category domain.Category, hasLuggage bool) (*domain.Passenger, error)
	Search(ctx context.Context, filter domain.PassengerFilter) ([]domain.PassengerSummary, error)
}

const searchLimit = 100

type TokenIssuer interface {
	Issue(passengerID string, role domain.Role) (string, time.Time, error)
}

type LoginResult struct {
	Passenger *domain.Passenger
	Role      domain.Role
	Token     string
	ExpiresAt time.Time
	// Created is true when this login registered the passenger.
	Created bool
}

type PassengerService struct {
	repo       repository.PassengerRepository
	tokens     TokenIssuer
	bcryptCost int
	admins     map[string]bool
	logger     *logrus.Logger
}

func NewPassengerService(repo repository.PassengerRepository, tokens TokenIssuer, bcryptCost int, adminEmails []string, logger *logrus.Logger) *PassengerService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &PassengerService{repo: repo, tokens: tokens, bcryptCost: bcryptCost, admins: admins, logger: logger}
}

// Login authenticates by email and password. An unknown email registers
// a new general passenger with that password.
func (s *PassengerService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewError(domain.ErrInvalidRequest, "email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewError(domain.ErrInvalidRequest, "malformed email address")
	}

	created := false
	p, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		p, err = s.register(ctx, email, password)
		created = err == nil
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a concurrent first login for the same email.
			p, err = s.repo.GetByEmail(ctx, email)
			created = false
		}
	}
	if err != nil {
		return nil, err
	}

	if !created {
		if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
			s.logger.WithField("passenger_id", p.ID).Info("login rejected")
			return nil, domain.NewError(domain.ErrUnauthenticated, "invalid credentials")
		}
	}

	role := s.roleFor(p.Email)
	token, exp, err := s.tokens.Issue(p.ID, role)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"passenger_id": p.ID, "created": created, "role": role}).Info("passenger logged in")
	return &LoginResult{Passenger: p, Role: role, Token: token, ExpiresAt: exp, Created: created}, nil
}

func (s *PassengerService) Get(ctx context.Context, id string) (*domain.Passenger, error) {
	if id == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, "missing passenger id")
	}
	return s.repo.GetByID(ctx, id)
}

// Onboard runs once per passenger. The repository write is conditional, so
// of two concurrent calls only one succeeds.
func (s *PassengerService) Onboard(ctx context.Context, id string, category domain.Category, hasLuggage bool) (*domain.Passenger, error) {
	return s.update(ctx, id, func(p *domain.Passenger) error {
		return p.Onboard(category, hasLuggage)
	}, s.repo.Onboard)
}

func (s *PassengerService) UpdateProfile(ctx context.Context, id string, category domain.Category, hasLuggage bool) (*domain.Passenger, error) {
	return s.update(ctx, id, func(p *domain.Passenger) error {
		return p.UpdateProfile(category, hasLuggage)
	}, s.repo.UpdateProfile)
}

func (s *PassengerService) update(ctx context.Context, id string, apply func(*domain.Passenger) error, store func(context.Context, *domain.Passenger) error) (*domain.Passenger, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(p); err != nil {
		return nil, err
	}
	if err := store(ctx, p); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"passenger_id": p.ID,
		"category":     p.Category,
		"has_luggage":  p.HasLuggage,
	}).Info("passenger profile updated")
	return p, nil
}

// Search backs the admin passenger lookup.
func (s *PassengerService) Search(ctx context.Context, filter domain.PassengerFilter) ([]domain.PassengerSummary, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, domain.NewError(domain.ErrInvalidRequest, "unknown passenger category "+string(filter.Category))
	}
	filter.Email = strings.TrimSpace(filter.Email)
	return s.repo.Search(ctx, filter, searchLimit)
}

func (s *PassengerService) register(ctx context.Context, email, password string) (*domain.Passenger, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := domain.NewPassenger(uuid.NewString(), email, string(hash))
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PassengerService) roleFor(email string) domain.Role {
	if s.admins[normalizeEmail(email)] {
		return domain.RoleAdmin
	}
	return domain.RolePassenger
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ PassengerUseCase = (*PassengerService)(nil)
