package passenger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/metroreserve/internal/auth"
	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(passengerID string, role domain.Role) (string, time.Time, error) {
	args := m.Called(passengerID, role)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func newService(t *testing.T, tokens TokenIssuer, admins ...string) (*PassengerService, repository.PassengerRepository) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	repo := repository.NewMemoryStore().Passengers()
	return NewPassengerService(repo, tokens, bcrypt.MinCost, admins, logger), repo
}

func TestPassengerService_LoginCreatesThenAuthenticates(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t, auth.NewTokenManager("secret", time.Hour))

	first, err := svc.Login(ctx, " Rider@Example.com ", "pw")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, domain.RolePassenger, first.Role)
	assert.Equal(t, domain.CategoryGeneral, first.Passenger.Category)
	assert.False(t, first.Passenger.Onboarded)

	stored, err := repo.GetByEmail(ctx, "rider@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored.PasswordHash)

	second, err := svc.Login(ctx, "rider@example.com", "pw")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Passenger.ID, second.Passenger.ID)

	_, err = svc.Login(ctx, "rider@example.com", "wrong")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestPassengerService_LoginValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, new(MockTokenIssuer))

	for _, tc := range []struct{ email, password string }{
		{"", "pw"},
		{"a@example.com", ""},
		{"not-an-email", "pw"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		assert.True(t, errors.Is(err, domain.ErrInvalidRequest), "%q/%q", tc.email, tc.password)
	}
}

func TestPassengerService_AdminRole(t *testing.T) {
	ctx := context.Background()
	tokens := new(MockTokenIssuer)
	exp := time.Now().Add(time.Hour)
	tokens.On("Issue", mock.Anything, domain.RoleAdmin).Return("admin-token", exp, nil)
	svc, _ := newService(t, tokens, "Ops@Example.com")

	res, err := svc.Login(ctx, "ops@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.Role)
	assert.Equal(t, "admin-token", res.Token)
	assert.Equal(t, exp, res.ExpiresAt)
	tokens.AssertExpectations(t)
}

func TestPassengerService_OnboardAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, auth.NewTokenManager("secret", time.Hour))
	res, err := svc.Login(ctx, "w@example.com", "pw")
	require.NoError(t, err)
	id := res.Passenger.ID

	_, err = svc.UpdateProfile(ctx, id, domain.CategoryWomen, false)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))

	p, err := svc.Onboard(ctx, id, domain.CategoryWomen, true)
	require.NoError(t, err)
	assert.True(t, p.Onboarded)

	_, err = svc.Onboard(ctx, id, domain.CategoryElderly, false)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))

	_, err = svc.UpdateProfile(ctx, id, "astronaut", false)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))

	p, err = svc.UpdateProfile(ctx, id, domain.CategoryPregnant, false)
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryPregnant, got.Category)
	assert.False(t, got.HasLuggage)
	assert.True(t, got.Onboarded)
	assert.Equal(t, p.Category, got.Category)
}

func TestPassengerService_UnknownPassenger(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, new(MockTokenIssuer))

	_, err := svc.Get(ctx, "ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.Get(ctx, "")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	_, err = svc.Onboard(ctx, "ghost", domain.CategoryWomen, false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPassengerService_ConcurrentOnboardingSucceedsOnce(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t, auth.NewTokenManager("secret", time.Hour))
	res, err := svc.Login(ctx, "race@example.com", "pw")
	require.NoError(t, err)
	id := res.Passenger.ID

	categories := []domain.Category{
		domain.CategoryWomen, domain.CategoryElderly, domain.CategoryDisabled, domain.CategoryPregnant,
		domain.CategoryGeneral, domain.CategoryWomen, domain.CategoryElderly, domain.CategoryDisabled,
	}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []domain.Category
		rejected int
	)
	for _, category := range categories {
		wg.Add(1)
		go func(category domain.Category) {
			defer wg.Done()
			_, err := svc.Onboard(ctx, id, category, false)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, category)
				return
			}
			if errors.Is(err, domain.ErrInvalidRequest) {
				rejected++
			}
		}(category)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, len(categories)-1, rejected)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Onboarded)
	assert.Equal(t, winners[0], stored.Category)
}

func TestPassengerService_OnboardWithStaleCopyIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t, auth.NewTokenManager("secret", time.Hour))
	res, err := svc.Login(ctx, "stale@example.com", "pw")
	require.NoError(t, err)

	stale, err := repo.GetByID(ctx, res.Passenger.ID)
	require.NoError(t, err)

	_, err = svc.Onboard(ctx, res.Passenger.ID, domain.CategoryWomen, true)
	require.NoError(t, err)

	require.NoError(t, stale.Onboard(domain.CategoryElderly, false))
	err = repo.Onboard(ctx, stale)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))

	got, err := repo.GetByID(ctx, res.Passenger.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryWomen, got.Category)
	assert.True(t, got.HasLuggage)
}

func TestPassengerService_Search(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	store := repository.NewMemoryStore()
	svc := NewPassengerService(store.Passengers(), auth.NewTokenManager("secret", time.Hour), bcrypt.MinCost, nil, logger)

	ana, err := svc.Login(ctx, "ana@metro.test", "pw")
	require.NoError(t, err)
	_, err = svc.Onboard(ctx, ana.Passenger.ID, domain.CategoryWomen, false)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "bob@metro.test", "pw")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "carla@elsewhere.test", "pw")
	require.NoError(t, err)

	require.NoError(t, store.Bookings().CreateConfirmed(ctx, []domain.Booking{
		{ID: "b1", PassengerID: ana.Passenger.ID, SeatID: domain.SeatID{Cabin: 1, Row: 1, Side: domain.SideLeft}, Amount: decimal.NewFromInt(3)},
		{ID: "b2", PassengerID: ana.Passenger.ID, SeatID: domain.SeatID{Cabin: 1, Row: 1, Side: domain.SideRight}, Amount: decimal.NewFromInt(3)},
	}))

	found, err := svc.Search(ctx, domain.PassengerFilter{Email: " METRO "})
	require.NoError(t, err)
	require.Len(t, found, 2)

	found, err = svc.Search(ctx, domain.PassengerFilter{Category: domain.CategoryWomen})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ana@metro.test", found[0].Email)
	assert.Equal(t, 2, found[0].ConfirmedBookings)
	assert.True(t, decimal.NewFromInt(6).Equal(found[0].TotalSpent))

	found, err = svc.Search(ctx, domain.PassengerFilter{})
	require.NoError(t, err)
	assert.Len(t, found, 3)

	_, err = svc.Search(ctx, domain.PassengerFilter{Category: "astronaut"})
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}
