package customers

import "github.com/vladislavdragonenkov/checkout/internal/domain"

// MockService — конфигурируемая заглушка CustomerDirectory для тестов.
type MockService struct {
	Rates      map[string]float64
	Profiles   map[string]domain.CustomerProfile
	RateErr    error
	ProfileErr error

	RateCalls    int
	ProfileCalls int
}

// NewMockService возвращает mock с пустым справочником клиентов.
func NewMockService() *MockService {
	return &MockService{
		Rates:    make(map[string]float64),
		Profiles: make(map[string]domain.CustomerProfile),
	}
}

// GetMembershipDiscountRate возвращает настроенную ставку; для неизвестного
// клиента ставка равна нулю.
func (m *MockService) GetMembershipDiscountRate(customerID string) (float64, error) {
	m.RateCalls++
	if m.RateErr != nil {
		return 0, m.RateErr
	}
	return m.Rates[customerID], nil
}

// GetProfile возвращает профиль из настроенного справочника и считает вызовы.
func (m *MockService) GetProfile(customerID string) (domain.CustomerProfile, error) {
	m.ProfileCalls++
	if m.ProfileErr != nil {
		return domain.CustomerProfile{}, m.ProfileErr
	}
	profile, ok := m.Profiles[customerID]
	if !ok {
		return domain.CustomerProfile{}, domain.ErrCustomerNotFound
	}
	return profile, nil
}

var _ domain.CustomerDirectory = (*MockService)(nil)
