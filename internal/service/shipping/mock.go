package shipping

import "github.com/vladislavdragonenkov/checkout/internal/domain"

// MockService — конфигурируемая заглушка ShippingRateStore для тестов.
type MockService struct {
	Costs   map[string]int64
	CostErr error

	CostCalls int
}

// NewMockService возвращает mock с пустым справочником тарифов.
func NewMockService() *MockService {
	return &MockService{Costs: make(map[string]int64)}
}

// GetCost возвращает тариф из настроенного справочника и считает вызовы.
func (m *MockService) GetCost(shippingOptionID string) (int64, error) {
	m.CostCalls++
	if m.CostErr != nil {
		return 0, m.CostErr
	}
	cost, ok := m.Costs[shippingOptionID]
	if !ok {
		return 0, domain.ErrShippingOptionNotFound
	}
	return cost, nil
}

var _ domain.ShippingRateStore = (*MockService)(nil)
