package catalog

import "github.com/vladislavdragonenkov/checkout/internal/domain"

// MockService — конфигурируемая заглушка CatalogStore для тестов и локального
// запуска без внешнего каталога.
type MockService struct {
	Prices   map[string]int64
	Stock    map[string]int32
	PriceErr error
	StockErr error

	PriceCalls int
	StockCalls int
}

// NewMockService возвращает mock с пустым каталогом.
func NewMockService() *MockService {
	return &MockService{
		Prices: make(map[string]int64),
		Stock:  make(map[string]int32),
	}
}

// GetUnitPrice возвращает цену из настроенного каталога и считает вызовы.
func (m *MockService) GetUnitPrice(productID string) (int64, error) {
	m.PriceCalls++
	if m.PriceErr != nil {
		return 0, m.PriceErr
	}
	price, ok := m.Prices[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return price, nil
}

// GetStock возвращает остаток из настроенного каталога и считает вызовы.
func (m *MockService) GetStock(productID string) (int32, error) {
	m.StockCalls++
	if m.StockErr != nil {
		return 0, m.StockErr
	}
	stock, ok := m.Stock[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return stock, nil
}

var _ domain.CatalogStore = (*MockService)(nil)
