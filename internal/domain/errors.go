package domain

import "errors"

var (
	// ErrValidation - общий маркер ошибок валидации входных данных checkout.
	ErrValidation = errors.New("validation failed")
	// Ошибка отсутствующего названия позиции.
	ErrItemNameRequired = errors.New("item name is required")
	// Ошибка отрицательной цены позиции.
	ErrItemPriceNegative = errors.New("item price must be non-negative")
	// Ошибка некорректного email покупателя.
	ErrUserEmailInvalid = errors.New("user email is invalid")
	// Ошибка неизвестного уровня программы лояльности.
	ErrUserTierInvalid = errors.New("user tier is invalid")
	// Ошибка некорректной ставки скидки (вне диапазона [0, 1]).
	ErrDiscountRateInvalid = errors.New("discount rate must be within [0, 1]")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotPersisted - репозиторий вернул пустой заказ без ошибки.
	ErrOrderNotPersisted = errors.New("order repository returned no order")
)

// IsValidation проверяет, относится ли ошибка к ошибкам валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// validationError связывает конкретную причину с общим маркером ErrValidation.
type validationError struct {
	cause error
}

func (e *validationError) Error() string {
	return e.cause.Error()
}

func (e *validationError) Unwrap() []error {
	return []error{ErrValidation, e.cause}
}

// NewValidationError оборачивает причину так, чтобы errors.Is срабатывал
// и для неё, и для ErrValidation.
func NewValidationError(cause error) error {
	if cause == nil {
		return nil
	}
	return &validationError{cause: cause}
}
