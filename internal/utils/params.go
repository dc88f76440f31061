package utils

import (
	"strconv"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
)

// ParseID разбирает положительный числовой идентификатор из параметра пути
func ParseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidArgument("Неверный формат ID " + what)
	}
	return id, nil
}

// QueryInt разбирает целое из query-параметра; пустое значение даёт def
func QueryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidArgument("Неверное числовое значение: " + raw)
	}
	return n, nil
}
