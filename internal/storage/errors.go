// Package storage содержит общие ошибки слоя хранения данных.
package storage

import "errors"

var (
	// ErrNotFound - запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrConflict - нарушено ограничение уникальности.
	ErrConflict = errors.New("conflict")
	// ErrProductInUse - на товар ссылаются заказы, удалить его нельзя.
	ErrProductInUse = errors.New("product is referenced by orders")
	// ErrInvalidTransition - текущий статус заказа не допускает запрошенный переход.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrAlreadyReviewed - по уведомлению уже принято решение.
	ErrAlreadyReviewed = errors.New("payment already reviewed")
)
