// Package models содержит доменные структуры магазина электронных книг:
// профиль покупателя, товар, заказ, уведомление об оплате и право на скачивание.
// Структуры используются в бизнес-логике, хранилище и HTTP-ответах.
package models

import "time"

// RoleAdmin - роль администратора магазина. Обычный покупатель роли не имеет.
const RoleAdmin = "admin"

// Profile представляет зарегистрированного пользователя магазина.
type Profile struct {
	ID           string    `json:"id"`           // Уникальный идентификатор (uuid)
	Email        string    `json:"email"`        // Электронная почта, используется для входа
	DisplayName  string    `json:"display_name"` // Отображаемое имя
	Role         *string   `json:"role"`         // "admin" или nil
	PasswordHash string    `json:"-"`            // bcrypt-хэш пароля
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin сообщает, является ли профиль администратором.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role != nil && *p.Role == RoleAdmin
}
