package models

import "time"

// Product описывает электронную книгу в каталоге.
// FilePath - ключ объекта в приватном бакете ebooks, CoverImageURL - публичная ссылка на обложку.
type Product struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"` // Цена в батах
	CoverImageURL *string   `json:"cover_image_url"`
	FilePath      string    `json:"-"`
	PageCount     int       `json:"page_count,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductInput - данные для создания или обновления товара администратором.
type ProductInput struct {
	Title         string
	Description   string
	Price         int64
	CoverImageURL *string
	FilePath      string
	PageCount     int
	IsActive      bool
}

// ProductSummary - сокращённое представление товара для списков заказов и библиотеки.
type ProductSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	CoverImageURL *string `json:"cover_image_url"`
	Price         int64   `json:"price"`
}
