// Package store собирает HTTP API магазина.
package store

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/dashboard"
	paymentsapprove "github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/payments/approve"
	paymentslist "github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/payments/list"
	paymentsreject "github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/payments/reject"
	productscreate "github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/products/create"
	productslist "github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/products/list"
	productsread "github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/products/read"
	productsremove "github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/products/remove"
	productsupdate "github.com/magabrotheeeer/ebook-store/internal/http/handlers/admin/products/update"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/catalog/detail"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/catalog/home"
	cataloglist "github.com/magabrotheeeer/ebook-store/internal/http/handlers/catalog/list"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/health"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/library/download"
	librarylist "github.com/magabrotheeeer/ebook-store/internal/http/handlers/library/list"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/order/buy"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/order/checkout"
	orderlist "github.com/magabrotheeeer/ebook-store/internal/http/handlers/order/list"
	"github.com/magabrotheeeer/ebook-store/internal/http/handlers/order/submitslip"
	"github.com/magabrotheeeer/ebook-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ebook-store/internal/metrics"
)

// Лимит на вход и регистрацию с одного IP.
const (
	authRateLimit = rate.Limit(1)
	authRateBurst = 10
)

// AuthService - всё, что роутеру нужно от сервиса аутентификации.
type AuthService interface {
	login.Service
	register.Service
	profile.Service
	middlewarectx.TokenValidator
	middlewarectx.AdminChecker
}

// CatalogService - витрина и управление товарами.
type CatalogService interface {
	home.Service
	cataloglist.Service
	detail.Service
	productslist.Service
	productsread.Service
	productscreate.Service
	productsupdate.Service
	productsremove.Service
}

// CheckoutService - заказы и загрузка слипов.
type CheckoutService interface {
	buy.Service
	orderlist.Service
	checkout.Service
	submitslip.Service
}

// ReviewService - проверка оплат администратором.
type ReviewService interface {
	paymentslist.Service
	paymentsapprove.Service
	paymentsreject.Service
}

// LibraryService - библиотека покупателя.
type LibraryService interface {
	librarylist.Service
	download.Service
}

// Services - зависимости маршрутов.
type Services struct {
	Auth      AuthService
	Catalog   CatalogService
	Checkout  CheckoutService
	Review    ReviewService
	Library   LibraryService
	Dashboard dashboard.Service
	DB        health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, cookie middlewarectx.CookieConfig) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		metrics.Middleware,
		middlewarectx.Session(svc.Auth, cookie, logger),
	)

	// Открытые конечные точки
	r.Get("/", home.New(logger, svc.Catalog).ServeHTTP)
	r.Get("/products", cataloglist.New(logger, svc.Catalog).ServeHTTP)
	r.Get("/products/{id}", detail.New(logger, svc.Catalog).ServeHTTP)
	// Анонимного покупателя обработчик сам отправит на вход.
	r.Post("/products/{id}/buy", buy.New(logger, svc.Checkout).ServeHTTP)
	r.Get("/healthz", health.New(logger, svc.DB).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)

	// Только для гостей
	limiter := middlewarectx.NewLimiter(authRateLimit, authRateBurst)
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.GuestOnly())
		r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth, cookie).ServeHTTP)
	})

	// Группа с обязательной сессией
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RequireAuth(logger))
		r.Post("/logout", logout.New(logger, cookie).ServeHTTP)
		r.Get("/profile", profile.New(logger, svc.Auth).ServeHTTP)
		r.Get("/orders", orderlist.New(logger, svc.Checkout).ServeHTTP)
		r.Get("/orders/{id}/pay", checkout.New(logger, svc.Checkout).ServeHTTP)
		r.Post("/orders/{id}/pay", submitslip.New(logger, svc.Checkout).ServeHTTP)
		r.Get("/library", librarylist.New(logger, svc.Library).ServeHTTP)
		r.Get("/library/{productId}/download", download.New(logger, svc.Library).ServeHTTP)
	})

	// Администратор
	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewarectx.RequireAdmin(svc.Auth, logger))
		r.Get("/", dashboard.New(logger, svc.Dashboard).ServeHTTP)
		r.Get("/products", productslist.New(logger, svc.Catalog).ServeHTTP)
		r.Post("/products", productscreate.New(logger, svc.Catalog).ServeHTTP)
		r.Get("/products/{id}", productsread.New(logger, svc.Catalog).ServeHTTP)
		r.Put("/products/{id}", productsupdate.New(logger, svc.Catalog).ServeHTTP)
		r.Delete("/products/{id}", productsremove.New(logger, svc.Catalog).ServeHTTP)
		r.Get("/payments", paymentslist.New(logger, svc.Review).ServeHTTP)
		r.Post("/payments/{id}/approve", paymentsapprove.New(logger, svc.Review).ServeHTTP)
		r.Post("/payments/{id}/reject", paymentsreject.New(logger, svc.Review).ServeHTTP)
	})
}

// NewRouter создает chi-роутер со всеми маршрутами.
func NewRouter(logger *slog.Logger, svc Services, cookie middlewarectx.CookieConfig) http.Handler {
	router := chi.NewRouter()
	RegisterRoutes(router, logger, svc, cookie)
	return router
}
