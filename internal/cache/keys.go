package cache

import "time"

const (
	// KeyCatalogList - активные товары: catalog:list:{limit}
	KeyCatalogList = "catalog:list:%d"
	// KeyCatalogProduct - карточка активного товара: catalog:product:{id}
	KeyCatalogProduct = "catalog:product:%s"
	// PrefixCatalog - общий префикс ключей каталога для сброса после изменений в админке
	PrefixCatalog = "catalog:"

	// KeyIdemReview - решение администратора: idem:review:{admin_id}:{action}:{notification_id}:{key}
	KeyIdemReview = "idem:review:%s:%s:%s:%s"

	// KeyLoginAttempts - неудачные попытки входа: auth:attempts:{email}
	KeyLoginAttempts = "auth:attempts:%s"
	// KeyLoginLock - блокировка входа: auth:lock:{email}
	KeyLoginLock = "auth:lock:%s"
)

var (
	TTLCatalog     = 5 * time.Minute
	TTLIdempotency = 24 * time.Hour
	LoginWindow    = 15 * time.Minute
	LoginLock      = 15 * time.Minute
)
