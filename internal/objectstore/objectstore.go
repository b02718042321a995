// Package objectstore работает с S3-совместимым хранилищем файлов (MinIO, Spaces, AWS S3):
// загрузка слипов и книг, публичные ссылки на обложки и подписанные ссылки на приватные объекты.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/magabrotheeeer/ebook-store/internal/config"
)

// Client - клиент хранилища с именами бакетов из конфига.
type Client struct {
	s3Client      *s3.S3
	endpoint      string
	publicBaseURL string

	SlipsBucket  string
	EbooksBucket string
	CoversBucket string
}

// New создаёт клиента. Сеть при создании не используется.
func New(cfg config.ObjectStorage) (*Client, error) {
	const op = "objectstore.New"

	awsCfg := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.PathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Client{
		s3Client:      s3.New(sess),
		endpoint:      strings.TrimRight(cfg.Endpoint, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		SlipsBucket:   cfg.SlipsBucket,
		EbooksBucket:  cfg.EbooksBucket,
		CoversBucket:  cfg.CoversBucket,
	}, nil
}

// Upload загружает объект в бакет.
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	const op = "objectstore.Upload"
	_, err := c.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет объект.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	const op = "objectstore.Delete"
	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PresignGet возвращает ссылку на приватный объект, действующую ttl.
// Непустой filename добавляет в ответ заголовок Content-Disposition с этим именем.
func (c *Client) PresignGet(bucket, key string, ttl time.Duration, filename string) (string, error) {
	const op = "objectstore.PresignGet"
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if filename != "" {
		input.ResponseContentDisposition = aws.String(ContentDisposition(filename))
	}
	req, _ := c.s3Client.GetObjectRequest(input)

	signed, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// PublicURL возвращает публичную ссылку на объект публичного бакета.
func (c *Client) PublicURL(bucket, key string) string {
	base := c.publicBaseURL
	if base == "" {
		base = c.endpoint
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, key)
}

// KeyFromPublicURL извлекает ключ объекта из ссылки, построенной PublicURL.
func (c *Client) KeyFromPublicURL(bucket, publicURL string) (string, bool) {
	base := c.publicBaseURL
	if base == "" {
		base = c.endpoint
	}
	prefix := fmt.Sprintf("%s/%s/", base, bucket)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

// ContentDisposition собирает значение заголовка для скачивания файла с именем в UTF-8.
func ContentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, encodeExtValue(filename))
}

// encodeExtValue кодирует значение filename* по RFC 5987: все байты вне attr-char
// записываются как %XX.
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}

// SlipKey - ключ слипа в бакете slips: {userId}/{orderId}/{unixMillis}{ext}
func SlipKey(userID, orderID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s/%s/%d%s", userID, orderID, at.UnixMilli(), ext)
}

// AssetKey - ключ файла книги или обложки: {unixMillis}{ext}
func AssetKey(at time.Time, ext string) string {
	return fmt.Sprintf("%d%s", at.UnixMilli(), ext)
}
