// Package shortlink allocates the compact public tokens used for recipe
// redirect URLs and resolves them back to recipes.
package shortlink

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/metrics"
)

// Alphabet is the character set tokens are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	DefaultLength      = 6
	DefaultMaxAttempts = 16

	savepoint = "short_link_alloc"
)

// ErrExhausted is returned when every attempt collided with an existing token.
var ErrExhausted = errors.New("short link: no free token found")

// Generator produces random fixed-length tokens.
type Generator struct {
	length int
	rand   io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length, rand: rand.Reader}
}

// Next returns a new token. It does not check for uniqueness.
func (g *Generator) Next() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	token := make([]byte, g.length)
	for i := range token {
		n, err := rand.Int(g.rand, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		token[i] = Alphabet[n.Int64()]
	}
	return string(token), nil
}

// Valid reports whether s could have been produced by a Generator of any length.
func Valid(s string) bool {
	if s == "" || len(s) > 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// InsertFunc persists the owning row with the given token inside tx.
type InsertFunc func(tx *gorm.DB, token string) error

// Allocator assigns a unique token by attempting the insert and retrying on a
// unique violation, so the existence check and the write are one statement.
type Allocator struct {
	next        func() (string, error)
	maxAttempts int
	logger      logrus.FieldLogger
}

// NewAllocator returns an Allocator drawing tokens from gen.
func NewAllocator(gen *Generator, maxAttempts int, logger logrus.FieldLogger) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{next: gen.Next, maxAttempts: maxAttempts, logger: logger}
}

// Assign runs insert with fresh tokens until one is accepted by the store. tx
// must be a transaction: each attempt runs under a savepoint so a rejected
// insert does not abort the enclosing transaction on PostgreSQL.
func (a *Allocator) Assign(tx *gorm.DB, insert InsertFunc) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		token, err := a.next()
		if err != nil {
			return "", err
		}

		if err := tx.SavePoint(savepoint).Error; err != nil {
			return "", fmt.Errorf("failed to create savepoint: %w", err)
		}

		err = insert(tx, token)
		if err == nil {
			return token, nil
		}
		if !IsUniqueViolation(err) {
			return "", err
		}

		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			return "", fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
		}
		metrics.ShortLinkCollisions.Inc()
		a.logger.WithFields(logrus.Fields{
			"token":   token,
			"attempt": attempt,
		}).Warn("short link collision, regenerating")
	}

	return "", ErrExhausted
}
