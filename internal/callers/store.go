// Package callers records the phone numbers that reach the helpline.
package callers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rakshak-ai/internal/db"
)

// MinMobileLength is the shortest accepted mobile number.
const MinMobileLength = 9

var ErrInvalidMobile = errors.New("mobile number too short")

// Caller is one row of the callers table.
type Caller struct {
	MobileNo  string    `json:"mobileNo"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// Store persists callers.
type Store struct {
	conn *db.Connection
	now  func() time.Time
}

// NewStore creates a store on an open connection. The callers table is
// created by directory.EnsureSchema.
func NewStore(conn *db.Connection) *Store {
	return &Store{conn: conn, now: time.Now}
}

// Touch creates the caller or refreshes its last_used time.
func (s *Store) Touch(ctx context.Context, mobileNo string) (*Caller, error) {
	mobileNo = strings.TrimSpace(mobileNo)
	if len(mobileNo) < MinMobileLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMobile, mobileNo)
	}

	now := s.now().UTC().UnixMilli()
	_, err := s.conn.DB.ExecContext(ctx, s.conn.Rebind(`
		INSERT INTO callers (mobile_no, created_at, last_used)
		VALUES (?, ?, ?)
		ON CONFLICT (mobile_no) DO UPDATE SET last_used = excluded.last_used
	`), mobileNo, now, now)
	if err != nil {
		return nil, fmt.Errorf("touch caller: %w", err)
	}
	return s.Get(ctx, mobileNo)
}

// Get returns a caller by number.
func (s *Store) Get(ctx context.Context, mobileNo string) (*Caller, error) {
	var created, used int64
	err := s.conn.DB.QueryRowContext(ctx, s.conn.Rebind(`
		SELECT created_at, last_used FROM callers WHERE mobile_no = ?
	`), mobileNo).Scan(&created, &used)
	if err != nil {
		return nil, fmt.Errorf("get caller %s: %w", mobileNo, err)
	}
	return &Caller{
		MobileNo:  mobileNo,
		CreatedAt: time.UnixMilli(created).UTC(),
		LastUsed:  time.UnixMilli(used).UTC(),
	}, nil
}
