package orders

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tacolabs/hungry-agent/internal/log"
)

// GormStore persists to SQLite through GORM.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// Open creates (or opens) the SQLite database at path and migrates the
// schema.
func Open(path string) (*GormStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&Order{}, &Session{}, &VoiceActivity{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	log.Component("store").Info("database ready", "path", path)
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateOrder(order *Order) error {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = StatusPending
	}
	return s.db.Create(order).Error
}

func (s *GormStore) GetOrder(id uint) (*Order, error) {
	var order Order
	if err := s.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) ListOrders(sessionID string, limit int) ([]*Order, error) {
	q := s.db.Order("created_at DESC")
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*Order
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) UpdateOrderStatus(id uint, status OrderStatus) error {
	res := s.db.Model(&Order{}).Where("id = ?", id).Updates(map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CountOrdersSince(since time.Time) (int64, error) {
	var n int64
	err := s.db.Model(&Order{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (s *GormStore) GetOrCreateSession(sessionID string) (*Session, error) {
	var session Session
	err := s.db.Where("session_id = ?", sessionID).First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	session = Session{
		SessionID:    sessionID,
		Status:       SessionActive,
		StartedAt:    now,
		LastActivity: now,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) UpdateSession(session *Session) error {
	return s.db.Save(session).Error
}

func (s *GormStore) ListSessions() ([]*Session, error) {
	var out []*Session
	if err := s.db.Order("started_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) CountActiveSessions() (int64, error) {
	var n int64
	err := s.db.Model(&Session{}).
		Where("status IN ?", []SessionStatus{SessionActive, SessionProcessing}).
		Count(&n).Error
	return n, err
}

func (s *GormStore) RecordActivity(activity *VoiceActivity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	return s.db.Create(activity).Error
}

func (s *GormStore) ListActivity(sessionID string, limit int) ([]*VoiceActivity, error) {
	q := s.db.Order("created_at DESC")
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*VoiceActivity
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
