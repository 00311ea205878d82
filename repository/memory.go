package repository

import (
	"context"
	"sort"
	"sync"

	"climatefarm/models"
)

// MemoryRepository keeps everything in process memory. It is used when no
// database is configured; contents are lost on restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    []models.User
	readings []models.SensorReading
	runs     []models.TrainingRun
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username || (user.Email != "" && u.Email == user.Email) {
			return ErrDuplicate
		}
	}
	user.ID = uint(len(m.users) + 1)
	m.users = append(m.users, *user)
	return nil
}

func (m *MemoryRepository) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) SaveReading(_ context.Context, reading *models.SensorReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reading.ID = uint(len(m.readings) + 1)
	m.readings = append(m.readings, *reading)
	return nil
}

func (m *MemoryRepository) ListReadings(_ context.Context, filter ReadingFilter) ([]models.SensorReading, error) {
	m.mu.RLock()
	var out []models.SensorReading
	for _, r := range m.readings {
		if filter.DeviceID != "" && r.DeviceID != filter.DeviceID {
			continue
		}
		if filter.AbnormalOnly && !r.IsAbnormal {
			continue
		}
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) SaveTrainingRun(_ context.Context, run *models.TrainingRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MemoryRepository) ListTrainingRuns(_ context.Context, limit int) ([]models.TrainingRun, error) {
	m.mu.RLock()
	out := append([]models.TrainingRun(nil), m.runs...)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
