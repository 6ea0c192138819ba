package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/quest-tracker/internal/model"
)

// friendCodeLength is the number of characters in a friend code.
const friendCodeLength = 6

// friendCodeAttempts bounds retries when a generated code collides.
const friendCodeAttempts = 8

// ProfileStore holds profiles, friendships and friend requests in a
// SQLite database that several devices may share.
type ProfileStore struct {
	db *sqlx.DB
}

// NewProfileStore opens (or creates) the profile database at dbPath.
func NewProfileStore(dbPath string) (*ProfileStore, error) {
	db, err := openDB(dbPath, profileMigrations)
	if err != nil {
		return nil, err
	}
	return &ProfileStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *ProfileStore) Close() error {
	return s.db.Close()
}

// newFriendCode derives a short upper-case code from a random UUID.
func newFriendCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:friendCodeLength])
}

// CreateProfile inserts a new profile with a unique friend code.
func (s *ProfileStore) CreateProfile(ctx context.Context, displayName string) (*model.Profile, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, fmt.Errorf("display name must not be empty")
	}

	now := time.Now().UTC()
	p := model.Profile{
		ID:          uuid.New().String(),
		DisplayName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var lastErr error
	for range friendCodeAttempts {
		p.FriendCode = newFriendCode()
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO profiles (id, display_name, friend_code, total_points, streak, created_at, updated_at)
			VALUES (?, ?, ?, 0, 0, ?, ?)`,
			p.ID, p.DisplayName, p.FriendCode, p.CreatedAt, p.UpdatedAt,
		)
		if err == nil {
			return &p, nil
		}
		if !strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("creating profile: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("creating profile: no free friend code: %w", lastErr)
}

// GetProfile retrieves a profile by ID.
func (s *ProfileStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.GetContext(ctx, &p, "SELECT * FROM profiles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile %s: %w", id, err)
	}
	return &p, nil
}

// FindByDisplayName returns the oldest profile with the given name.
func (s *ProfileStore) FindByDisplayName(ctx context.Context, name string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.GetContext(ctx, &p,
		"SELECT * FROM profiles WHERE display_name = ? ORDER BY created_at LIMIT 1",
		strings.TrimSpace(name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile named %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding profile %q: %w", name, err)
	}
	return &p, nil
}

// FindByFriendCode looks up a profile by its friend code, ignoring case
// and a leading '#'.
func (s *ProfileStore) FindByFriendCode(ctx context.Context, code string) (*model.Profile, error) {
	code = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(code), "#"))
	var p model.Profile
	err := s.db.GetContext(ctx, &p, "SELECT * FROM profiles WHERE friend_code = ?", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("friend code %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding friend code %s: %w", code, err)
	}
	return &p, nil
}

// IncrementPoints atomically adds delta to a profile's total points.
func (s *ProfileStore) IncrementPoints(ctx context.Context, id string, delta int) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET total_points = total_points + ?, updated_at = ? WHERE id = ?",
		delta, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("incrementing points for %s: %w", id, err)
	}
	return requireRow(result, "profile", id)
}

// SetStreak overwrites a profile's streak.
func (s *ProfileStore) SetStreak(ctx context.Context, id string, streak int) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET streak = ?, updated_at = ? WHERE id = ?",
		streak, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting streak for %s: %w", id, err)
	}
	return requireRow(result, "profile", id)
}

func requireRow(result sql.Result, kind, id string) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// CreateFriendRequest records a request from one profile to another.
// A repeated request between the same pair returns the existing one.
func (s *ProfileStore) CreateFriendRequest(ctx context.Context, fromID, toID string) (*model.FriendRequest, error) {
	req := model.FriendRequest{
		ID:        uuid.New().String(),
		FromID:    fromID,
		ToID:      toID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO friend_requests (id, from_id, to_id, created_at)
		VALUES (?, ?, ?, ?)`,
		req.ID, req.FromID, req.ToID, req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	var stored model.FriendRequest
	err = s.db.GetContext(ctx, &stored, `
		SELECT id, from_id, to_id, created_at, '' AS from_name
		FROM friend_requests WHERE from_id = ? AND to_id = ?`, fromID, toID)
	if err != nil {
		return nil, fmt.Errorf("reading friend request: %w", err)
	}
	return &stored, nil
}

// GetFriendRequest retrieves a request by ID.
func (s *ProfileStore) GetFriendRequest(ctx context.Context, id string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := s.db.GetContext(ctx, &req, `
		SELECT r.id, r.from_id, r.to_id, r.created_at, p.display_name AS from_name
		FROM friend_requests r
		INNER JOIN profiles p ON p.id = r.from_id
		WHERE r.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("friend request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting friend request %s: %w", id, err)
	}
	return &req, nil
}

// DeleteFriendRequest removes a request.
func (s *ProfileStore) DeleteFriendRequest(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM friend_requests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting friend request %s: %w", id, err)
	}
	return requireRow(result, "friend request", id)
}

// ListIncomingRequests returns requests addressed to a profile, oldest first.
func (s *ProfileStore) ListIncomingRequests(ctx context.Context, profileID string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := s.db.SelectContext(ctx, &reqs, `
		SELECT r.id, r.from_id, r.to_id, r.created_at, p.display_name AS from_name
		FROM friend_requests r
		INNER JOIN profiles p ON p.id = r.from_id
		WHERE r.to_id = ?
		ORDER BY r.created_at, r.id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests for %s: %w", profileID, err)
	}
	return reqs, nil
}

// AddFriend adds friendID to profileID's friend set. It writes one
// direction only; callers write the reverse edge separately.
func (s *ProfileStore) AddFriend(ctx context.Context, profileID, friendID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO friendships (profile_id, friend_id, created_at)
		VALUES (?, ?, ?)`,
		profileID, friendID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("adding friend %s to %s: %w", friendID, profileID, err)
	}
	return nil
}

// RemoveFriend removes friendID from profileID's friend set. Removing an
// absent edge is not an error.
func (s *ProfileStore) RemoveFriend(ctx context.Context, profileID, friendID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM friendships WHERE profile_id = ? AND friend_id = ?",
		profileID, friendID,
	)
	if err != nil {
		return fmt.Errorf("removing friend %s from %s: %w", friendID, profileID, err)
	}
	return nil
}

// IsFriend reports whether friendID is in profileID's friend set.
func (s *ProfileStore) IsFriend(ctx context.Context, profileID, friendID string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM friendships WHERE profile_id = ? AND friend_id = ?",
		profileID, friendID,
	)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return n > 0, nil
}

// ListFriends returns a profile's friends ordered by total points
// descending, then by name.
func (s *ProfileStore) ListFriends(ctx context.Context, profileID string) ([]model.Profile, error) {
	var friends []model.Profile
	err := s.db.SelectContext(ctx, &friends, `
		SELECT p.* FROM profiles p
		INNER JOIN friendships f ON f.friend_id = p.id
		WHERE f.profile_id = ?
		ORDER BY p.total_points DESC, p.display_name`, profileID)
	if err != nil {
		return nil, fmt.Errorf("listing friends of %s: %w", profileID, err)
	}
	return friends, nil
}

// CountFriendsAbove counts a profile's friends with strictly more points.
func (s *ProfileStore) CountFriendsAbove(ctx context.Context, profileID string, points int) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM profiles p
		INNER JOIN friendships f ON f.friend_id = p.id
		WHERE f.profile_id = ? AND p.total_points > ?`, profileID, points)
	if err != nil {
		return 0, fmt.Errorf("counting friends of %s: %w", profileID, err)
	}
	return n, nil
}

// TopProfiles returns the highest scoring profiles across all users.
func (s *ProfileStore) TopProfiles(ctx context.Context, limit int) ([]model.Profile, error) {
	if limit <= 0 {
		limit = 10
	}
	var profiles []model.Profile
	err := s.db.SelectContext(ctx, &profiles, `
		SELECT * FROM profiles
		ORDER BY total_points DESC, display_name
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing top profiles: %w", err)
	}
	return profiles, nil
}

// CountProfilesAbove counts profiles other than excludeID with strictly
// more points.
func (s *ProfileStore) CountProfilesAbove(ctx context.Context, excludeID string, points int) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM profiles WHERE id != ? AND total_points > ?",
		excludeID, points,
	)
	if err != nil {
		return 0, fmt.Errorf("counting profiles: %w", err)
	}
	return n, nil
}
