// Package remote binds the shared profile database to the signed-in
// user and exposes the friends and leaderboard operations.
package remote

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/store"
)

// Collaborator is the remote profile surface used by sync and the UIs.
type Collaborator interface {
	GetProfile(ctx context.Context) (*model.Profile, error)
	UpdatePoints(ctx context.Context, delta int) error
	UpdateStreak(ctx context.Context, streak int) error
	FindByFriendCode(ctx context.Context, code string) (*model.Profile, error)
	SendFriendRequest(ctx context.Context, targetID string) error
	AcceptRequest(ctx context.Context, requestID string) error
	RejectRequest(ctx context.Context, requestID string) error
	RemoveFriend(ctx context.Context, friendID string) error
	ListFriends(ctx context.Context) ([]model.Profile, error)
	ListPendingRequests(ctx context.Context) ([]model.FriendRequest, error)
	GetRankAmongFriends(ctx context.Context) (int, error)
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

// Sessions persists which profile is signed in.
type Sessions interface {
	Session() (string, bool, error)
	SetSession(profileID string) error
	ClearSession() error
}

// Client implements Collaborator over a ProfileStore.
type Client struct {
	profiles *store.ProfileStore
	sessions Sessions
	logger   *log.Logger
}

var _ Collaborator = (*Client)(nil)

// NewClient returns a Client. A nil logger uses the default logger.
func NewClient(profiles *store.ProfileStore, sessions Sessions, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{profiles: profiles, sessions: sessions, logger: logger}
}

// Prompt asks the user for a display name.
type Prompt func(ctx context.Context) (string, error)

// SignInWith asks for a display name and signs in with it. A closed
// prompt and an interrupted one are reported as ErrSignInClosed and
// ErrSignInCancelled.
func (c *Client) SignInWith(ctx context.Context, prompt Prompt) (*model.Profile, error) {
	name, err := prompt(ctx)
	switch {
	case errors.Is(err, huh.ErrUserAborted):
		return nil, c.suppressed(ErrSignInClosed)
	case errors.Is(err, context.Canceled), ctx.Err() != nil:
		return nil, c.suppressed(ErrSignInCancelled)
	case err != nil:
		return nil, wrap("sign in", err)
	}
	return c.SignIn(ctx, name)
}

func (c *Client) suppressed(err error) error {
	c.logger.Debug("sign-in not completed", "reason", err)
	return wrap("sign in", err)
}

// SignIn signs in as the profile with the given display name, creating
// it when it does not exist yet.
func (c *Client) SignIn(ctx context.Context, displayName string) (*model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("sign in", ErrSignInCancelled)
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, wrap("sign in", fmt.Errorf("display name must not be empty"))
	}

	p, err := c.profiles.FindByDisplayName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		p, err = c.profiles.CreateProfile(ctx, name)
		if err == nil {
			c.logger.Info("created profile", "name", p.DisplayName, "code", p.FriendCode)
		}
	}
	if err != nil {
		return nil, wrap("sign in", err)
	}

	if err := c.sessions.SetSession(p.ID); err != nil {
		return nil, wrap("sign in", err)
	}
	return p, nil
}

// SignOut forgets the signed-in profile.
func (c *Client) SignOut() error {
	return wrap("sign out", c.sessions.ClearSession())
}

// SignedIn reports whether a profile is bound.
func (c *Client) SignedIn() bool {
	_, ok, err := c.sessions.Session()
	return err == nil && ok
}

func (c *Client) currentID() (string, error) {
	id, ok, err := c.sessions.Session()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotSignedIn
	}
	return id, nil
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}

// GetProfile returns the signed-in profile.
func (c *Client) GetProfile(ctx context.Context) (*model.Profile, error) {
	id, err := c.currentID()
	if err != nil {
		return nil, wrap("get profile", err)
	}
	p, err := c.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, wrap("get profile", notFound(err, ErrProfileNotFound))
	}
	return p, nil
}

// UpdatePoints atomically adds delta to the signed-in profile's points.
func (c *Client) UpdatePoints(ctx context.Context, delta int) error {
	id, err := c.currentID()
	if err != nil {
		return wrap("update points", err)
	}
	if delta == 0 {
		return nil
	}
	return wrap("update points", notFound(c.profiles.IncrementPoints(ctx, id, delta), ErrProfileNotFound))
}

// UpdateStreak overwrites the signed-in profile's streak.
func (c *Client) UpdateStreak(ctx context.Context, streak int) error {
	id, err := c.currentID()
	if err != nil {
		return wrap("update streak", err)
	}
	return wrap("update streak", notFound(c.profiles.SetStreak(ctx, id, streak), ErrProfileNotFound))
}

// FindByFriendCode looks up another user by friend code.
func (c *Client) FindByFriendCode(ctx context.Context, code string) (*model.Profile, error) {
	p, err := c.profiles.FindByFriendCode(ctx, code)
	if err != nil {
		return nil, wrap("find friend code", notFound(err, ErrProfileNotFound))
	}
	return p, nil
}

// SendFriendRequest sends a request from the signed-in profile.
func (c *Client) SendFriendRequest(ctx context.Context, targetID string) error {
	const op = "send friend request"

	id, err := c.currentID()
	if err != nil {
		return wrap(op, err)
	}
	if targetID == id {
		return wrap(op, ErrSelfRequest)
	}
	if _, err := c.profiles.GetProfile(ctx, targetID); err != nil {
		return wrap(op, notFound(err, ErrProfileNotFound))
	}
	friends, err := c.profiles.IsFriend(ctx, id, targetID)
	if err != nil {
		return wrap(op, err)
	}
	if friends {
		return wrap(op, ErrAlreadyFriends)
	}

	if _, err := c.profiles.CreateFriendRequest(ctx, id, targetID); err != nil {
		return wrap(op, err)
	}
	c.logger.Info("sent friend request", "to", targetID)
	return nil
}

// incoming loads a request and checks it is addressed to the signed-in
// profile.
func (c *Client) incoming(ctx context.Context, requestID string) (string, *model.FriendRequest, error) {
	id, err := c.currentID()
	if err != nil {
		return "", nil, err
	}
	req, err := c.profiles.GetFriendRequest(ctx, requestID)
	if err != nil {
		return "", nil, notFound(err, ErrRequestNotFound)
	}
	if req.ToID != id {
		return "", nil, ErrRequestNotFound
	}
	return id, req, nil
}

// AcceptRequest makes the two profiles friends and removes the request.
// Each side's friend set is written separately.
func (c *Client) AcceptRequest(ctx context.Context, requestID string) error {
	const op = "accept friend request"

	id, req, err := c.incoming(ctx, requestID)
	if err != nil {
		return wrap(op, err)
	}
	if err := c.profiles.AddFriend(ctx, id, req.FromID); err != nil {
		return wrap(op, err)
	}
	if err := c.profiles.AddFriend(ctx, req.FromID, id); err != nil {
		return wrap(op, err)
	}
	if err := c.profiles.DeleteFriendRequest(ctx, req.ID); err != nil {
		return wrap(op, err)
	}
	c.logger.Info("accepted friend request", "from", req.FromName)
	return nil
}

// RejectRequest removes a request addressed to the signed-in profile.
func (c *Client) RejectRequest(ctx context.Context, requestID string) error {
	const op = "reject friend request"

	_, req, err := c.incoming(ctx, requestID)
	if err != nil {
		return wrap(op, err)
	}
	return wrap(op, c.profiles.DeleteFriendRequest(ctx, req.ID))
}

// RemoveFriend removes the friendship from both sides.
func (c *Client) RemoveFriend(ctx context.Context, friendID string) error {
	const op = "remove friend"

	id, err := c.currentID()
	if err != nil {
		return wrap(op, err)
	}
	if err := c.profiles.RemoveFriend(ctx, id, friendID); err != nil {
		return wrap(op, err)
	}
	return wrap(op, c.profiles.RemoveFriend(ctx, friendID, id))
}

// ListFriends returns friends ordered by points, highest first.
func (c *Client) ListFriends(ctx context.Context) ([]model.Profile, error) {
	id, err := c.currentID()
	if err != nil {
		return nil, wrap("list friends", err)
	}
	friends, err := c.profiles.ListFriends(ctx, id)
	return friends, wrap("list friends", err)
}

// ListPendingRequests returns requests addressed to the signed-in profile.
func (c *Client) ListPendingRequests(ctx context.Context) ([]model.FriendRequest, error) {
	id, err := c.currentID()
	if err != nil {
		return nil, wrap("list requests", err)
	}
	reqs, err := c.profiles.ListIncomingRequests(ctx, id)
	return reqs, wrap("list requests", err)
}

// GetRankAmongFriends is one plus the number of friends with strictly
// more points.
func (c *Client) GetRankAmongFriends(ctx context.Context) (int, error) {
	p, err := c.GetProfile(ctx)
	if err != nil {
		return 0, err
	}
	above, err := c.profiles.CountFriendsAbove(ctx, p.ID, p.TotalPoints)
	if err != nil {
		return 0, wrap("rank", err)
	}
	return above + 1, nil
}

// Leaderboard ranks the signed-in profile among its friends. Equal
// points share a rank.
func (c *Client) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	me, err := c.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	friends, err := c.ListFriends(ctx)
	if err != nil {
		return nil, err
	}
	return rank(append(friends, *me), me.ID), nil
}

// GlobalLeaderboard returns the top profiles across all users and the
// signed-in profile's global rank.
func (c *Client) GlobalLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, int, error) {
	me, err := c.GetProfile(ctx)
	if err != nil {
		return nil, 0, err
	}
	top, err := c.profiles.TopProfiles(ctx, limit)
	if err != nil {
		return nil, 0, wrap("global leaderboard", err)
	}
	above, err := c.profiles.CountProfilesAbove(ctx, me.ID, me.TotalPoints)
	if err != nil {
		return nil, 0, wrap("global leaderboard", err)
	}
	return rank(top, me.ID), above + 1, nil
}

func rank(profiles []model.Profile, selfID string) []model.LeaderboardEntry {
	slices.SortStableFunc(profiles, func(a, b model.Profile) int {
		if a.TotalPoints != b.TotalPoints {
			return b.TotalPoints - a.TotalPoints
		}
		return strings.Compare(a.DisplayName, b.DisplayName)
	})

	entries := make([]model.LeaderboardEntry, len(profiles))
	for i, p := range profiles {
		r := i + 1
		if i > 0 && p.TotalPoints == profiles[i-1].TotalPoints {
			r = entries[i-1].Rank
		}
		entries[i] = model.LeaderboardEntry{Rank: r, Profile: p, IsSelf: p.ID == selfID}
	}
	return entries
}
