package service

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================
//
// Hand-written in-memory fakes of the repository interfaces. Each has
// injectable errors so tests can simulate a store that is down, and call
// counters so tests can assert how many round trips were made.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	now      time.Time // resolves server timestamps

	getErr, insertErr, updateErr, renameErr, incErr, boardErr error
	// failGetAfter makes GetProfile fail from the n-th call on (1-based); 0 = never
	failGetAfter int

	gets, inserts, updates int
	lastBoard             repository.LeaderboardQuery
}

func newFakeProfileStore(now time.Time) *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]model.Profile), now: now}
}

func (f *fakeProfileStore) put(p model.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.UID] = p
}

func (f *fakeProfileStore) get(uid string) (model.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[uid]
	return p, ok
}

func (f *fakeProfileStore) GetProfile(_ context.Context, uid string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.failGetAfter > 0 && f.gets >= f.failGetAfter {
		return nil, errStoreDown
	}
	p, ok := f.profiles[uid]
	if !ok {
		return nil, apperror.NotFound("profile", uid)
	}
	return &p, nil
}

func (f *fakeProfileStore) InsertProfile(_ context.Context, np model.NewProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.profiles[np.UID]; ok {
		return apperror.Conflict("profile", np.UID)
	}
	p := model.Profile{
		UID:         np.UID,
		DisplayName: np.DisplayName,
		Email:       np.Email,
		PhotoURL:    np.PhotoURL,
		Streak:      np.Streak,
		TotalLogins: np.TotalLogins,
		Stats:       np.Stats,
	}
	if !np.JoinedAt.IsZero() {
		t := np.JoinedAt.Resolve(f.now)
		p.JoinedAt = &t
	}
	if !np.LastLogin.IsZero() {
		t := np.LastLogin.Resolve(f.now)
		p.LastLogin = &t
	}
	f.profiles[np.UID] = p
	return nil
}

func (f *fakeProfileStore) UpdateProfile(_ context.Context, uid string, u model.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.profiles[uid]
	if !ok {
		return apperror.NotFound("profile", uid)
	}
	if !u.LastLogin.IsZero() {
		t := u.LastLogin.Resolve(f.now)
		p.LastLogin = &t
	}
	if u.Streak != nil {
		p.Streak = *u.Streak
	}
	if u.TotalLogins != nil {
		p.TotalLogins = *u.TotalLogins
	}
	f.profiles[uid] = p
	return nil
}

func (f *fakeProfileStore) UpdateDisplayName(_ context.Context, uid, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renameErr != nil {
		return f.renameErr
	}
	p, ok := f.profiles[uid]
	if !ok {
		return apperror.NotFound("profile", uid)
	}
	p.DisplayName = name
	f.profiles[uid] = p
	return nil
}

func (f *fakeProfileStore) IncrementStats(_ context.Context, uid string, d model.Stats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return f.incErr
	}
	p, ok := f.profiles[uid]
	if !ok {
		return apperror.NotFound("profile", uid)
	}
	p.Stats.ArticlesRead += d.ArticlesRead
	p.Stats.TimeSpent += d.TimeSpent
	p.Stats.CommentsMade += d.CommentsMade
	f.profiles[uid] = p
	return nil
}

func (f *fakeProfileStore) Leaderboard(_ context.Context, q repository.LeaderboardQuery) ([]model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBoard = q
	if f.boardErr != nil {
		return nil, f.boardErr
	}
	all := make([]model.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		switch q.SortBy {
		case model.SortByArticlesRead:
			if a.Stats.ArticlesRead != b.Stats.ArticlesRead {
				return a.Stats.ArticlesRead > b.Stats.ArticlesRead
			}
		case model.SortByDisplayName:
			if !strings.EqualFold(a.DisplayName, b.DisplayName) {
				return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
			}
		default:
			if a.Streak != b.Streak {
				return a.Streak > b.Streak
			}
		}
		return a.UID < b.UID
	})
	if q.Offset >= len(all) {
		return []model.Profile{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[q.Offset:end], nil
}

type fakePreferenceStore struct {
	values map[string]string // "uid/key" → value
	getErr error
	setErr error
}

func newFakePreferenceStore() *fakePreferenceStore {
	return &fakePreferenceStore{values: make(map[string]string)}
}

func (f *fakePreferenceStore) GetPreference(_ context.Context, uid, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[uid+"/"+key]
	if !ok {
		return "", apperror.NotFound("preference", key)
	}
	return v, nil
}

func (f *fakePreferenceStore) SetPreference(_ context.Context, uid, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[uid+"/"+key] = value
	return nil
}

func (f *fakePreferenceStore) DeletePreference(_ context.Context, uid, key string) error {
	delete(f.values, uid+"/"+key)
	return nil
}

type fakeArchive struct {
	name, uid string
	data      []byte
	err       error
}

func (f *fakeArchive) Put(_ context.Context, uid, name string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uid, f.name, f.data = uid, name, data
	return uid + "/" + name, nil
}
