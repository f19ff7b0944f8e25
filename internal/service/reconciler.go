package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/metrics"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
	"github.com/sakif/editorialchain/internal/streak"
)

// Reconciler turns a freshly authenticated identity into the merged
// "current user" view, creating or updating the stored profile on the way.
//
// CONTRACT:
//   - First sight of an identity: insert a full record (streak 1, logins 1,
//     server timestamps), then re-read it so the view carries the resolved times.
//   - Returning identity: compute the streak from lastLogin (see package
//     streak), write lastLogin/streak/totalLogins, and build the view from
//     the locally computed values. One read, one write.
//   - Any store failure: log it, count it, return the identity-only view.
//     Reconcile never returns an error; a broken store must not block sign-in.
//
// Display fields (name, email, photo) are copied into the record only when
// it is created. Later sign-ins never re-sync them, and the stored values
// win in the merged view.
type Reconciler struct {
	store  repository.ProfileStore
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewReconciler creates a Reconciler. loc is the calendar used to count
// days between visits; nil means time.Local.
func NewReconciler(store repository.ProfileStore, loc *time.Location, logger *slog.Logger) *Reconciler {
	if loc == nil {
		loc = time.Local
	}
	return &Reconciler{
		store:  store,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

// Reconcile handles one identity event. A nil identity (sign-out) clears the
// view: it returns nil and touches nothing.
func (r *Reconciler) Reconcile(ctx context.Context, id *model.Identity) *model.CurrentUser {
	if id == nil {
		metrics.Reconciliations.WithLabelValues(metrics.OutcomeSignOut).Inc()
		return nil
	}

	start := time.Now()
	defer func() { metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	p, err := r.store.GetProfile(ctx, id.UID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return r.create(ctx, *id)
	case err != nil:
		return r.fallback(*id, "reading profile", err)
	}
	return r.returning(ctx, *id, p)
}

// create inserts the first record for an identity.
func (r *Reconciler) create(ctx context.Context, id model.Identity) *model.CurrentUser {
	name := id.DisplayName
	if name == "" {
		name = model.DefaultDisplayName
	}
	d := streak.First()

	err := r.store.InsertProfile(ctx, model.NewProfile{
		UID:         id.UID,
		DisplayName: name,
		Email:       id.Email,
		PhotoURL:    id.PhotoURL,
		JoinedAt:    model.ServerTimestamp(),
		LastLogin:   model.ServerTimestamp(),
		Streak:      d.Streak,
		TotalLogins: d.TotalLogins,
	})
	if errors.Is(err, apperror.ErrConflict) {
		// Another instance created the record between our read and insert.
		// Count this visit against it like any returning reader.
		p, err := r.store.GetProfile(ctx, id.UID)
		if err != nil {
			return r.fallback(id, "reading profile after conflict", err)
		}
		return r.returning(ctx, id, p)
	}
	if err != nil {
		return r.fallback(id, "inserting profile", err)
	}

	// Re-read: joinedAt/lastLogin were assigned by the store.
	p, err := r.store.GetProfile(ctx, id.UID)
	if err != nil {
		return r.fallback(id, "re-reading new profile", err)
	}

	r.record(id.UID, d)
	return model.Merge(id, p)
}

// returning updates the counters of an existing record.
func (r *Reconciler) returning(ctx context.Context, id model.Identity, p *model.Profile) *model.CurrentUser {
	now := r.now()
	d := streak.Next(p.Streak, p.TotalLogins, p.LastLogin, now, r.loc)

	err := r.store.UpdateProfile(ctx, id.UID, model.ProfileUpdate{
		LastLogin:   model.ServerTimestamp(),
		Streak:      &d.Streak,
		TotalLogins: &d.TotalLogins,
	})
	if err != nil {
		return r.fallback(id, "updating profile", err)
	}

	// The view uses local now for lastLogin; the stored value is the
	// server's and may differ by clock skew.
	p.Streak = d.Streak
	p.TotalLogins = d.TotalLogins
	p.LastLogin = &now

	r.record(id.UID, d)
	return model.Merge(id, p)
}

func (r *Reconciler) record(uid string, d streak.Decision) {
	metrics.Reconciliations.WithLabelValues(string(d.Outcome)).Inc()
	r.logger.Info("session reconciled",
		slog.String("uid", uid),
		slog.String("outcome", string(d.Outcome)),
		slog.Int("streak", d.Streak),
		slog.Int("totalLogins", d.TotalLogins),
	)
}

func (r *Reconciler) fallback(id model.Identity, step string, err error) *model.CurrentUser {
	metrics.Reconciliations.WithLabelValues(metrics.OutcomeFallback).Inc()
	r.logger.Error("reconcile failed, using identity only",
		slog.String("uid", id.UID),
		slog.String("step", step),
		slog.String("error", err.Error()),
	)
	return model.Merge(id, nil)
}
