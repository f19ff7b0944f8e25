package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenamer struct{ renamed map[string]string }

func (f *fakeRenamer) RenameViews(uid, name string) {
	if f.renamed == nil {
		f.renamed = make(map[string]string)
	}
	f.renamed[uid] = name
}

func TestUpdateDisplayName(t *testing.T) {
	store := newFakeProfileStore(time.Now())
	store.put(model.Profile{UID: "u1", DisplayName: "Ada", Streak: 4})
	views := &fakeRenamer{}
	svc := NewProfileService(store, views, testLogger())

	name, err := svc.UpdateDisplayName(context.Background(), "u1", "  Ada Lovelace \n")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", name)

	p, _ := store.get("u1")
	assert.Equal(t, "Ada Lovelace", p.DisplayName)
	assert.Equal(t, 4, p.Streak, "streak untouched")
	assert.Equal(t, map[string]string{"u1": "Ada Lovelace"}, views.renamed)
}

func TestUpdateDisplayName_Validation(t *testing.T) {
	tests := []struct {
		name string
		uid  string
		in   string
	}{
		{"empty", "u1", ""},
		{"only spaces", "u1", " \t "},
		{"too long", "u1", strings.Repeat("é", MaxDisplayNameLength+1)},
		{"no uid", " ", "Ada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeProfileStore(time.Now())
			store.put(model.Profile{UID: "u1", DisplayName: "Ada"})
			views := &fakeRenamer{}
			svc := NewProfileService(store, views, testLogger())

			_, err := svc.UpdateDisplayName(context.Background(), tt.uid, tt.in)

			assert.ErrorIs(t, err, apperror.ErrValidation)
			p, _ := store.get("u1")
			assert.Equal(t, "Ada", p.DisplayName)
			assert.Empty(t, views.renamed)
		})
	}
}

func TestUpdateDisplayName_LongestAllowed(t *testing.T) {
	store := newFakeProfileStore(time.Now())
	store.put(model.Profile{UID: "u1"})
	svc := NewProfileService(store, nil, testLogger())

	name := strings.Repeat("é", MaxDisplayNameLength)
	got, err := svc.UpdateDisplayName(context.Background(), "u1", name)

	require.NoError(t, err)
	assert.Equal(t, name, got)
}

func TestUpdateDisplayName_StoreErrors(t *testing.T) {
	store := newFakeProfileStore(time.Now())
	views := &fakeRenamer{}
	svc := NewProfileService(store, views, testLogger())

	_, err := svc.UpdateDisplayName(context.Background(), "ghost", "Ada")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	store.put(model.Profile{UID: "u1"})
	store.renameErr = errStoreDown
	_, err = svc.UpdateDisplayName(context.Background(), "u1", "Ada")
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, views.renamed)
}
