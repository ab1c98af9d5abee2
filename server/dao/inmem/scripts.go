package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dekarrin/koto/server/dao"
	"github.com/google/uuid"
)

func NewScriptsRepository() *InMemoryScriptsRepository {
	return &InMemoryScriptsRepository{
		scripts:       make(map[uuid.UUID]dao.Script),
		byUserIDIndex: make(map[uuid.UUID][]uuid.UUID),
	}
}

type InMemoryScriptsRepository struct {
	scripts       map[uuid.UUID]dao.Script
	byUserIDIndex map[uuid.UUID][]uuid.UUID
}

func (imsr *InMemoryScriptsRepository) Close() error {
	return nil
}

func (imsr *InMemoryScriptsRepository) Create(ctx context.Context, s dao.Script) (dao.Script, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Script{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()

	s.ID = newUUID
	s.Created = now
	s.Modified = now

	imsr.scripts[s.ID] = s
	imsr.byUserIDIndex[s.UserID] = append(imsr.byUserIDIndex[s.UserID], s.ID)

	return s, nil
}

func (imsr *InMemoryScriptsRepository) GetAll(ctx context.Context) ([]dao.Script, error) {
	all := make([]dao.Script, 0, len(imsr.scripts))

	for k := range imsr.scripts {
		all = append(all, imsr.scripts[k])
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	return all, nil
}

func (imsr *InMemoryScriptsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Script, error) {
	ids := imsr.byUserIDIndex[userID]
	if len(ids) < 1 {
		return nil, dao.ErrNotFound
	}

	all := make([]dao.Script, len(ids))
	for i := range ids {
		all[i] = imsr.scripts[ids[i]]
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})

	return all, nil
}

func (imsr *InMemoryScriptsRepository) Update(ctx context.Context, id uuid.UUID, s dao.Script) (dao.Script, error) {
	existing, ok := imsr.scripts[id]
	if !ok {
		return dao.Script{}, dao.ErrNotFound
	}

	s.Created = existing.Created
	s.Modified = time.Now()

	imsr.scripts[id] = s

	if s.UserID != existing.UserID {
		imsr.removeFromUserIndex(existing.UserID, id)
		imsr.byUserIDIndex[s.UserID] = append(imsr.byUserIDIndex[s.UserID], id)
	}

	return s, nil
}

func (imsr *InMemoryScriptsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Script, error) {
	s, ok := imsr.scripts[id]
	if !ok {
		return dao.Script{}, dao.ErrNotFound
	}

	return s, nil
}

func (imsr *InMemoryScriptsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Script, error) {
	s, ok := imsr.scripts[id]
	if !ok {
		return dao.Script{}, dao.ErrNotFound
	}

	imsr.removeFromUserIndex(s.UserID, id)
	delete(imsr.scripts, id)

	return s, nil
}

func (imsr *InMemoryScriptsRepository) removeFromUserIndex(userID, scriptID uuid.UUID) {
	byUser := imsr.byUserIDIndex[userID]
	for i, id := range byUser {
		if id == scriptID {
			byUser = append(byUser[:i], byUser[i+1:]...)
			break
		}
	}
	if len(byUser) < 1 {
		delete(imsr.byUserIDIndex, userID)
	} else {
		imsr.byUserIDIndex[userID] = byUser
	}
}
