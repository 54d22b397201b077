package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"archiver/src/utils/model"

	"github.com/google/uuid"
)

// In-memory Store used by the tests in this package.
// Mirrors the database semantics: get-or-create, accession uniqueness and
// the read-modify-write sequence applying changes only when f succeeds.
type memStore struct {
	mtx      sync.Mutex
	sips     map[uuid.UUID]*model.Sip
	archives map[uuid.UUID]*model.Archive
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		sips:     make(map[uuid.UUID]*model.Sip),
		archives: make(map[uuid.UUID]*model.Archive),
	}
}

func (self *memStore) addSip(sip *model.Sip) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	copied := *sip
	self.sips[sip.ID] = &copied
}

func (self *memStore) GetSip(ctx context.Context, id uuid.UUID) (*model.Sip, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	sip, ok := self.sips[id]
	if !ok {
		return nil, ErrSipNotFound
	}
	copied := *sip
	return &copied, nil
}

func (self *memStore) GetArchive(ctx context.Context, sipID uuid.UUID) (*model.Archive, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	ark, ok := self.archives[sipID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	copied := *ark
	return &copied, nil
}

func (self *memStore) GetArchiveByAccession(ctx context.Context, accessionID string) (*model.Archive, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	for _, ark := range self.archives {
		if ark.AccessionID.Valid && ark.AccessionID.String == accessionID {
			copied := *ark
			return &copied, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (self *memStore) CreateArchive(ctx context.Context, sipID uuid.UUID, status model.ArchiveStatus) (*model.Archive, bool, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if ark, ok := self.archives[sipID]; ok {
		copied := *ark
		return &copied, false, nil
	}
	if _, ok := self.sips[sipID]; !ok {
		return nil, false, ErrSipNotFound
	}

	self.nextID++
	now := time.Now()
	ark := &model.Archive{
		ID:        self.nextID,
		SipID:     sipID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	self.archives[sipID] = ark

	copied := *ark
	return &copied, true, nil
}

func (self *memStore) UpdateArchive(ctx context.Context, sipID uuid.UUID, f func(ark *model.Archive, sip *model.Sip) error) (*model.Archive, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	ark, ok := self.archives[sipID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	sip, ok := self.sips[sipID]
	if !ok {
		return nil, ErrSipNotFound
	}

	arkCopy := *ark
	sipCopy := *sip

	err := f(&arkCopy, &sipCopy)
	if err != nil {
		return nil, err
	}

	if arkCopy.AccessionID.Valid {
		for id, other := range self.archives {
			if id != sipID && other.AccessionID.Valid &&
				other.AccessionID.String == arkCopy.AccessionID.String {
				return nil, ErrAccessionConflict
			}
		}
	}

	arkCopy.UpdatedAt = time.Now()
	sipCopy.UpdatedAt = arkCopy.UpdatedAt
	*ark = arkCopy
	*sip = sipCopy

	out := arkCopy
	return &out, nil
}

func (self *memStore) SelectDue(ctx context.Context, cutoff time.Time, limit int) ([]*model.Archive, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	var out []*model.Archive
	for _, ark := range self.archives {
		if ark.Status == model.StatusNew && !ark.UpdatedAt.After(cutoff) {
			copied := *ark
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.Before(out[j].UpdatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
