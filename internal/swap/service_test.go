package swap

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/apperr"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/auth"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/ledger"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
)

// stubStore backs the swap service in tests. The embedded interfaces cover
// the repository and ledger methods the service never calls.
type stubStore struct {
	repository.Repository
	ledger.Ledger

	teams  map[uint64]models.Team
	picks  map[uint64]*models.Pick
	swaps  map[uint64]*models.PickSwap
	nextID uint64
}

func newStubStore() *stubStore {
	return &stubStore{
		teams:  map[uint64]models.Team{},
		picks:  map[uint64]*models.Pick{},
		swaps:  map[uint64]*models.PickSwap{},
		nextID: 1,
	}
}

func (s *stubStore) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	// Rollback semantics are covered by the trade engine tests; the swap
	// paths only ever fail before their first write.
	return fn(nil)
}

func (s *stubStore) GetTeamByID(ctx context.Context, id uint64) (*models.Team, error) {
	if team, ok := s.teams[id]; ok {
		return &team, nil
	}
	return nil, nil
}

func (s *stubStore) CreateSwapTx(ctx context.Context, tx *gorm.DB, sw *models.PickSwap) error {
	sw.ID = s.nextID
	s.nextID++
	cp := *sw
	s.swaps[sw.ID] = &cp
	return nil
}

func (s *stubStore) GetSwapByID(ctx context.Context, id uint64) (*models.PickSwap, error) {
	if sw, ok := s.swaps[id]; ok {
		cp := *sw
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) ListSwaps(ctx context.Context, params repository.ListSwapsParams) ([]models.PickSwap, error) {
	var out []models.PickSwap
	for _, sw := range s.swaps {
		out = append(out, *sw)
	}
	return out, nil
}

func (s *stubStore) DeleteSwapTx(ctx context.Context, tx *gorm.DB, id uint64) error {
	delete(s.swaps, id)
	return nil
}

func (s *stubStore) UpdateSwapOwner(ctx context.Context, id uint64, teamID uint64) error {
	sw, ok := s.swaps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sw.OwnerTeamID = teamID
	return nil
}

func (s *stubStore) LockPicks(ctx context.Context, tx *gorm.DB, ids []uint64) ([]models.Pick, error) {
	out := make([]models.Pick, 0, len(ids))
	for _, id := range ids {
		p, ok := s.picks[id]
		if !ok {
			return nil, apperr.NotFound("pick %d not found", id)
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubStore) SetPicksInSwap(ctx context.Context, tx *gorm.DB, pickIDs []uint64, inSwap bool) error {
	for _, id := range pickIDs {
		if p, ok := s.picks[id]; ok {
			p.InSwap = inSwap
		}
	}
	return nil
}

var (
	admin  = auth.Identity{UserID: 1, Role: auth.RoleAdmin}
	ownerA = auth.Identity{UserID: 101, TeamID: 1}
	ownerB = auth.Identity{UserID: 102, TeamID: 2}
)

func newTestService() (*Service, *stubStore) {
	store := newStubStore()
	store.teams[1] = models.Team{ID: 1, SeasonID: 1, OwnerUserID: 101}
	store.teams[2] = models.Team{ID: 2, SeasonID: 1, OwnerUserID: 102}
	store.picks[20] = &models.Pick{ID: 20, OriginalTeamID: 1, CurrentTeamID: 1}
	store.picks[21] = &models.Pick{ID: 21, OriginalTeamID: 2, CurrentTeamID: 2}
	store.picks[22] = &models.Pick{ID: 22, OriginalTeamID: 2, CurrentTeamID: 2}
	return &Service{Repo: store, Ledger: store, Logger: zap.NewNop()}, store
}

func validParams() CreateParams {
	return CreateParams{
		SeasonID:    1,
		PickAID:     20,
		PickBID:     21,
		Kind:        models.SwapKindTakeBetter,
		OwnerTeamID: 1,
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, kind, err)
	}
}

func TestCreateLocksBothPicks(t *testing.T) {
	svc, store := newTestService()

	sw, err := svc.Create(context.Background(), ownerA, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sw.ID == 0 || sw.Kind != models.SwapKindTakeBetter || sw.OwnerTeamID != 1 {
		t.Fatalf("unexpected swap: %+v", sw)
	}
	if !store.picks[20].InSwap || !store.picks[21].InSwap {
		t.Fatal("both picks must be flagged in-swap")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		mut  func(p *CreateParams)
	}{
		{"bad kind", func(p *CreateParams) { p.Kind = "coin_flip" }},
		{"same pick twice", func(p *CreateParams) { p.PickBID = p.PickAID }},
		{"missing pick", func(p *CreateParams) { p.PickBID = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mut(&p)
			_, err := svc.Create(ctx, admin, p)
			wantKind(t, err, apperr.KindValidation)
		})
	}
}

func TestCreateRequiresOwnership(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, ownerB, validParams())
	wantKind(t, err, apperr.KindAuthorization)

	// Team 1 holds neither pick.
	p := validParams()
	p.PickAID = 21
	p.PickBID = 22
	_, err = svc.Create(ctx, ownerA, p)
	wantKind(t, err, apperr.KindValidation)
}

func TestCreateRejectsPickAlreadyInSwap(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, ownerA, validParams()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	p := CreateParams{SeasonID: 1, PickAID: 21, PickBID: 22, Kind: models.SwapKindTakeWorse, OwnerTeamID: 2}
	_, err := svc.Create(ctx, ownerB, p)
	wantKind(t, err, apperr.KindValidation)
}

func TestDeleteReleasesPicks(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	sw, err := svc.Create(ctx, ownerA, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.Delete(ctx, ownerB, sw.ID)
	wantKind(t, err, apperr.KindAuthorization)

	if err := svc.Delete(ctx, ownerA, sw.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.picks[20].InSwap || store.picks[21].InSwap {
		t.Fatal("deleting the swap must release both picks")
	}

	err = svc.Delete(ctx, ownerA, sw.ID)
	wantKind(t, err, apperr.KindNotFound)
}

func TestTransferOwnership(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	sw, err := svc.Create(ctx, ownerA, validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.TransferOwnership(ctx, ownerB, sw.ID, 2)
	wantKind(t, err, apperr.KindAuthorization)

	_, err = svc.TransferOwnership(ctx, ownerA, sw.ID, 99)
	wantKind(t, err, apperr.KindNotFound)

	got, err := svc.TransferOwnership(ctx, ownerA, sw.ID, 2)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got.OwnerTeamID != 2 {
		t.Fatalf("owner = %d, want 2", got.OwnerTeamID)
	}
	// The picks themselves never move.
	if store.picks[20].CurrentTeamID != 1 || store.picks[21].CurrentTeamID != 2 {
		t.Fatal("ownership transfer must not move picks")
	}
}
