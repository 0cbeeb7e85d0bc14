package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"floorguard/internal/domain"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return s
}

func TestSaveAndGetPool(t *testing.T) {
	s := setupTestDB(t)

	binding := &domain.PoolBinding{
		PoolID:           "pool-1",
		VaultID:          "vault-1",
		BalanceManagerID: "bm-1",
		CoinType:         "0x2::rwa::GOLD",
		FloorPrice:       1_000_000,
		RegisteredAt:     time.Now(),
	}

	// 1. Create
	if err := s.SavePool(binding); err != nil {
		t.Fatalf("SavePool failed: %v", err)
	}

	// 2. Get
	fetched, err := s.GetPool("pool-1")
	if err != nil {
		t.Fatalf("GetPool failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("fetched binding is nil")
	}
	if fetched.VaultID != "vault-1" {
		t.Errorf("expected vault-1, got %s", fetched.VaultID)
	}
	if fetched.FloorPrice != 1_000_000 {
		t.Errorf("expected floor 1000000, got %d", fetched.FloorPrice)
	}
}

func TestGetPoolNotFound(t *testing.T) {
	s := setupTestDB(t)

	fetched, err := s.GetPool("ghost")
	if err != nil {
		t.Fatalf("GetPool failed: %v", err)
	}
	if fetched != nil {
		t.Error("unknown pool should return nil, not an error")
	}
}

func TestUpdatePool(t *testing.T) {
	s := setupTestDB(t)

	binding := &domain.PoolBinding{PoolID: "pool-1", VaultID: "vault-1", FloorPrice: 1_000_000, RegisteredAt: time.Now()}
	if err := s.SavePool(binding); err != nil {
		t.Fatal(err)
	}

	binding.FloorPrice = 2_000_000
	binding.BuybackCount = 3
	if err := s.SavePool(binding); err != nil {
		t.Fatal(err)
	}

	fetched, _ := s.GetPool("pool-1")
	if fetched.FloorPrice != 2_000_000 || fetched.BuybackCount != 3 {
		t.Errorf("update not persisted: %+v", fetched)
	}

	all, err := s.GetAllPools()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("save should upsert, got %d rows", len(all))
	}
}

func TestDeletePool(t *testing.T) {
	s := setupTestDB(t)

	if err := s.SavePool(&domain.PoolBinding{PoolID: "pool-1", VaultID: "vault-1", RegisteredAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePool("pool-1"); err != nil {
		t.Fatalf("DeletePool failed: %v", err)
	}

	fetched, _ := s.GetPool("pool-1")
	if fetched != nil {
		t.Error("pool-1 should be deleted")
	}
}

func TestRecordAndQueryExecutions(t *testing.T) {
	s := setupTestDB(t)

	base := time.Now().Add(-time.Minute)
	execs := []*domain.BuybackExecution{
		{PoolID: "pool-1", VaultID: "vault-1", Status: domain.ExecStatusExecuted, Quantity: decimal.NewFromInt(100), UsdcAmount: decimal.NewFromInt(98), ExecutedAt: base},
		{PoolID: "pool-2", VaultID: "vault-2", Status: domain.ExecStatusFailed, Error: "insufficient funds", ExecutedAt: base.Add(10 * time.Second)},
		{PoolID: "pool-1", VaultID: "vault-1", Status: domain.ExecStatusPartial, ExecutedAt: base.Add(20 * time.Second)},
	}
	for _, e := range execs {
		if err := s.RecordExecution(e); err != nil {
			t.Fatalf("RecordExecution failed: %v", err)
		}
	}

	all, err := s.GetExecutions("", 0)
	if err != nil {
		t.Fatalf("GetExecutions failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	// Newest first.
	if all[0].Status != domain.ExecStatusPartial {
		t.Errorf("expected newest first, got %s", all[0].Status)
	}

	filtered, err := s.GetExecutions("pool-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 rows for pool-1, got %d", len(filtered))
	}

	limited, err := s.GetExecutions("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 row with limit, got %d", len(limited))
	}

	if !all[2].Quantity.Equal(decimal.NewFromInt(100)) {
		t.Errorf("decimal round trip failed: %s", all[2].Quantity.String())
	}
}

func TestRecorderInterface(t *testing.T) {
	var _ domain.ExecutionRecorder = (*Storage)(nil)
	var _ domain.BindingStore = (*Storage)(nil)
}
