package flow

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/ringflowhq/ringflow/internal/db"
)

func setupTestStore(t *testing.T) (*Store, *db.DB) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database), database
}

func seedNumber(t *testing.T, database *db.DB, id string) {
	t.Helper()
	_, err := database.Exec(
		`INSERT INTO phone_numbers (id, user_id, phone_number, provider_sid) VALUES (?, 'u-1', ?, ?)`,
		id, "+1555000"+id, "PN"+id)
	if err != nil {
		t.Fatalf("seeding number: %v", err)
	}
}

func testFlow(numberID string) *Flow {
	return &Flow{
		UserID:   "u-1",
		FlowName: "Main line",
		NumberID: numberID,
		IsActive: true,
		Config:   Serialize("alice", sampleBlocks()),
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	store, database := setupTestStore(t)
	ctx := context.Background()
	seedNumber(t, database, "n-1")

	f := testFlow("n-1")
	if err := store.CreateFlow(ctx, f); err != nil {
		t.Fatalf("CreateFlow: %v", err)
	}
	if f.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := store.GetFlow(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetFlow: %v", err)
	}
	if got.FlowName != "Main line" {
		t.Errorf("FlowName = %q", got.FlowName)
	}
	if len(got.Config.Blocks) != 3 {
		t.Errorf("block count = %d, want 3", len(got.Config.Blocks))
	}
	if got.Config.Version != ConfigVersion {
		t.Errorf("Version = %q, want %q", got.Config.Version, ConfigVersion)
	}
}

func TestStoreOneActiveFlowPerNumber(t *testing.T) {
	store, database := setupTestStore(t)
	ctx := context.Background()
	seedNumber(t, database, "n-1")

	first := testFlow("n-1")
	if err := store.CreateFlow(ctx, first); err != nil {
		t.Fatalf("CreateFlow: %v", err)
	}

	second := testFlow("n-1")
	err := store.CreateFlow(ctx, second)
	if !errors.Is(err, ErrNumberInUse) {
		t.Fatalf("CreateFlow = %v, want ErrNumberInUse", err)
	}

	// An inactive flow may share the number.
	second.IsActive = false
	if err := store.CreateFlow(ctx, second); err != nil {
		t.Fatalf("CreateFlow (inactive): %v", err)
	}

	// Activating it then collides.
	err = store.SetActive(ctx, second.ID, true)
	if !errors.Is(err, ErrNumberInUse) {
		t.Fatalf("SetActive = %v, want ErrNumberInUse", err)
	}

	// Deactivate the first and the second may take over.
	if err := store.SetActive(ctx, first.ID, false); err != nil {
		t.Fatalf("SetActive(first, false): %v", err)
	}
	if err := store.SetActive(ctx, second.ID, true); err != nil {
		t.Fatalf("SetActive(second, true): %v", err)
	}
}

func TestStoreGetActiveFlowForNumber(t *testing.T) {
	store, database := setupTestStore(t)
	ctx := context.Background()
	seedNumber(t, database, "n-1")

	f := testFlow("n-1")
	if err := store.CreateFlow(ctx, f); err != nil {
		t.Fatalf("CreateFlow: %v", err)
	}

	got, err := store.GetActiveFlowForNumber(ctx, "n-1")
	if err != nil {
		t.Fatalf("GetActiveFlowForNumber: %v", err)
	}
	if got.ID != f.ID {
		t.Errorf("ID = %s, want %s", got.ID, f.ID)
	}

	if _, err := store.GetActiveFlowForNumber(ctx, "n-none"); err == nil {
		t.Fatal("expected error for unbound number")
	}
}

func TestStoreUpdateFlow(t *testing.T) {
	store, database := setupTestStore(t)
	ctx := context.Background()
	seedNumber(t, database, "n-1")

	f := testFlow("n-1")
	if err := store.CreateFlow(ctx, f); err != nil {
		t.Fatalf("CreateFlow: %v", err)
	}

	f.FlowName = "After hours"
	f.Config = Serialize("alice", sampleBlocks()[:1])
	if err := store.UpdateFlow(ctx, f); err != nil {
		t.Fatalf("UpdateFlow: %v", err)
	}

	got, err := store.GetFlow(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetFlow: %v", err)
	}
	if got.FlowName != "After hours" || len(got.Config.Blocks) != 1 {
		t.Errorf("update not persisted: %+v", got)
	}

	missing := testFlow("n-1")
	missing.ID = "nope"
	if err := store.UpdateFlow(ctx, missing); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("UpdateFlow(missing) = %v, want sql.ErrNoRows", err)
	}
}

func TestStoreDeleteFlow(t *testing.T) {
	store, database := setupTestStore(t)
	ctx := context.Background()
	seedNumber(t, database, "n-1")

	f := testFlow("n-1")
	if err := store.CreateFlow(ctx, f); err != nil {
		t.Fatalf("CreateFlow: %v", err)
	}
	if err := store.DeleteFlow(ctx, f.ID); err != nil {
		t.Fatalf("DeleteFlow: %v", err)
	}
	if _, err := store.GetFlow(ctx, f.ID); err == nil {
		t.Fatal("expected error after delete")
	}
	if err := store.DeleteFlow(ctx, f.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("DeleteFlow(missing) = %v, want sql.ErrNoRows", err)
	}
}

func TestStoreUpgradesLegacyDocumentOnRead(t *testing.T) {
	store, database := setupTestStore(t)
	ctx := context.Background()
	seedNumber(t, database, "n-1")

	_, err := database.Exec(
		`INSERT INTO flows (id, user_id, flow_name, flow_config, number_id, is_active) VALUES (?, 'u-1', 'Old', ?, 'n-1', 1)`,
		"legacy-1", `{"greeting":"Hi","forward":{"number":"+15551234"}}`)
	if err != nil {
		t.Fatalf("seeding legacy flow: %v", err)
	}

	got, err := store.GetFlow(ctx, "legacy-1")
	if err != nil {
		t.Fatalf("GetFlow: %v", err)
	}
	if got.Config.Version != ConfigVersion {
		t.Errorf("Version = %q, want upgraded %q", got.Config.Version, ConfigVersion)
	}
	if len(got.Config.Blocks) != 2 {
		t.Fatalf("block count = %d, want 2", len(got.Config.Blocks))
	}
	if got.Config.Blocks[0].Type != BlockSay || got.Config.Blocks[1].Type != BlockForward {
		t.Errorf("upgraded types = %s,%s", got.Config.Blocks[0].Type, got.Config.Blocks[1].Type)
	}
}
