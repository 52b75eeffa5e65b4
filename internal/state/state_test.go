package state

import (
	"cellar/internal/model"
	"path/filepath"
	"testing"
	"time"
)

// The database handle is package-global, so these tests stay
// sequential and reconfigure it per test.
func configureTestDB(t *testing.T) {
	t.Helper()
	Configure(filepath.Join(t.TempDir(), "cellar.db"))
	t.Cleanup(CloseDB)
}

func TestReceiptRoundTrip(t *testing.T) {
	configureTestDB(t)

	if r, err := GetReceipt("jq"); err != nil || r != nil {
		t.Fatalf("missing receipt = (%v, %v), want (nil, nil)", r, err)
	}

	err := SaveReceipt(Receipt{
		Name:    "jq",
		Version: "1.7.1",
		PkgType: model.PackageFormula,
		Action:  model.ActionInstall,
		KegPath: "/cellar/kegs/jq/1.7.1",
	})
	if err != nil {
		t.Fatalf("SaveReceipt() error: %v", err)
	}

	got, err := GetReceipt("jq")
	if err != nil {
		t.Fatalf("GetReceipt() error: %v", err)
	}
	if got == nil || got.Version != "1.7.1" || got.Action != model.ActionInstall {
		t.Fatalf("receipt = %+v, want version 1.7.1 freshly installed", got)
	}
	if got.ID == "" {
		t.Error("receipt was stored without a generated id")
	}
	if got.InstalledAt.IsZero() {
		t.Error("receipt was stored without a timestamp")
	}
}

func TestSaveReceiptReplacesExisting(t *testing.T) {
	configureTestDB(t)

	seed := Receipt{Name: "wget", Version: "1.24.5", PkgType: model.PackageFormula, Action: model.ActionInstall, KegPath: "/kegs/wget/1.24.5"}
	if err := SaveReceipt(seed); err != nil {
		t.Fatal(err)
	}
	upgrade := Receipt{Name: "wget", Version: "1.25.0", PkgType: model.PackageFormula, Action: model.ActionUpgrade, KegPath: "/kegs/wget/1.25.0"}
	if err := SaveReceipt(upgrade); err != nil {
		t.Fatal(err)
	}

	receipts, err := ListReceipts()
	if err != nil {
		t.Fatal(err)
	}
	if len(receipts) != 1 {
		t.Fatalf("got %d receipts, want the upgrade to replace the install", len(receipts))
	}
	if receipts[0].Version != "1.25.0" || receipts[0].Action != model.ActionUpgrade {
		t.Errorf("receipt = %+v, want the upgrade row", receipts[0])
	}
}

func TestListReceiptsOrdersByName(t *testing.T) {
	configureTestDB(t)

	for _, name := range []string{"zstd", "jq", "wget"} {
		err := SaveReceipt(Receipt{Name: name, Version: "1.0", PkgType: model.PackageFormula, Action: model.ActionInstall, KegPath: "/kegs/" + name})
		if err != nil {
			t.Fatal(err)
		}
	}

	receipts, err := ListReceipts()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range receipts {
		names = append(names, r.Name)
	}
	want := []string{"jq", "wget", "zstd"}
	for i, name := range want {
		if i >= len(names) || names[i] != name {
			t.Fatalf("receipt names = %v, want %v", names, want)
		}
	}
}

func TestDownloadHistory(t *testing.T) {
	configureTestDB(t)

	base := time.Now().Add(-time.Minute)
	for i, target := range []string{"jq", "wget", "zstd"} {
		err := RecordDownload(DownloadRecord{
			TargetID:  target,
			URL:       "https://example.com/" + target,
			Path:      "/cache/" + target,
			SizeBytes: int64(100 * (i + 1)),
			WasCached: i == 1,
			Status:    DownloadStatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	records, err := RecentDownloads(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].TargetID != "zstd" || records[1].TargetID != "wget" {
		t.Errorf("order = %s, %s; want newest first", records[0].TargetID, records[1].TargetID)
	}
	if !records[1].WasCached {
		t.Error("cached flag was not persisted")
	}
}

func TestOperationsRequireConfiguration(t *testing.T) {
	CloseDB()
	dbMu.Lock()
	configured = false
	dbPath = ""
	dbMu.Unlock()

	if err := SaveReceipt(Receipt{Name: "jq"}); err == nil {
		t.Error("SaveReceipt succeeded without configuration")
	}
}
