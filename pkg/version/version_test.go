package version

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"synapsesync/pkg/domain"
)

var testNow = time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

func newDoc(content string) domain.Document {
	return domain.Document{
		ID:              "doc-1",
		Title:           "Notes",
		Kind:            domain.KindDoc,
		OwnerID:         "owner-1",
		CurrentContent:  content,
		Materialization: domain.MaterializationFull,
	}
}

func TestApplyEditCapturesPreImage(t *testing.T) {
	doc := newDoc("A")
	doc, counts := ApplyEdit(doc, "B", false, testNow)

	if !counts {
		t.Fatalf("manual edit must count against the quota")
	}
	if doc.CurrentContent != "B" {
		t.Fatalf("current content = %q, want B", doc.CurrentContent)
	}
	if len(doc.Versions) != 1 {
		t.Fatalf("version count = %d, want 1", len(doc.Versions))
	}
	v := doc.Versions[0]
	if v.Content != "A" {
		t.Fatalf("version content = %q, want pre-edit A", v.Content)
	}
	if !strings.HasPrefix(v.Label, "Saved ") {
		t.Fatalf("label = %q, want Saved prefix", v.Label)
	}
	if doc.LastUpdated != testNow {
		t.Fatalf("LastUpdated not advanced")
	}
}

func TestApplyEditAutoSaveLabelAndCounter(t *testing.T) {
	doc := newDoc("A")
	doc, counts := ApplyEdit(doc, "B", true, testNow)
	if counts {
		t.Fatalf("auto-save must not count against the quota")
	}
	if !strings.HasPrefix(doc.Versions[0].Label, "Auto-Save ") {
		t.Fatalf("label = %q, want Auto-Save prefix", doc.Versions[0].Label)
	}
}

func TestApplyEditDoesNotMutateInput(t *testing.T) {
	orig := newDoc("A")
	orig.Versions = []domain.Version{{ID: "v1", Content: "seed"}}
	kept := orig.Versions

	ApplyEdit(orig, "B", false, testNow)

	if len(kept) != 1 || kept[0].ID != "v1" {
		t.Fatalf("input version slice mutated: %+v", kept)
	}
}

func TestVersionCountInvariant(t *testing.T) {
	doc := newDoc("v0")
	for i := 1; i <= 25; i++ {
		doc, _ = ApplyEdit(doc, fmt.Sprintf("v%d", i), i%2 == 0, testNow.Add(time.Duration(i)*time.Minute))
		if len(doc.Versions) > MaxVersions {
			t.Fatalf("after edit %d: %d versions, want <= %d", i, len(doc.Versions), MaxVersions)
		}
	}
	if len(doc.Versions) != MaxVersions {
		t.Fatalf("version count = %d, want %d", len(doc.Versions), MaxVersions)
	}
}

func TestRetentionEvictsOldestFirst(t *testing.T) {
	doc := newDoc("v0")
	for i := 1; i <= MaxVersions; i++ {
		doc, _ = ApplyEdit(doc, fmt.Sprintf("v%d", i), false, testNow.Add(time.Duration(i)*time.Minute))
	}
	oldest := doc.Versions[0]
	survivors := doc.Versions[1:]

	doc, _ = ApplyEdit(doc, "v11", false, testNow.Add(11*time.Minute))

	if len(doc.Versions) != MaxVersions {
		t.Fatalf("version count = %d, want %d", len(doc.Versions), MaxVersions)
	}
	if _, ok := doc.FindVersion(oldest.ID); ok {
		t.Fatalf("oldest version %s should have been evicted", oldest.ID)
	}
	for i, want := range survivors {
		if doc.Versions[i].ID != want.ID {
			t.Fatalf("survivor order changed at %d: got %s, want %s", i, doc.Versions[i].ID, want.ID)
		}
	}
	if doc.Versions[MaxVersions-1].Content != "v10" {
		t.Fatalf("newest version content = %q, want pre-image v10", doc.Versions[MaxVersions-1].Content)
	}
}

func TestRestoreVersionRoundTrip(t *testing.T) {
	doc := newDoc("A")
	doc, _ = ApplyEdit(doc, "B", false, testNow)
	target := doc.Versions[0]

	doc, err := RestoreVersion(doc, target.ID, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if doc.CurrentContent != "A" {
		t.Fatalf("current content = %q, want restored A", doc.CurrentContent)
	}
	if len(doc.Versions) != 2 {
		t.Fatalf("version count = %d, want 2", len(doc.Versions))
	}
	if _, ok := doc.FindVersion(target.ID); !ok {
		t.Fatalf("restored version must remain in history")
	}
	backup := doc.Versions[1]
	if backup.Content != "B" {
		t.Fatalf("backup content = %q, want pre-restore B", backup.Content)
	}
	if backup.Label != "Pre-Restore Backup" {
		t.Fatalf("backup label = %q", backup.Label)
	}
}

func TestRestoreUnknownVersion(t *testing.T) {
	doc := newDoc("A")
	if _, err := RestoreVersion(doc, "missing", testNow); err != ErrVersionNotFound {
		t.Fatalf("err = %v, want ErrVersionNotFound", err)
	}
}

func TestRestoreIdenticalContentStillBacksUp(t *testing.T) {
	doc := newDoc("A")
	doc, _ = ApplyEdit(doc, "A", false, testNow)
	target := doc.Versions[0]

	doc, err := RestoreVersion(doc, target.ID, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if doc.CurrentContent != "A" {
		t.Fatalf("current content = %q", doc.CurrentContent)
	}
	if len(doc.Versions) != 2 {
		t.Fatalf("restoring the live content must still append a backup, got %d versions", len(doc.Versions))
	}
}

func TestToggleAutoUpdate(t *testing.T) {
	doc := newDoc("A")
	doc.LastUpdated = testNow

	doc = ToggleAutoUpdate(doc)
	if !doc.AutoUpdateEnabled {
		t.Fatalf("flag should be on after first toggle")
	}
	if len(doc.Versions) != 0 {
		t.Fatalf("toggle created a version")
	}
	if doc.LastUpdated != testNow {
		t.Fatalf("toggle changed LastUpdated")
	}
	doc = ToggleAutoUpdate(doc)
	if doc.AutoUpdateEnabled {
		t.Fatalf("flag should be off after second toggle")
	}
}
