package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/monorepo-trigger/internal/event"
)

func TestDefaultCatalog_Map(t *testing.T) {
	m := DefaultCatalog().Map()
	if len(m) != 2 {
		t.Fatalf("want 2 entries got %d", len(m))
	}
	if m["demo"] != "codepipeline-demo-main" {
		t.Errorf("demo want codepipeline-demo-main got %s", m["demo"])
	}
	if m["hotsite"] != "codepipeline-hotsite-main" {
		t.Errorf("hotsite want codepipeline-hotsite-main got %s", m["hotsite"])
	}
}

func TestCatalog_MapJSONIsFlatObject(t *testing.T) {
	data, err := DefaultCatalog().MapJSON()
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("rendered map is not a flat object: %v", err)
	}
	if got["hotsite"] != "codepipeline-hotsite-main" {
		t.Errorf("hotsite want codepipeline-hotsite-main got %s", got["hotsite"])
	}
}

func TestCatalog_Names(t *testing.T) {
	names := DefaultCatalog().Names()
	if len(names) != 2 || names[0] != "codepipeline-demo-main" || names[1] != "codepipeline-hotsite-main" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestDryRun_StartPipeline(t *testing.T) {
	d := NewDryRun(DefaultCatalog())
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c1"}

	if err := d.StartPipeline(context.Background(), "codepipeline-demo-main", trig); err != nil {
		t.Errorf("known pipeline: want nil got %v", err)
	}
	if err := d.StartPipeline(context.Background(), "nope", trig); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown pipeline: want ErrNotFound got %v", err)
	}
}
