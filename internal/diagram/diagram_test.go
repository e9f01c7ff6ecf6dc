package diagram

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/seanblong/fuzzydb/internal/backbone"
	"github.com/seanblong/fuzzydb/internal/config"
)

func testBackbone(t *testing.T) *backbone.Backbone {
	t.Helper()
	cfg := config.BackboneConfiguration{
		ReferenceGroups: config.GroupSpec{"ID": []string{"Customer_ID(1)"}},
		TargetGroups:    config.GroupSpec{"ID": []string{"Customer_ID(1)"}},
		RefToTgt:        config.LinkSpec{"ID": "ID"},
		TgtToRef:        config.LinkSpec{"ID": "ID"},
		ReferenceKeyCol: "Customer_ID",
		TargetKeyCol:    "Customer_ID",
	}
	bb, err := backbone.New(cfg, zerolog.New(os.Stderr).Level(zerolog.Disabled))
	if err != nil {
		t.Fatalf("backbone.New failed: %v", err)
	}
	return bb
}

func TestRenderIncludesGroupsAndLink(t *testing.T) {
	bb := testBackbone(t)
	out := Render(bb).String()

	if !strings.Contains(out, "ref_ID") || !strings.Contains(out, "tgt_ID") {
		t.Errorf("expected both group nodes in DOT output, got:\n%s", out)
	}
	if !strings.Contains(out, "Customer_ID") {
		t.Errorf("expected header name in node label, got:\n%s", out)
	}
}

func TestWriteFileProducesDotSource(t *testing.T) {
	bb := testBackbone(t)
	path := filepath.Join(t.TempDir(), "backbone.dot")

	if err := WriteFile(path, bb); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written diagram: %v", err)
	}
	if !strings.Contains(string(data), "digraph") {
		t.Errorf("expected digraph DOT source, got:\n%s", data)
	}
}
